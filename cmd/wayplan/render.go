package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/wayplan/wayplan/plan"
)

// renderPlan writes a plan in a readable terminal layout.
func renderPlan(w io.Writer, p *plan.Plan) {
	title := p.Goal.Topic
	if title == "" {
		title = p.Goal.RawText
	}

	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))

	if p.Goal.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", p.Goal.Location)
	}
	if len(p.Goal.Constraints) > 0 {
		fmt.Fprintf(w, "Constraints: %s\n", strings.Join(p.Goal.Constraints, ", "))
	}
	fmt.Fprintf(w, "Provider: %s", p.ProviderUsed)
	if p.EnrichmentUsed {
		fmt.Fprint(w, " (enriched)")
	}
	fmt.Fprintln(w)

	for _, u := range p.Units {
		fmt.Fprintf(w, "\n%s\n", u.Label)
		for _, item := range u.Items {
			if item.TimeHint != "" {
				fmt.Fprintf(w, "  - [%s] %s\n", item.TimeHint, item.Description)
			} else {
				fmt.Fprintf(w, "  - %s\n", item.Description)
			}
		}
	}

	if p.ID != "" {
		fmt.Fprintf(w, "\nSaved as %s\n", shortID(p.ID))
	}
}
