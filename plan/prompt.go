package plan

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wayplan/wayplan/enrich"
	"github.com/wayplan/wayplan/goal"
)

// systemPrompt frames the model as a planner producing enumerable output.
const systemPrompt = `You are an expert task planner. Create detailed, actionable plans with specific times, locations, and helpful information. Structure your response unit by unit ("Day 1:", "Step 1:", ...) with 3-5 numbered or bulleted items per unit. Be specific and practical.`

// snippetMaxChars truncates each web snippet in the prompt digest.
const snippetMaxChars = 240

// maxPromptSnippets bounds how many snippets enter the prompt.
const maxPromptSnippets = 5

// buildPrompt composes the user prompt from the goal's structured fields and
// a bounded-size digest of the enrichment bundle, in relevance order.
func buildPrompt(gl goal.Goal, bundle enrich.Bundle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Create a detailed plan for: %q\n\n", gl.RawText)
	fmt.Fprintf(&sb, "Duration: %d %s(s)\n", gl.Duration, gl.Unit)
	if gl.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", gl.Location)
	}
	if len(gl.Constraints) > 0 {
		fmt.Fprintf(&sb, "Constraints: %s\n", strings.Join(gl.Constraints, ", "))
	}

	if digest := bundleDigest(bundle); digest != "" {
		sb.WriteString("\nAvailable information:\n")
		sb.WriteString(digest)
	}

	fmt.Fprintf(&sb, "\nGenerate exactly %d %s(s). Label each as \"%s N: <theme>\" and list 3-5 concrete items under it, with times where relevant.\n",
		gl.Duration, gl.Unit, unitWord(gl.Unit))

	return sb.String()
}

// bundleDigest renders the enrichment bundle compactly, snippets first in
// relevance order, each truncated to keep the prompt bounded.
func bundleDigest(bundle enrich.Bundle) string {
	var sb strings.Builder

	for i, s := range bundle.Snippets {
		if i >= maxPromptSnippets {
			break
		}
		text := s.Snippet
		if text == "" {
			text = s.Title
		}
		fmt.Fprintf(&sb, "- %s: %s\n", s.Title, truncate(text, snippetMaxChars))
	}

	if bundle.Weather != nil {
		fmt.Fprintf(&sb, "- Weather in %s: %s, %s\n",
			bundle.Weather.Location, bundle.Weather.Summary, bundle.Weather.TempRange)
	}

	if bundle.PageDigest != "" {
		sb.WriteString("\nBackground:\n")
		sb.WriteString(bundle.PageDigest)
		sb.WriteString("\n")
	}

	return sb.String()
}

// unitWord returns the capitalized label word for a unit kind.
func unitWord(kind goal.UnitKind) string {
	switch kind {
	case goal.UnitStep:
		return "Step"
	case goal.UnitSession:
		return "Session"
	default:
		return "Day"
	}
}

// truncate cuts s at max bytes on a word boundary, never mid-rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
