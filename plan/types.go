// Package plan defines the structured plan model and the synthesis path
// that turns goal intent plus gathered context into a validated Plan via a
// provider-agnostic LLM call.
package plan

import (
	"fmt"
	"time"

	"github.com/wayplan/wayplan/goal"
)

// Item is one actionable entry within a plan unit.
type Item struct {
	// TimeHint is an optional leading time marker ("9:00 AM", "Morning").
	TimeHint string `json:"time_hint,omitempty"`

	// Description is the item text.
	Description string `json:"description"`
}

// Unit is one day/step/session of a plan.
type Unit struct {
	// Index is 1-based and strictly increasing within a plan.
	Index int `json:"index"`

	// Label is the unit heading (e.g. "Day 1: Old City").
	Label string `json:"label"`

	// Items are the ordered entries of the unit.
	Items []Item `json:"items"`
}

// Plan is the finalized structured output of a planning request. It is the
// only entity that crosses the core/persistence boundary.
type Plan struct {
	// ID is assigned at persistence time, never by the core.
	ID string `json:"id,omitempty"`

	// Goal is the interpreted intent this plan was built for.
	Goal goal.Goal `json:"goal"`

	// Units is the ordered, non-empty sequence of plan units.
	Units []Unit `json:"units"`

	// ProviderUsed names the provider that produced the plan, or
	// "offline-fallback".
	ProviderUsed string `json:"provider_used"`

	// CreatedAt is when synthesis completed.
	CreatedAt time.Time `json:"created_at"`

	// EnrichmentUsed marks whether external context informed the plan.
	EnrichmentUsed bool `json:"enrichment_used"`
}

// Validate checks the plan invariant: units non-empty with indices exactly
// 1..N. A plan failing this is a synthesis failure and must never reach
// callers.
func (p *Plan) Validate() error {
	if len(p.Units) == 0 {
		return fmt.Errorf("plan has no units")
	}
	for i, u := range p.Units {
		if u.Index != i+1 {
			return fmt.Errorf("unit %d has index %d, want %d", i, u.Index, i+1)
		}
	}
	return nil
}
