package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/wayplan/wayplan/goal"
)

// FallbackProvider is the provider name recorded on offline-generated plans.
const FallbackProvider = "offline-fallback"

// GenerateFallback produces a minimal valid Plan templated directly from the
// Goal, with no enrichment. It is deterministic: identical goals yield
// identical units. The result satisfies the same invariant as synthesized
// plans.
func GenerateFallback(gl goal.Goal) (*Plan, error) {
	if gl.Duration < 1 {
		return nil, fmt.Errorf("fallback requires a well-formed goal: duration %d", gl.Duration)
	}
	if gl.Topic == "" {
		return nil, fmt.Errorf("fallback requires a well-formed goal: empty topic")
	}

	word := unitWord(gl.Unit)
	units := make([]Unit, gl.Duration)
	for i := range units {
		n := i + 1
		units[i] = Unit{
			Index: n,
			Label: fmt.Sprintf("%s %d: %s", word, n, labelTheme(gl, n)),
			Items: fallbackItems(gl, n),
		}
	}

	p := &Plan{
		Goal:           gl,
		Units:          units,
		ProviderUsed:   FallbackProvider,
		CreatedAt:      time.Now(),
		EnrichmentUsed: false,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// labelTheme names a unit's theme from the goal.
func labelTheme(gl goal.Goal, n int) string {
	switch {
	case n == 1:
		return "Getting started with " + gl.Topic
	case n == gl.Duration:
		return "Wrapping up " + gl.Topic
	default:
		return fmt.Sprintf("Continuing %s (part %d)", gl.Topic, n)
	}
}

// fallbackItems templates the unit's items by unit kind.
func fallbackItems(gl goal.Goal, n int) []Item {
	var items []Item

	switch gl.Unit {
	case goal.UnitDay:
		items = []Item{
			{TimeHint: "Morning", Description: firstOf(n, "Plan the day and map out key spots for "+gl.Topic, "Pick up where the previous day left off")},
			{TimeHint: "Afternoon", Description: "Spend focused time on the main activity for " + gl.Topic},
			{TimeHint: "Evening", Description: "Review the day and note adjustments for tomorrow"},
		}
	case goal.UnitSession:
		items = []Item{
			{Description: firstOf(n, "Warm up and set a baseline for "+gl.Topic, fmt.Sprintf("Warm up and review progress from session %d", n-1))},
			{Description: "Work through the core material for " + gl.Topic},
			{Description: "Write down takeaways and goals for the next session"},
		}
	default: // steps
		items = []Item{
			{Description: fmt.Sprintf("Complete step %d toward %s", n, gl.Topic)},
			{Description: "Check the result before moving on"},
		}
	}

	if n == 1 && len(gl.Constraints) > 0 {
		items = append(items, Item{
			Description: "Keep these preferences in mind throughout: " + strings.Join(gl.Constraints, ", "),
		})
	}

	return items
}

// firstOf picks the first-unit phrasing on unit 1, the continuation
// phrasing otherwise.
func firstOf(n int, first, rest string) string {
	if n == 1 {
		return first
	}
	return rest
}
