// Package enrich gathers best-effort external context for a planning
// request: web search snippets, a weather forecast, and an optional readable
// digest of the top result page. Sub-fetches are independent; a failure in
// one never aborts the others and never propagates as a hard error.
package enrich

import "time"

// Snippet is one web search result, in upstream relevance order.
type Snippet struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	SourceURL string `json:"source_url"`
}

// Forecast summarises the weather at the goal's location for the plan window.
type Forecast struct {
	Location  string `json:"location"`
	Summary   string `json:"summary"`
	TempRange string `json:"temp_range"`
}

// Bundle is the external context collected for one planning request.
// It is built once, never mutated after construction, and owned solely by
// the pipeline invocation that created it.
type Bundle struct {
	// Snippets are deduplicated search results, at most the configured K.
	Snippets []Snippet

	// Weather is nil when not requested, skipped, or failed.
	Weather *Forecast

	// PageDigest is a bounded markdown digest of the top result page,
	// empty unless digesting is enabled and succeeded.
	PageDigest string

	// GatheredAt is when the bundle was finalized.
	GatheredAt time.Time

	// Partial is true when any requested sub-fetch failed.
	Partial bool
}

// Empty reports whether the bundle carries no usable context.
func (b *Bundle) Empty() bool {
	return len(b.Snippets) == 0 && b.Weather == nil && b.PageDigest == ""
}
