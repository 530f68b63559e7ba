package enrich

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wayplan/wayplan/goal"
)

// Searcher is the web search sub-fetch contract.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]Snippet, error)
}

// Forecaster is the weather sub-fetch contract.
type Forecaster interface {
	Enabled() bool
	Forecast(ctx context.Context, location string, days int) (*Forecast, error)
}

// PageDigester is the optional top-result digest contract.
type PageDigester interface {
	Digest(ctx context.Context, pageURL string) (string, error)
}

// Gatherer runs the requested sub-fetches concurrently and joins them into
// a Bundle. It never returns an error: the worst case is an all-empty bundle
// with Partial set, preserving pipeline progress over completeness.
type Gatherer struct {
	search   Searcher
	weather  Forecaster
	digester PageDigester

	maxResults     int
	searchTimeout  time.Duration
	weatherTimeout time.Duration
	logger         *slog.Logger
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

// WithSearcher sets the web search client. nil disables web search.
func WithSearcher(s Searcher) GathererOption {
	return func(g *Gatherer) {
		g.search = s
	}
}

// WithForecaster sets the weather client. nil disables weather lookups.
func WithForecaster(f Forecaster) GathererOption {
	return func(g *Gatherer) {
		g.weather = f
	}
}

// WithDigester enables top-result page digesting.
func WithDigester(d PageDigester) GathererOption {
	return func(g *Gatherer) {
		g.digester = d
	}
}

// WithMaxResults caps the number of search snippets.
func WithMaxResults(k int) GathererOption {
	return func(g *Gatherer) {
		if k > 0 {
			g.maxResults = k
		}
	}
}

// WithTimeouts sets per-source timeouts so one slow source cannot stall
// the other indefinitely.
func WithTimeouts(search, weather time.Duration) GathererOption {
	return func(g *Gatherer) {
		if search > 0 {
			g.searchTimeout = search
		}
		if weather > 0 {
			g.weatherTimeout = weather
		}
	}
}

// WithGatherLogger sets the logger.
func WithGatherLogger(logger *slog.Logger) GathererOption {
	return func(g *Gatherer) {
		g.logger = logger
	}
}

// NewGatherer creates a gatherer with the given sub-clients.
func NewGatherer(opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		maxResults:     5,
		searchTimeout:  10 * time.Second,
		weatherTimeout: 10 * time.Second,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Gather collects the context the goal asked for. The two sub-fetches run
// concurrently; both complete or time out before the bundle is finalized.
func (g *Gatherer) Gather(ctx context.Context, gl goal.Goal) Bundle {
	var (
		wg sync.WaitGroup

		snippets  []Snippet
		digest    string
		webFailed bool
		forecast  *Forecast
		wxFailed  bool
	)

	if gl.NeedsWeb && g.search != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()

			webCtx, cancel := context.WithTimeout(ctx, g.searchTimeout)
			defer cancel()

			query := buildQuery(gl)
			results, err := g.search.Search(webCtx, query, g.maxResults)
			if err != nil {
				g.logger.Warn("Web search failed", "query", query, "error", err)
				webFailed = true
				return
			}
			snippets = results

			// Digest the top result while still inside the web budget.
			if g.digester != nil && len(results) > 0 {
				d, err := g.digester.Digest(webCtx, results[0].SourceURL)
				if err != nil {
					g.logger.Debug("Page digest failed",
						"url", results[0].SourceURL, "error", err)
					return
				}
				digest = d
			}
		}()
	}

	if gl.NeedsWeather && g.weather != nil && g.weather.Enabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()

			wxCtx, cancel := context.WithTimeout(ctx, g.weatherTimeout)
			defer cancel()

			f, err := g.weather.Forecast(wxCtx, gl.Location, gl.Duration)
			if err != nil {
				g.logger.Warn("Weather lookup failed",
					"location", gl.Location, "error", err)
				wxFailed = true
				return
			}
			forecast = f
		}()
	}

	// Join barrier: the bundle is finalized only after every requested
	// sub-fetch has completed or timed out.
	wg.Wait()

	return Bundle{
		Snippets:   snippets,
		Weather:    forecast,
		PageDigest: digest,
		GatheredAt: time.Now(),
		Partial:    webFailed || wxFailed,
	}
}

// buildQuery composes the search query from the goal's topic, location,
// and constraint tags.
func buildQuery(gl goal.Goal) string {
	parts := []string{gl.Topic}
	if gl.Location != "" && !strings.Contains(strings.ToLower(gl.Topic), strings.ToLower(gl.Location)) {
		parts = append(parts, gl.Location)
	}
	if len(gl.Constraints) > 0 {
		parts = append(parts, strings.Join(gl.Constraints, " "))
	}
	return strings.Join(parts, " ")
}
