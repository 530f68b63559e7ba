// Package pipeline orchestrates a planning request: interpret the goal,
// gather best-effort enrichment, synthesize through a provider, and apply
// retry-then-fallback policy so every accepted goal yields a structurally
// valid plan.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wayplan/wayplan/enrich"
	"github.com/wayplan/wayplan/goal"
	"github.com/wayplan/wayplan/llm"
	"github.com/wayplan/wayplan/plan"
)

// State names a stage of one pipeline invocation. Terminal states are
// StateCompleted, StateFallenBack (both successes) and StateRejected.
type State string

const (
	StateStart        State = "start"
	StateInterpreted  State = "interpreted"
	StateGathered     State = "gathered"
	StateSynthesizing State = "synthesizing"
	StateRetrying     State = "retrying_synthesis"
	StateCompleted    State = "completed"
	StateFallenBack   State = "fallen_back"
	StateRejected     State = "rejected"
)

// Gatherer is the enrichment collaborator. It never hard-fails.
type Gatherer interface {
	Gather(ctx context.Context, gl goal.Goal) enrich.Bundle
}

// Synthesizer is the plan synthesis collaborator.
type Synthesizer interface {
	Synthesize(ctx context.Context, provider string, gl goal.Goal, bundle enrich.Bundle) (*plan.Plan, error)
}

// Pipeline sequences interpret → gather → synthesize with retry and
// offline fallback. Invocations are independent and share only read-only
// configuration.
type Pipeline struct {
	gatherer        Gatherer
	synth           Synthesizer
	defaultProvider string
	retryBackoff    time.Duration
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDefaultProvider sets the provider used when the caller has no
// preference.
func WithDefaultProvider(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.defaultProvider = name
		}
	}
}

// WithRetryBackoff sets the fixed pause before the single synthesis retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.retryBackoff = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a pipeline over the given collaborators.
func New(gatherer Gatherer, synth Synthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		gatherer:        gatherer,
		synth:           synth,
		defaultProvider: "ollama",
		retryBackoff:    2 * time.Second,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Plan runs one planning request. It returns a valid Plan (possibly from
// the offline fallback) or a typed Error; it never returns a partially
// built plan. Cancelling ctx aborts in-flight network calls.
func (p *Pipeline) Plan(ctx context.Context, rawText, preferredProvider string) (*plan.Plan, error) {
	started := time.Now()
	defer func() {
		planDuration.Observe(time.Since(started).Seconds())
	}()

	gl, err := goal.Interpret(rawText)
	if err != nil {
		// The single hard-stop before any external call.
		plansTotal.WithLabelValues(string(StateRejected)).Inc()
		p.logger.Info("Goal rejected", "error", err)
		return nil, NewError(KindInvalidGoal, err)
	}
	p.logger.Debug("Goal interpreted",
		"topic", gl.Topic,
		"duration", gl.Duration,
		"unit", gl.Unit,
		"location", gl.Location,
		"needs_web", gl.NeedsWeb,
		"needs_weather", gl.NeedsWeather)

	bundle := p.gatherer.Gather(ctx, gl)
	if bundle.Partial {
		partialBundlesTotal.Inc()
		p.logger.Info("Enrichment partial", "snippets", len(bundle.Snippets),
			"weather", bundle.Weather != nil)
	}

	provider := preferredProvider
	if provider == "" {
		provider = p.defaultProvider
	}

	result, err := p.synth.Synthesize(ctx, provider, gl, bundle)
	if err == nil {
		plansTotal.WithLabelValues(string(StateCompleted)).Inc()
		return result, nil
	}
	recordProviderError(provider, err)

	if p.shouldRetry(err) {
		p.logger.Warn("Synthesis failed, retrying once",
			"provider", provider, "backoff", p.retryBackoff, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.retryBackoff):
		}

		result, err = p.synth.Synthesize(ctx, provider, gl, bundle)
		if err == nil {
			plansTotal.WithLabelValues(string(StateCompleted)).Inc()
			return result, nil
		}
		recordProviderError(provider, err)
	}

	p.logger.Warn("Falling back to offline generator",
		"provider", provider, "error", err)

	result, fbErr := plan.GenerateFallback(gl)
	if fbErr != nil {
		// Should not occur for goals the interpreter accepted.
		plansTotal.WithLabelValues(string(StateRejected)).Inc()
		return nil, NewError(KindInternal, fbErr)
	}

	plansTotal.WithLabelValues(string(StateFallenBack)).Inc()
	return result, nil
}

// shouldRetry applies the retry policy: one retry for transient provider
// errors; auth failures, malformed responses, and unparseable output go
// straight to fallback since retrying cannot help.
func (p *Pipeline) shouldRetry(err error) bool {
	if errors.Is(err, plan.ErrUnparseable) {
		return false
	}
	if llm.IsProviderError(err) {
		return llm.Retryable(llm.KindOf(err))
	}
	// Unclassified synthesis errors get the single retry.
	return true
}

// recordProviderError counts a failed synthesis attempt by provider and
// error kind. Every attempt is counted, including the retry.
func recordProviderError(provider string, err error) {
	if llm.IsProviderError(err) {
		providerErrorsTotal.WithLabelValues(provider, string(llm.KindOf(err))).Inc()
	}
}
