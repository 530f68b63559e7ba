package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wayplan/wayplan/enrich"
	"github.com/wayplan/wayplan/goal"
	"github.com/wayplan/wayplan/llm"
)

// Completer is the slice of the LLM client the synthesizer needs.
// *llm.Client satisfies it; tests substitute deterministic stubs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Synthesizer turns (goal, bundle) into a validated Plan through one
// provider call. Adapter errors pass through unmodified; unusable text is
// reported as ErrUnparseable.
type Synthesizer struct {
	client      Completer
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithGeneration sets temperature and max tokens for provider calls.
func WithGeneration(temperature float64, maxTokens int) SynthesizerOption {
	return func(s *Synthesizer) {
		s.temperature = temperature
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
	}
}

// WithCallTimeout bounds each provider call.
func WithCallTimeout(d time.Duration) SynthesizerOption {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSynthLogger sets the logger.
func WithSynthLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// NewSynthesizer creates a synthesizer over the given completion client.
func NewSynthesizer(client Completer, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		client:      client,
		temperature: 0.7,
		maxTokens:   2000,
		timeout:     2 * time.Minute,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Synthesize builds the prompt, calls the provider, and parses the response
// into a validated Plan. The returned plan carries no ID; persistence
// assigns one.
func (s *Synthesizer) Synthesize(ctx context.Context, provider string, gl goal.Goal, bundle enrich.Bundle) (*Plan, error) {
	temp := s.temperature

	resp, err := s.client.Complete(ctx, llm.Request{
		Provider: provider,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(gl, bundle)},
		},
		Temperature: &temp,
		MaxTokens:   s.maxTokens,
		Timeout:     s.timeout,
	})
	if err != nil {
		// Pass the adapter's classification through unmodified.
		return nil, err
	}

	units, err := ParseUnits(resp.Content)
	if err != nil {
		s.logger.Warn("Model output unusable",
			"provider", provider,
			"chars", len(resp.Content))
		return nil, fmt.Errorf("%w: %d chars of output", ErrUnparseable, len(resp.Content))
	}

	p := &Plan{
		Goal:           gl,
		Units:          units,
		ProviderUsed:   provider,
		CreatedAt:      time.Now(),
		EnrichmentUsed: !bundle.Empty(),
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	return p, nil
}
