package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayplan/wayplan/enrich"
	"github.com/wayplan/wayplan/goal"
	"github.com/wayplan/wayplan/llm"
	"github.com/wayplan/wayplan/pipeline"
	"github.com/wayplan/wayplan/plan"
)

type stubGatherer struct {
	bundle enrich.Bundle
	calls  int
}

func (s *stubGatherer) Gather(_ context.Context, _ goal.Goal) enrich.Bundle {
	s.calls++
	return s.bundle
}

// stubSynth returns its queued errors in order, then succeeds.
type stubSynth struct {
	errs  []error
	calls int

	gotProvider string
}

func (s *stubSynth) Synthesize(_ context.Context, provider string, gl goal.Goal, bundle enrich.Bundle) (*plan.Plan, error) {
	s.calls++
	s.gotProvider = provider

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	units := make([]plan.Unit, gl.Duration)
	for i := range units {
		units[i] = plan.Unit{Index: i + 1, Label: fmt.Sprintf("Day %d", i+1), Items: []plan.Item{{Description: "do things"}}}
	}
	return &plan.Plan{
		Goal:           gl,
		Units:          units,
		ProviderUsed:   provider,
		CreatedAt:      time.Now(),
		EnrichmentUsed: !bundle.Empty(),
	}, nil
}

func newPipeline(g *stubGatherer, s *stubSynth) *pipeline.Pipeline {
	return pipeline.New(g, s, pipeline.WithRetryBackoff(time.Millisecond))
}

func TestPlan_Success(t *testing.T) {
	gatherer := &stubGatherer{}
	synth := &stubSynth{}
	p := newPipeline(gatherer, synth)

	result, err := p.Plan(context.Background(), "Plan a 2-day trip to Hyderabad", "")
	require.NoError(t, err)

	require.NoError(t, result.Validate())
	assert.Len(t, result.Units, 2)
	assert.Equal(t, 1, gatherer.calls)
	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, "ollama", synth.gotProvider, "default provider applies when caller has no preference")
}

func TestPlan_PreferredProvider(t *testing.T) {
	synth := &stubSynth{}
	p := newPipeline(&stubGatherer{}, synth)

	_, err := p.Plan(context.Background(), "weekend in Goa", "anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", synth.gotProvider)
}

func TestPlan_InvalidGoalStopsEverything(t *testing.T) {
	gatherer := &stubGatherer{}
	synth := &stubSynth{}
	p := newPipeline(gatherer, synth)

	_, err := p.Plan(context.Background(), "   ", "")
	require.Error(t, err)

	assert.True(t, pipeline.IsInvalidGoal(err))
	assert.ErrorIs(t, err, goal.ErrInvalidGoal)
	assert.Equal(t, pipeline.KindInvalidGoal, pipeline.KindOf(err))
	assert.Equal(t, 0, gatherer.calls, "no external work before goal validation")
	assert.Equal(t, 0, synth.calls)
}

func TestPlan_RetriesTransientErrorOnce(t *testing.T) {
	synth := &stubSynth{errs: []error{
		llm.NewProviderError(llm.KindTimeout, "ollama", errors.New("deadline exceeded")),
		nil,
	}}
	p := newPipeline(&stubGatherer{}, synth)

	result, err := p.Plan(context.Background(), "Plan a 2-day trip to Hyderabad", "")
	require.NoError(t, err)

	assert.Equal(t, 2, synth.calls)
	assert.Equal(t, "ollama", result.ProviderUsed, "second attempt succeeded, no fallback")
}

func TestPlan_DoubleTimeoutFallsBack(t *testing.T) {
	timeout := llm.NewProviderError(llm.KindTimeout, "ollama", errors.New("deadline exceeded"))
	synth := &stubSynth{errs: []error{timeout, timeout}}
	p := newPipeline(&stubGatherer{}, synth)

	result, err := p.Plan(context.Background(), "Plan a 2-day trip to Hyderabad", "")
	require.NoError(t, err, "an accepted goal always yields a plan")

	assert.Equal(t, 2, synth.calls, "exactly one retry")
	assert.Equal(t, plan.FallbackProvider, result.ProviderUsed)
	require.NoError(t, result.Validate())
	assert.GreaterOrEqual(t, len(result.Units), 2)
	assert.False(t, result.EnrichmentUsed)
}

func TestPlan_AuthFailureSkipsRetry(t *testing.T) {
	synth := &stubSynth{errs: []error{
		llm.NewProviderError(llm.KindAuthFailure, "anthropic", errors.New("no API key configured")),
	}}
	p := newPipeline(&stubGatherer{}, synth)

	result, err := p.Plan(context.Background(), "weekend in Goa", "anthropic")
	require.NoError(t, err)

	assert.Equal(t, 1, synth.calls, "retrying cannot fix a missing credential")
	assert.Equal(t, plan.FallbackProvider, result.ProviderUsed)
}

func TestPlan_MalformedResponseSkipsRetry(t *testing.T) {
	synth := &stubSynth{errs: []error{
		llm.NewProviderError(llm.KindMalformedResponse, "ollama", errors.New("no choices in response")),
	}}
	p := newPipeline(&stubGatherer{}, synth)

	result, err := p.Plan(context.Background(), "weekend in Goa", "")
	require.NoError(t, err)

	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, plan.FallbackProvider, result.ProviderUsed)
}

func TestPlan_UnparseableOutputSkipsRetry(t *testing.T) {
	synth := &stubSynth{errs: []error{
		fmt.Errorf("%w: 42 chars of output", plan.ErrUnparseable),
	}}
	p := newPipeline(&stubGatherer{}, synth)

	result, err := p.Plan(context.Background(), "weekend in Goa", "")
	require.NoError(t, err)

	assert.Equal(t, 1, synth.calls, "a second identical prompt would fail the same way")
	assert.Equal(t, plan.FallbackProvider, result.ProviderUsed)
}

func TestPlan_RateLimitRetriesThenFallsBack(t *testing.T) {
	limited := llm.NewProviderError(llm.KindRateLimited, "openai", errors.New("429"))
	synth := &stubSynth{errs: []error{limited, limited}}
	p := newPipeline(&stubGatherer{}, synth)

	result, err := p.Plan(context.Background(), "3 sessions of guitar practice", "openai")
	require.NoError(t, err)

	assert.Equal(t, 2, synth.calls)
	assert.Equal(t, plan.FallbackProvider, result.ProviderUsed)
	assert.Len(t, result.Units, 3)
}

func TestPlan_Idempotent(t *testing.T) {
	synth := &stubSynth{}
	p := newPipeline(&stubGatherer{}, synth)

	a, err := p.Plan(context.Background(), "Plan a 2-day trip to Hyderabad", "")
	require.NoError(t, err)
	b, err := p.Plan(context.Background(), "Plan a 2-day trip to Hyderabad", "")
	require.NoError(t, err)

	assert.Equal(t, a.Units, b.Units)
	assert.Equal(t, a.Goal, b.Goal)
}

func TestPlan_CancelledDuringBackoff(t *testing.T) {
	timeout := llm.NewProviderError(llm.KindTimeout, "ollama", errors.New("deadline exceeded"))
	synth := &stubSynth{errs: []error{timeout, timeout}}
	p := pipeline.New(&stubGatherer{}, synth, pipeline.WithRetryBackoff(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Plan(ctx, "weekend in Goa", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, synth.calls, "cancellation aborts the backoff wait")
}
