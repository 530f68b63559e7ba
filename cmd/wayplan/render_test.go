package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayplan/wayplan/goal"
	"github.com/wayplan/wayplan/plan"
)

func TestRenderPlan(t *testing.T) {
	p, err := plan.GenerateFallback(goal.Goal{
		Topic:       "trip to Goa",
		Duration:    2,
		Unit:        goal.UnitDay,
		Location:    "Goa",
		Constraints: []string{"beach", "budget"},
	})
	require.NoError(t, err)
	p.ID = "0d4f7a52-1111-2222-3333-444455556666"

	var sb strings.Builder
	renderPlan(&sb, p)
	out := sb.String()

	assert.Contains(t, out, "trip to Goa")
	assert.Contains(t, out, "Location: Goa")
	assert.Contains(t, out, "Constraints: beach, budget")
	assert.Contains(t, out, "Provider: offline-fallback")
	assert.Contains(t, out, "Day 1: Getting started with trip to Goa")
	assert.Contains(t, out, "[Morning]")
	assert.Contains(t, out, "Saved as 0d4f7a52")
	assert.NotContains(t, out, "(enriched)")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0d4f7a52", shortID("0d4f7a52-1111-2222-3333-444455556666"))
	assert.Equal(t, "abc", shortID("abc"))
}
