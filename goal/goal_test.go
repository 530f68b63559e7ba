package goal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayplan/wayplan/goal"
)

func TestInterpret_TripGoal(t *testing.T) {
	g, err := goal.Interpret("Plan a 3-day vegetarian food tour in Rome")
	require.NoError(t, err)

	assert.Equal(t, 3, g.Duration)
	assert.Equal(t, goal.UnitDay, g.Unit)
	assert.Equal(t, "Rome", g.Location)
	assert.Equal(t, "vegetarian food tour in Rome", g.Topic)
	assert.Equal(t, []string{"food", "vegetarian"}, g.Constraints)
	assert.True(t, g.NeedsWeb)
	assert.True(t, g.NeedsWeather)
}

func TestInterpret_StepGoal(t *testing.T) {
	g, err := goal.Interpret("5 steps to learn Go")
	require.NoError(t, err)

	assert.Equal(t, 5, g.Duration)
	assert.Equal(t, goal.UnitStep, g.Unit)
	assert.Empty(t, g.Location)
	assert.False(t, g.NeedsWeather, "weather is meaningless for step routines")
	assert.False(t, g.NeedsWeb)
}

func TestInterpret_SessionGoal(t *testing.T) {
	g, err := goal.Interpret("Create 4 sessions of guitar practice")
	require.NoError(t, err)

	assert.Equal(t, 4, g.Duration)
	assert.Equal(t, goal.UnitSession, g.Unit)
}

func TestInterpret_DurationCues(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		duration int
		unit     goal.UnitKind
	}{
		{"default single day", "visit museums", 1, goal.UnitDay},
		{"hyphenated", "2-day trip to Goa", 2, goal.UnitDay},
		{"spelled out days", "plan 4 days in Lisbon", 4, goal.UnitDay},
		{"weeks convert to days", "prepare a 2 week study plan", 14, goal.UnitDay},
		{"weekend means two days", "a weekend in Paris", 2, goal.UnitDay},
		{"a week means seven days", "spend a week exploring Tokyo", 7, goal.UnitDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := goal.Interpret(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.duration, g.Duration)
			assert.Equal(t, tt.unit, g.Unit)
		})
	}
}

func TestInterpret_Location(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"3-day trip to Hyderabad", "Hyderabad"},
		{"weekend in New York City", "New York City"},
		{"hiking at Lake Tahoe", "Lake Tahoe"},
		{"learn to juggle in ten days", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			g, err := goal.Interpret(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Location)
		})
	}
}

func TestInterpret_Constraints(t *testing.T) {
	g, err := goal.Interpret("budget-friendly museum and street food tour in Delhi with kids")
	require.NoError(t, err)

	// Sorted and deduplicated.
	assert.Equal(t, []string{"budget", "culture", "family", "food"}, g.Constraints)
}

func TestInterpret_EnrichmentDecisions(t *testing.T) {
	// Location alone requests web facts.
	g, err := goal.Interpret("spend 2 days in Kyoto")
	require.NoError(t, err)
	assert.True(t, g.NeedsWeb)
	assert.True(t, g.NeedsWeather)

	// Activity words request web facts without a location.
	g, err = goal.Interpret("plan a food festival visit")
	require.NoError(t, err)
	assert.True(t, g.NeedsWeb)
	assert.False(t, g.NeedsWeather)

	// Abstract goals need neither.
	g, err = goal.Interpret("organize my study notes")
	require.NoError(t, err)
	assert.False(t, g.NeedsWeb)
	assert.False(t, g.NeedsWeather)
}

func TestInterpret_InvalidGoal(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t", "plan a", "Please make me a"} {
		t.Run("invalid: "+text, func(t *testing.T) {
			_, err := goal.Interpret(text)
			assert.ErrorIs(t, err, goal.ErrInvalidGoal)
		})
	}
}

func TestInterpret_KeepsRawText(t *testing.T) {
	raw := "  Plan a 3-day trip to Jaipur  "
	g, err := goal.Interpret(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, g.RawText)
	assert.Equal(t, "trip to Jaipur", g.Topic)
}
