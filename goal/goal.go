// Package goal extracts structured planning intent from free-form goal text.
// Interpretation is heuristic and best-effort: it only fails when the text is
// empty or carries no extractable topic, which is the single hard-stop
// condition before any external call is made.
package goal

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// UnitKind is the kind of planning unit a goal breaks into.
type UnitKind string

const (
	// UnitDay is a calendar day (trips, tours).
	UnitDay UnitKind = "day"

	// UnitStep is an ordered step in an abstract routine.
	UnitStep UnitKind = "step"

	// UnitSession is a recurring practice session.
	UnitSession UnitKind = "session"
)

// Goal is the structured intent extracted from raw goal text.
// It is immutable once produced.
type Goal struct {
	// RawText is the original goal text.
	RawText string

	// Topic is the inferred subject of the plan.
	Topic string

	// Duration is the number of units, at least 1.
	Duration int

	// Unit is the kind of unit the duration counts.
	Unit UnitKind

	// Location is the concrete place mentioned in the goal, if any.
	Location string

	// Constraints are free-form tags extracted from qualifying phrases.
	Constraints []string

	// NeedsWeb marks that current web facts would improve the plan.
	NeedsWeb bool

	// NeedsWeather marks that a forecast is relevant (concrete location,
	// day-based plan).
	NeedsWeather bool
}

// ErrInvalidGoal is returned when the text is empty or has no extractable topic.
var ErrInvalidGoal = errors.New("goal text is empty or has no extractable topic")

// Pre-compiled patterns for duration and location cues.
var (
	// durationPattern matches "3-day", "3 days", "5 step", "2 sessions", "1 week".
	durationPattern = regexp.MustCompile(`(?i)\b(\d+)[-\s]*(day|days|step|steps|session|sessions|week|weeks)\b`)

	// locationPattern matches a capitalized place name after in/to/at.
	locationPattern = regexp.MustCompile(`\b(?:in|to|at)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){0,2})`)

	// wordPattern splits text into bare words for topic extraction.
	wordPattern = regexp.MustCompile(`[A-Za-z0-9']+`)
)

// leadingFiller are verbs and articles stripped from the front of the goal
// when inferring the topic.
var leadingFiller = map[string]bool{
	"plan": true, "organize": true, "organise": true, "create": true,
	"make": true, "build": true, "prepare": true, "design": true,
	"schedule": true, "arrange": true,
	"a": true, "an": true, "the": true, "me": true, "my": true, "for": true,
	"please": true,
}

// constraintTags maps keyword cues to constraint tags. Matching is
// best-effort, never required to be exhaustive.
var constraintTags = map[string][]string{
	"vegetarian":  {"vegetarian", "veg"},
	"vegan":       {"vegan"},
	"gluten-free": {"gluten-free", "gluten free"},
	"budget":      {"budget", "cheap", "affordable", "low-cost"},
	"luxury":      {"luxury", "upscale", "premium"},
	"family":      {"family", "kids", "children"},
	"food":        {"food", "cuisine", "restaurant", "restaurants", "seafood", "street food", "dining"},
	"culture":     {"cultural", "culture", "museum", "museums", "heritage", "history", "historical"},
	"outdoors":    {"hiking", "hike", "beach", "beaches", "trek", "trekking", "nature", "outdoor"},
	"nightlife":   {"nightlife", "bars", "clubs"},
}

// activityWords imply a need for current web facts even without a location.
var activityWords = []string{
	"trip", "tour", "visit", "travel", "itinerary", "attractions",
	"food", "restaurant", "hiking", "beach", "museum", "festival",
	"shopping", "sightseeing",
}

// Interpret parses free-form goal text into a Goal.
// Duration defaults to 1 unit of kind day when no cue is present.
func Interpret(raw string) (Goal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Goal{}, ErrInvalidGoal
	}

	g := Goal{
		RawText:  raw,
		Duration: 1,
		Unit:     UnitDay,
	}

	lower := strings.ToLower(trimmed)

	// Duration and unit cues.
	if m := durationPattern.FindStringSubmatch(trimmed); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			unitWord := strings.ToLower(m[2])
			switch {
			case strings.HasPrefix(unitWord, "step"):
				g.Unit = UnitStep
				g.Duration = n
			case strings.HasPrefix(unitWord, "session"):
				g.Unit = UnitSession
				g.Duration = n
			case strings.HasPrefix(unitWord, "week"):
				g.Unit = UnitDay
				g.Duration = n * 7
			default:
				g.Unit = UnitDay
				g.Duration = n
			}
		}
	} else if strings.Contains(lower, "weekend") {
		g.Duration = 2
	} else if strings.Contains(lower, "a week") {
		g.Duration = 7
	}

	// Location.
	if m := locationPattern.FindStringSubmatch(trimmed); m != nil {
		g.Location = m[1]
	}

	g.Topic = extractTopic(trimmed)
	if g.Topic == "" {
		return Goal{}, ErrInvalidGoal
	}

	g.Constraints = extractConstraints(lower)

	// Weather is meaningless for abstract step-based routines.
	g.NeedsWeather = g.Location != "" && g.Unit == UnitDay
	g.NeedsWeb = g.Location != "" || mentionsActivity(lower)

	return g, nil
}

// extractTopic strips leading planning verbs, filler words, and the duration
// phrase, keeping the remainder as the topic.
func extractTopic(text string) string {
	// Remove the duration phrase so "3-day trip to Jaipur" becomes "trip to Jaipur".
	cleaned := durationPattern.ReplaceAllString(text, "")

	words := wordPattern.FindAllString(cleaned, -1)

	// Strip filler only from the front; once a content word appears the
	// rest of the text is topic material.
	start := 0
	for start < len(words) && leadingFiller[strings.ToLower(words[start])] {
		start++
	}

	if start >= len(words) {
		return ""
	}

	return strings.Join(words[start:], " ")
}

// extractConstraints collects constraint tags whose cue words appear in the
// lowercased goal text. Tags are deduplicated and sorted for determinism.
func extractConstraints(lower string) []string {
	seen := make(map[string]bool)
	for tag, cues := range constraintTags {
		for _, cue := range cues {
			if containsWord(lower, cue) {
				seen[tag] = true
				break
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// mentionsActivity reports whether the text names an activity that benefits
// from current facts.
func mentionsActivity(lower string) bool {
	for _, w := range activityWords {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// containsWord checks for cue as a whole word (or phrase) in text.
func containsWord(text, cue string) bool {
	idx := strings.Index(text, cue)
	for idx >= 0 {
		before := idx == 0 || !isWordChar(text[idx-1])
		afterIdx := idx + len(cue)
		after := afterIdx >= len(text) || !isWordChar(text[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], cue)
		if next < 0 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
