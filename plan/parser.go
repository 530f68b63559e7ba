package plan

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnparseable is returned when model text yields zero plan units: the
// text was received but unusable, which is distinct from a provider error.
var ErrUnparseable = errors.New("no plan units could be parsed from model output")

// Pre-compiled patterns for line classification.
var (
	// unitHeaderPattern matches unit headings after markdown decoration is
	// stripped: "Day 1: Old City", "Step 3 - Practice", "Session 2".
	unitHeaderPattern = regexp.MustCompile(`(?i)^(?:day|step|session|phase|part|week)\s*#?\s*(\d+)\b\s*[:\-–—.]?\s*(.*)$`)

	// numberedPattern matches numbered list lines ("1. ..." / "2) ...").
	numberedPattern = regexp.MustCompile(`^(\d{1,3})[.)]\s+(.*)$`)

	// bulletPattern matches bullet list items.
	bulletPattern = regexp.MustCompile(`^[-*•+]\s+(.*)$`)

	// timeHintPattern splits an optional leading time marker from item text:
	// "9:00 AM - Breakfast", "14:30: Museum", "Morning - Walk the fort".
	timeHintPattern = regexp.MustCompile(`(?i)^((?:[01]?\d|2[0-3]):[0-5]\d\s*(?:[ap]m)?|[1-9][0-2]?\s*[ap]m|morning|afternoon|evening|noon|night)\s*[:\-–—]\s+(.+)$`)

	// decorationPattern strips markdown heading/bold/emphasis markers.
	decorationPattern = regexp.MustCompile(`^[#>\s]+|[*_]{1,3}`)
)

// ParseUnits parses model output into plan units using a tolerant line
// classifier. The expected shape is a sequence of unit headings ("Day 1: ...")
// or a top-level numbered list of units, each containing sub-items with
// optional leading time markers. Lines that match no expected shape are
// attached as bare items under the nearest preceding unit rather than
// discarded, to tolerate model formatting drift. Text before the first unit
// is dropped.
func ParseUnits(text string) ([]Unit, error) {
	var units []Unit

	// hasText marks units whose heading carried descriptive text beyond
	// the bare "Day N"; such units survive with an empty item list.
	var hasText []bool

	// Once a keyword heading ("Day 1") is seen, numbered lines are items.
	// Without keyword headings, top-level numbered lines are the units.
	sawKeywordHeader := false

	for _, rawLine := range strings.Split(text, "\n") {
		indented := len(rawLine) > 0 && (rawLine[0] == ' ' || rawLine[0] == '\t')

		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		// Bullets are always items; matched on the raw line so a leading
		// "*" bullet is not confused with bold decoration.
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			if len(units) > 0 {
				addItem(&units[len(units)-1], stripDecoration(m[1]))
			}
			continue
		}

		cleaned := stripDecoration(line)
		if cleaned == "" {
			continue
		}

		if m := unitHeaderPattern.FindStringSubmatch(cleaned); m != nil {
			sawKeywordHeader = true
			units = append(units, Unit{Label: cleaned})
			hasText = append(hasText, strings.TrimSpace(m[2]) != "")
			continue
		}

		if m := numberedPattern.FindStringSubmatch(cleaned); m != nil {
			if !sawKeywordHeader && !indented {
				// Top-level numbered list: each entry is a unit.
				units = append(units, Unit{Label: m[2]})
				hasText = append(hasText, strings.TrimSpace(m[2]) != "")
			} else if len(units) > 0 {
				addItem(&units[len(units)-1], m[2])
			}
			continue
		}

		if len(units) == 0 {
			// Preamble before the first unit.
			continue
		}

		// Recovery: unmatched line becomes a bare item on the nearest unit.
		units[len(units)-1].Items = append(units[len(units)-1].Items, Item{Description: cleaned})
	}

	// Drop bare headings that collected nothing ("Day 2" with no text and
	// no items); a heading with its own descriptive text stands alone.
	kept := units[:0]
	for i, u := range units {
		if len(u.Items) > 0 || hasText[i] {
			kept = append(kept, u)
		}
	}
	units = kept

	if len(units) == 0 {
		return nil, ErrUnparseable
	}

	// Renumber so indices are exactly 1..N regardless of what the model wrote.
	for i := range units {
		units[i].Index = i + 1
	}

	return units, nil
}

// addItem appends an item, splitting off a leading time marker.
func addItem(u *Unit, text string) {
	u.Items = append(u.Items, splitTimeHint(text))
}

// stripDecoration removes markdown markers and surrounding whitespace.
func stripDecoration(line string) string {
	line = decorationPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// splitTimeHint extracts a leading time marker into the item's TimeHint.
func splitTimeHint(text string) Item {
	text = strings.TrimSpace(text)
	if m := timeHintPattern.FindStringSubmatch(text); m != nil {
		return Item{
			TimeHint:    strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		}
	}
	return Item{Description: text}
}
