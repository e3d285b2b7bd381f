package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tendertracker/internal/domain"
)

// Layouts tried when parsing closing-date text. Order inside a family matters:
// the first layout that parses wins.
var (
	isoLayouts   = []string{"2006-01-02", "2006-01-02T15:04:05", "2006/01/02"}
	slashLayouts = []string{"02/01/2006", "02-01-2006", "02/01/2006 15:04"}
	longLayouts  = []string{"2 January 2006", "02 January 2006", "2 Jan 2006"}

	fragmentExpr = regexp.MustCompile(`(?i)closing:?\s*(\d{1,2})\s+([A-Za-z]{3,9})\b`)
)

// DateNormalizer parses heterogeneous closing-date text against a single
// reference instant so every record in one run shares the same "today".
type DateNormalizer struct {
	today time.Time
	grace time.Duration
}

// New builds a normalizer anchored at now, truncated to midnight UTC.
// graceDays bounds the year-rollover rule for fragment dates.
func New(now time.Time, graceDays int) *DateNormalizer {
	return &DateNormalizer{
		today: now.UTC().Truncate(24 * time.Hour),
		grace: time.Duration(graceDays) * 24 * time.Hour,
	}
}

// Today returns the shared reference date for the run.
func (n *DateNormalizer) Today() time.Time {
	return n.today
}

// Normalize parses raw closing-date text into a calendar date. The source hint
// selects which format family is tried first; every family is attempted as
// fallback so a misrouted input still parses. A nil date with a non-nil error
// signals total parse failure, which callers treat as a per-record soft
// failure.
func (n *DateNormalizer) Normalize(raw string, source domain.Source) (*time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("empty closing date")
	}

	for _, family := range familiesFor(source) {
		if parsed, ok := n.tryFamily(family, text); ok {
			return parsed, nil
		}
	}

	return nil, fmt.Errorf("unparseable closing date %q", raw)
}

type formatFamily int

const (
	familyISO formatFamily = iota
	familySlash
	familyLong
	familyFragment
)

// familiesFor orders format families by how the portal usually writes dates.
func familiesFor(source domain.Source) []formatFamily {
	switch source {
	case domain.SourceAPI:
		return []formatFamily{familyISO, familySlash, familyLong, familyFragment}
	case domain.SourceHTML:
		return []formatFamily{familyFragment, familyLong, familySlash, familyISO}
	case domain.SourceBrowser:
		return []formatFamily{familySlash, familyLong, familyISO, familyFragment}
	default:
		return []formatFamily{familyISO, familySlash, familyLong, familyFragment}
	}
}

func (n *DateNormalizer) tryFamily(family formatFamily, text string) (*time.Time, bool) {
	clean := strings.TrimSpace(strings.TrimPrefix(text, "Closing:"))

	var layouts []string
	switch family {
	case familyISO:
		layouts = isoLayouts
	case familySlash:
		layouts = slashLayouts
	case familyLong:
		layouts = longLayouts
	case familyFragment:
		return n.parseFragment(text)
	}

	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, clean, time.UTC); err == nil {
			day := parsed.Truncate(24 * time.Hour)
			return &day, true
		}
	}
	return nil, false
}

// parseFragment handles the "Closing 18 Mar" form where the year is implied.
// The current year is assumed; if that lands further in the past than the
// grace window the date rolls to next year.
func (n *DateNormalizer) parseFragment(text string) (*time.Time, bool) {
	match := fragmentExpr.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}

	candidate := fmt.Sprintf("%s %s %d", match[1], match[2], n.today.Year())
	parsed, err := time.ParseInLocation("2 Jan 2006", candidate, time.UTC)
	if err != nil {
		parsed, err = time.ParseInLocation("2 January 2006", candidate, time.UTC)
		if err != nil {
			return nil, false
		}
	}

	if n.today.Sub(parsed) > n.grace {
		parsed = parsed.AddDate(1, 0, 0)
	}

	day := parsed.Truncate(24 * time.Hour)
	return &day, true
}

// DaysRemaining computes whole days from the run's reference date to closing,
// rounding partial days up. Negative values signal an expired tender; display
// clamping is a sink concern.
func (n *DateNormalizer) DaysRemaining(closing time.Time) int {
	diff := closing.Truncate(24 * time.Hour).Sub(n.today)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}
