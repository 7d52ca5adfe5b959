package recurrence

import (
	"chorecal/internal/dates"
)

// Occurrences returns every date in [rangeStart, rangeEnd] (inclusive) on
// which rule is due, in ascending order without duplicates.
//
// Repeating rules are evaluated by scanning each day of the effective
// window; callers query bounded ranges (a month or a week), so there is no
// closed-form jump. A nil or Unknown rule yields nothing.
func Occurrences(rule Rule, rangeStart, rangeEnd dates.Date) []dates.Date {
	var b Bounds
	switch r := rule.(type) {
	case Once:
		if r.Date.Before(rangeStart) || r.Date.After(rangeEnd) {
			return nil
		}
		return []dates.Date{r.Date}
	case Daily:
		b = r.Bounds
	case Weekly:
		b = r.Bounds
	case Monthly:
		b = r.Bounds
	default:
		return nil
	}

	start, end, ok := b.Window(rangeStart, rangeEnd)
	if !ok {
		return nil
	}

	var out []dates.Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		if rule.matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// OccurrencesInRange is Occurrences formatted as YYYY-MM-DD strings. The
// result is never nil.
func OccurrencesInRange(rule Rule, rangeStart, rangeEnd dates.Date) []string {
	occ := Occurrences(rule, rangeStart, rangeEnd)
	out := make([]string, len(occ))
	for i, d := range occ {
		out[i] = d.String()
	}
	return out
}

// Matches reports whether rule is due on d, bounds included.
func Matches(rule Rule, d dates.Date) bool {
	return len(Occurrences(rule, d, d)) == 1
}
