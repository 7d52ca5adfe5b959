package recurrence

import (
	"strconv"
	"strings"

	"chorecal/internal/dates"
)

// Describe returns a one-line summary of rule, e.g. "Weekly: Mon, Wed" or
// "Monthly on the 22nd". Unknown and nil rules describe as "".
func Describe(rule Rule) string {
	switch r := rule.(type) {
	case Once:
		return "Once on " + r.Date.String()
	case Daily:
		return "Every day"
	case Weekly:
		if r.Days.Len() == 0 {
			return "Weekly: (no days)"
		}
		names := make([]string, 0, r.Days.Len())
		for _, d := range r.Days.Days() {
			names = append(names, dates.DayNames[d])
		}
		return "Weekly: " + strings.Join(names, ", ")
	case Monthly:
		return "Monthly on the " + Ordinal(r.DayOfMonth)
	default:
		return ""
	}
}

// Ordinal renders n with its English suffix (1st, 2nd, 3rd, 11th, 21st).
// Zero renders as "?".
func Ordinal(n int) string {
	if n == 0 {
		return "?"
	}
	suffix := "th"
	switch v := n % 100; {
	case v >= 11 && v <= 13:
	case v%10 == 1:
		suffix = "st"
	case v%10 == 2:
		suffix = "nd"
	case v%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
