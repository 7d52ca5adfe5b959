// Package recurrence enumerates the calendar dates on which a recurring
// chore is due and renders rules as short human-readable labels.
//
// A Rule is one of Once, Daily, Weekly, Monthly or Unknown. All functions in
// this package are pure and safe for concurrent use.
package recurrence

import (
	"math/bits"
	"time"

	"github.com/samber/mo"
	"go.trai.ch/zerr"

	"chorecal/internal/dates"
)

var (
	// ErrInvalidWeekday is returned when a weekly rule names a day outside 0..6.
	ErrInvalidWeekday = zerr.New("weekday must be between 0 (Sunday) and 6 (Saturday)")

	// ErrInvalidDayOfMonth is returned when a monthly rule's day is outside 0..31.
	// Zero means no day was chosen yet.
	ErrInvalidDayOfMonth = zerr.New("day of month must be between 0 and 31")
)

// Kind is the discriminant of a Rule as it appears in stored data.
type Kind string

const (
	KindOnce    Kind = "once"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Rule describes when a chore recurs. The set of implementations is closed.
type Rule interface {
	Kind() Kind
	matches(d dates.Date) bool
}

// Scheduled is anything that carries a recurrence rule.
type Scheduled interface {
	Rule() Rule
}

// Bounds limits a repeating rule to [Start, End]. A missing Start resolves
// to the start of the queried range and a missing End to its end, so an
// open-ended rule repeats forever.
type Bounds struct {
	Start mo.Option[dates.Date]
	End   mo.Option[dates.Date]
}

// Starting returns Bounds that begin on start and never end.
func Starting(start dates.Date) Bounds {
	return Bounds{Start: mo.Some(start), End: mo.None[dates.Date]()}
}

// Until returns a copy of b ending on end (inclusive).
func (b Bounds) Until(end dates.Date) Bounds {
	b.End = mo.Some(end)
	return b
}

// Window intersects b with [rangeStart, rangeEnd]. ok is false when the
// intersection is empty, including when End is before Start.
func (b Bounds) Window(rangeStart, rangeEnd dates.Date) (start, end dates.Date, ok bool) {
	start = b.Start.OrElse(rangeStart)
	end = b.End.OrElse(rangeEnd)

	if start.Before(rangeStart) {
		start = rangeStart
	}
	if end.After(rangeEnd) {
		end = rangeEnd
	}
	return start, end, !start.After(end)
}

// Once is due on a single date.
type Once struct {
	Date dates.Date
}

// NewOnce builds a rule that occurs on d only.
func NewOnce(d dates.Date) Once { return Once{Date: d} }

func (Once) Kind() Kind                  { return KindOnce }
func (r Once) matches(d dates.Date) bool { return d == r.Date }

// Daily is due every day within its bounds.
type Daily struct {
	Bounds
}

// NewDaily builds a rule that occurs every day within b.
func NewDaily(b Bounds) Daily { return Daily{Bounds: b} }

func (Daily) Kind() Kind              { return KindDaily }
func (Daily) matches(dates.Date) bool { return true }

// Weekly is due on the listed weekdays within its bounds.
type Weekly struct {
	Days WeekdaySet
	Bounds
}

// NewWeekly builds a weekly rule. An empty day list is allowed and never matches.
func NewWeekly(b Bounds, days ...time.Weekday) (Weekly, error) {
	set, err := NewWeekdaySet(days...)
	if err != nil {
		return Weekly{}, err
	}
	return Weekly{Days: set, Bounds: b}, nil
}

func (Weekly) Kind() Kind                  { return KindWeekly }
func (r Weekly) matches(d dates.Date) bool { return r.Days.Has(d.Weekday()) }

// Monthly is due on a fixed day number of every month within its bounds.
// Months shorter than DayOfMonth are skipped. A zero DayOfMonth means the
// day was never chosen; such a rule never matches.
type Monthly struct {
	DayOfMonth int
	Bounds
}

// NewMonthly builds a monthly rule. Day 0 is allowed and never matches;
// months shorter than dayOfMonth are skipped.
func NewMonthly(b Bounds, dayOfMonth int) (Monthly, error) {
	if dayOfMonth < 0 || dayOfMonth > 31 {
		return Monthly{}, zerr.With(zerr.Wrap(ErrInvalidDayOfMonth, "monthly rule"), "day_of_month", dayOfMonth)
	}
	return Monthly{DayOfMonth: dayOfMonth, Bounds: b}, nil
}

func (Monthly) Kind() Kind                  { return KindMonthly }
func (r Monthly) matches(d dates.Date) bool { return r.DayOfMonth != 0 && d.Day == r.DayOfMonth }

// Unknown is a rule whose type this version does not understand. It never
// matches and has an empty label.
type Unknown struct {
	Type string
}

func (r Unknown) Kind() Kind            { return Kind(r.Type) }
func (Unknown) matches(dates.Date) bool { return false }

// WeekdaySet is a set of weekdays, bit i set for time.Weekday(i).
type WeekdaySet uint8

// NewWeekdaySet collects days into a set. Duplicates collapse.
func NewWeekdaySet(days ...time.Weekday) (WeekdaySet, error) {
	var s WeekdaySet
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return 0, zerr.With(zerr.Wrap(ErrInvalidWeekday, "weekly rule"), "weekday", int(d))
		}
		s |= 1 << uint(d)
	}
	return s, nil
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Len() int { return bits.OnesCount8(uint8(s)) }

// Days returns the members in ascending order, Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, s.Len())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}
