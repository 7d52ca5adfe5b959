package recurrence

import (
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
	"go.trai.ch/zerr"

	"chorecal/internal/dates"
)

// ErrUnsupportedRRule is returned by FromRRule for RRULEs outside the
// daily/weekly/monthly subset this package models.
var ErrUnsupportedRRule = zerr.New("unsupported RRULE")

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ToROption maps a repeating rule onto RFC 5545 options. DTSTART is the
// first occurrence on or after the rule's start, or after anchor when the
// rule has none, since RFC 5545 counts DTSTART as an instance. ok is false
// for rules with no RRULE equivalent (Once, Unknown, a weekly rule without
// days, a monthly rule without a day) and for rules that never occur.
func ToROption(rule Rule, anchor dates.Date) (opt rrule.ROption, ok bool) {
	var b Bounds
	switch r := rule.(type) {
	case Daily:
		opt.Freq = rrule.DAILY
		b = r.Bounds
	case Weekly:
		if r.Days.Len() == 0 {
			return opt, false
		}
		opt.Freq = rrule.WEEKLY
		for _, d := range r.Days.Days() {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
		b = r.Bounds
	case Monthly:
		if r.DayOfMonth == 0 {
			return opt, false
		}
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{r.DayOfMonth}
		b = r.Bounds
	default:
		return opt, false
	}

	opt.Dtstart = b.Start.OrElse(anchor).Time(time.UTC)
	if end, has := b.End.Get(); has {
		opt.Until = end.Time(time.UTC)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return opt, false
	}
	first := r.After(opt.Dtstart, true)
	if first.IsZero() {
		return opt, false
	}
	opt.Dtstart = first
	return opt, true
}

// RRuleValue renders opt as an RRULE value for all-day events: UNTIL is a
// DATE to match a VALUE=DATE DTSTART.
func RRuleValue(opt rrule.ROption) string {
	s := opt.RRuleString()
	if opt.Until.IsZero() {
		return s
	}
	until := opt.Until.UTC()
	return strings.Replace(s,
		"UNTIL="+until.Format(rrule.DateTimeFormat),
		"UNTIL="+until.Format(rrule.DateFormat), 1)
}

// FromRRule parses an RRULE value (without the "RRULE:" prefix) anchored at
// dtstart. Only FREQ=DAILY|WEEKLY|MONTHLY with INTERVAL=1, plain BYDAY, a
// single BYMONTHDAY and an optional UNTIL are accepted.
func FromRRule(value string, dtstart dates.Date) (Rule, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrUnsupportedRRule, err.Error()), "rrule", value)
	}
	unsupported := func(reason string) error {
		return zerr.With(zerr.Wrap(ErrUnsupportedRRule, reason), "rrule", value)
	}

	if opt.Interval > 1 {
		return nil, unsupported("interval")
	}
	if opt.Count > 0 {
		return nil, unsupported("count")
	}
	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 || len(opt.Byeaster) > 0 ||
		len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		return nil, unsupported("by-rule part")
	}

	b := Starting(dtstart)
	if !opt.Until.IsZero() {
		b.End = mo.Some(dates.Of(opt.Until))
	}

	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 {
			return nil, unsupported("daily with by-rule")
		}
		return NewDaily(b), nil
	case rrule.WEEKLY:
		if len(opt.Bymonthday) > 0 {
			return nil, unsupported("weekly with BYMONTHDAY")
		}
		days := []time.Weekday{dtstart.Weekday()}
		if len(opt.Byweekday) > 0 {
			days = days[:0]
			for _, wd := range opt.Byweekday {
				if wd.N() != 0 {
					return nil, unsupported("nth weekday")
				}
				// rrule-go numbers Monday as 0.
				days = append(days, time.Weekday((wd.Day()+1)%7))
			}
		}
		w, err := NewWeekly(b, days...)
		if err != nil {
			return nil, err
		}
		return w, nil
	case rrule.MONTHLY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 1 {
			return nil, unsupported("monthly by weekday or multiple days")
		}
		day := dtstart.Day
		if len(opt.Bymonthday) == 1 {
			day = opt.Bymonthday[0]
		}
		if day < 1 {
			return nil, unsupported("negative BYMONTHDAY")
		}
		m, err := NewMonthly(b, day)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, unsupported("frequency")
	}
}

// ExpandRRule lists the dates of opt within [rangeStart, rangeEnd] using
// rrule-go. It is the RFC 5545 counterpart of Occurrences.
func ExpandRRule(opt rrule.ROption, rangeStart, rangeEnd dates.Date) ([]dates.Date, error) {
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, zerr.Wrap(err, "build rrule")
	}
	times := r.Between(rangeStart.Time(time.UTC), rangeEnd.Time(time.UTC), true)
	if len(times) == 0 {
		return nil, nil
	}
	out := make([]dates.Date, len(times))
	for i, t := range times {
		out[i] = dates.Of(t)
	}
	return out, nil
}
