package recurrence

import (
	"encoding/json"
	"time"

	"github.com/samber/mo"
	"go.trai.ch/zerr"

	"chorecal/internal/dates"
)

// ErrMissingDate is returned when a once rule has no date.
var ErrMissingDate = zerr.New("once rule requires a date")

// Spec is the stored and transported form of a Rule: a flat record with a
// type discriminant and the fields of every variant.
type Spec struct {
	Type       string `json:"type" yaml:"type"`
	Date       string `json:"date,omitempty" yaml:"date,omitempty"`
	StartDate  string `json:"startDate,omitempty" yaml:"start_date,omitempty"`
	EndDate    string `json:"endDate,omitempty" yaml:"end_date,omitempty"`
	DaysOfWeek []int  `json:"daysOfWeek,omitempty" yaml:"days_of_week,omitempty"`
	DayOfMonth int    `json:"dayOfMonth,omitempty" yaml:"day_of_month,omitempty"`
}

// Encode converts rule into its flat form. A nil rule encodes as an empty Spec.
func Encode(rule Rule) Spec {
	switch r := rule.(type) {
	case Once:
		return Spec{Type: string(KindOnce), Date: r.Date.String()}
	case Daily:
		s := Spec{Type: string(KindDaily)}
		encodeBounds(&s, r.Bounds)
		return s
	case Weekly:
		s := Spec{Type: string(KindWeekly)}
		for _, d := range r.Days.Days() {
			s.DaysOfWeek = append(s.DaysOfWeek, int(d))
		}
		encodeBounds(&s, r.Bounds)
		return s
	case Monthly:
		s := Spec{Type: string(KindMonthly), DayOfMonth: r.DayOfMonth}
		encodeBounds(&s, r.Bounds)
		return s
	case Unknown:
		return Spec{Type: r.Type}
	default:
		return Spec{}
	}
}

func encodeBounds(s *Spec, b Bounds) {
	if start, ok := b.Start.Get(); ok {
		s.StartDate = start.String()
	}
	if end, ok := b.End.Get(); ok {
		s.EndDate = end.String()
	}
}

// Decode validates s and builds the matching Rule. A type this version does
// not know decodes to Unknown without error.
func Decode(s Spec) (Rule, error) {
	switch Kind(s.Type) {
	case KindOnce:
		if s.Date == "" {
			return nil, ErrMissingDate
		}
		d, err := dates.Parse(s.Date)
		if err != nil {
			return nil, zerr.With(err, "field", "date")
		}
		return NewOnce(d), nil
	case KindDaily:
		b, err := decodeBounds(s)
		if err != nil {
			return nil, err
		}
		return NewDaily(b), nil
	case KindWeekly:
		b, err := decodeBounds(s)
		if err != nil {
			return nil, err
		}
		days := make([]time.Weekday, len(s.DaysOfWeek))
		for i, d := range s.DaysOfWeek {
			days[i] = time.Weekday(d)
		}
		w, err := NewWeekly(b, days...)
		if err != nil {
			return nil, err
		}
		return w, nil
	case KindMonthly:
		b, err := decodeBounds(s)
		if err != nil {
			return nil, err
		}
		m, err := NewMonthly(b, s.DayOfMonth)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return Unknown{Type: s.Type}, nil
	}
}

func decodeBounds(s Spec) (Bounds, error) {
	b := Bounds{Start: mo.None[dates.Date](), End: mo.None[dates.Date]()}
	if s.StartDate != "" {
		d, err := dates.Parse(s.StartDate)
		if err != nil {
			return b, zerr.With(err, "field", "startDate")
		}
		b.Start = mo.Some(d)
	}
	if s.EndDate != "" {
		d, err := dates.Parse(s.EndDate)
		if err != nil {
			return b, zerr.With(err, "field", "endDate")
		}
		b.End = mo.Some(d)
	}
	return b, nil
}

// Marshal encodes rule as JSON.
func Marshal(rule Rule) ([]byte, error) {
	return json.Marshal(Encode(rule))
}

// Unmarshal decodes a JSON rule.
func Unmarshal(data []byte) (Rule, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, zerr.Wrap(err, "decode recurrence")
	}
	return Decode(s)
}
