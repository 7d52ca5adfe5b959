package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorecal/internal/dates"
)

func TestToROption_RRuleValue(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		expected string
		ok       bool
	}{
		{name: "daily", rule: NewDaily(Starting(d("2024-03-01"))), expected: "FREQ=DAILY", ok: true},
		{
			name:     "daily bounded",
			rule:     NewDaily(Starting(d("2024-03-01")).Until(d("2024-03-31"))),
			expected: "FREQ=DAILY;UNTIL=20240331",
			ok:       true,
		},
		{
			name:     "weekly",
			rule:     mustWeekly(t, Starting(d("2024-03-01")), time.Friday, time.Monday),
			expected: "FREQ=WEEKLY;BYDAY=MO,FR",
			ok:       true,
		},
		{name: "monthly", rule: mustMonthly(t, Starting(d("2024-01-01")), 31), expected: "FREQ=MONTHLY;BYMONTHDAY=31", ok: true},
		{name: "weekly without days", rule: mustWeekly(t, Starting(d("2024-03-01"))), ok: false},
		{name: "monthly without day", rule: mustMonthly(t, Starting(d("2024-03-01")), 0), ok: false},
		{name: "once", rule: NewOnce(d("2024-03-01")), ok: false},
		{name: "unknown", rule: Unknown{Type: "yearly"}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, ok := ToROption(tt.rule, d("2024-01-01"))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, RRuleValue(opt))
			}
		})
	}
}

func TestToROption_DtstartIsFirstOccurrence(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		dtstart string
	}{
		// 2024-03-01 is a Friday.
		{name: "weekly start off schedule", rule: mustWeekly(t, Starting(d("2024-03-01")), time.Monday), dtstart: "2024-03-04"},
		{name: "weekly start on schedule", rule: mustWeekly(t, Starting(d("2024-03-01")), time.Friday), dtstart: "2024-03-01"},
		{name: "monthly later in month", rule: mustMonthly(t, Starting(d("2024-01-20")), 15), dtstart: "2024-02-15"},
		{name: "monthly skips short month", rule: mustMonthly(t, Starting(d("2024-02-01")), 30), dtstart: "2024-03-30"},
		{name: "open start uses anchor", rule: mustMonthly(t, Bounds{}, 15), dtstart: "2024-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, ok := ToROption(tt.rule, d("2024-01-01"))
			require.True(t, ok)
			assert.Equal(t, d(tt.dtstart), dates.Of(opt.Dtstart))
		})
	}
}

func TestToROption_NeverOccurs(t *testing.T) {
	// Friday to Sunday holds no Monday.
	rule := mustWeekly(t, Starting(d("2024-03-01")).Until(d("2024-03-03")), time.Monday)
	_, ok := ToROption(rule, d("2024-01-01"))
	assert.False(t, ok)
}

// The day-by-day scan and an RFC 5545 expansion of the same rule agree.
func TestToROption_MatchesScan(t *testing.T) {
	rules := []Rule{
		NewDaily(Starting(d("2024-02-20")).Until(d("2024-03-10"))),
		mustWeekly(t, Starting(d("2024-03-01")), time.Monday, time.Wednesday, time.Friday),
		mustWeekly(t, Starting(d("2023-12-31")).Until(d("2024-05-01")), time.Sunday, time.Saturday),
		mustMonthly(t, Starting(d("2024-01-15")), 31),
		mustMonthly(t, Starting(d("2023-06-01")), 29),
	}
	rangeStart, rangeEnd := d("2024-01-01"), d("2024-12-31")

	for _, rule := range rules {
		t.Run(Describe(rule), func(t *testing.T) {
			opt, ok := ToROption(rule, rangeStart)
			require.True(t, ok)

			got, err := ExpandRRule(opt, rangeStart, rangeEnd)
			require.NoError(t, err)
			assert.Equal(t, Occurrences(rule, rangeStart, rangeEnd), got)
		})
	}
}

func TestFromRRule(t *testing.T) {
	// 2024-03-06 is a Wednesday.
	dtstart := d("2024-03-06")

	tests := []struct {
		name    string
		rrule   string
		want    Rule
		wantErr bool
	}{
		{name: "daily", rrule: "FREQ=DAILY", want: NewDaily(Starting(dtstart))},
		{
			name:  "daily until",
			rrule: "FREQ=DAILY;UNTIL=20240331T000000Z",
			want:  NewDaily(Starting(dtstart).Until(d("2024-03-31"))),
		},
		{name: "daily until date", rrule: "FREQ=DAILY;UNTIL=20240331", want: NewDaily(Starting(dtstart).Until(d("2024-03-31")))},
		{name: "weekly byday", rrule: "FREQ=WEEKLY;BYDAY=MO,FR", want: mustWeekly(t, Starting(dtstart), time.Monday, time.Friday)},
		{name: "weekly sunday", rrule: "FREQ=WEEKLY;BYDAY=SU", want: mustWeekly(t, Starting(dtstart), time.Sunday)},
		{name: "weekly defaults to dtstart weekday", rrule: "FREQ=WEEKLY", want: mustWeekly(t, Starting(dtstart), time.Wednesday)},
		{name: "monthly bymonthday", rrule: "FREQ=MONTHLY;BYMONTHDAY=15", want: mustMonthly(t, Starting(dtstart), 15)},
		{name: "monthly defaults to dtstart day", rrule: "FREQ=MONTHLY", want: mustMonthly(t, Starting(dtstart), 6)},
		{name: "interval one", rrule: "FREQ=DAILY;INTERVAL=1", want: NewDaily(Starting(dtstart))},
		{name: "interval two", rrule: "FREQ=DAILY;INTERVAL=2", wantErr: true},
		{name: "count", rrule: "FREQ=DAILY;COUNT=3", wantErr: true},
		{name: "yearly", rrule: "FREQ=YEARLY", wantErr: true},
		{name: "nth weekday", rrule: "FREQ=MONTHLY;BYDAY=2MO", wantErr: true},
		{name: "last day of month", rrule: "FREQ=MONTHLY;BYMONTHDAY=-1", wantErr: true},
		{name: "garbage", rrule: "FREQ=SOMETIMES", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRRule(tt.rrule, dtstart)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedRRule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromRRule_RoundTrip(t *testing.T) {
	rule := mustWeekly(t, Starting(d("2024-03-01")).Until(d("2024-06-30")), time.Tuesday, time.Thursday)
	opt, ok := ToROption(rule, dates.Date{})
	require.True(t, ok)

	assert.Equal(t, d("2024-03-05"), dates.Of(opt.Dtstart))

	back, err := FromRRule(RRuleValue(opt), dates.Of(opt.Dtstart))
	require.NoError(t, err)
	assert.Equal(t,
		Occurrences(rule, d("2024-01-01"), d("2024-12-31")),
		Occurrences(back, d("2024-01-01"), d("2024-12-31")))
}
