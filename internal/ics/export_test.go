package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
)

func d(s string) dates.Date { return dates.MustParse(s) }

func exportFixtures(t *testing.T) []model.Chore {
	t.Helper()
	weekly, err := recurrence.NewWeekly(recurrence.Starting(d("2024-03-01")).Until(d("2024-03-31")), time.Monday, time.Friday)
	require.NoError(t, err)
	noDays, err := recurrence.NewWeekly(recurrence.Starting(d("2024-03-01")))
	require.NoError(t, err)
	monthly, err := recurrence.NewMonthly(recurrence.Bounds{}, 15)
	require.NoError(t, err)

	return []model.Chore{
		{ID: "trash", Name: "Take out trash", Priority: model.PriorityHigh, AssigneeID: "m1", Recurrence: weekly},
		{ID: "dentist", Name: "Dentist", Priority: model.PriorityLow, Recurrence: recurrence.NewOnce(d("2024-03-15"))},
		{ID: "rent", Name: "Rent", Recurrence: monthly},
		{ID: "broken", Name: "Nothing", Recurrence: noDays},
		{ID: "future", Name: "Yearly", Recurrence: recurrence.Unknown{Type: "yearly"}},
	}
}

func TestExport(t *testing.T) {
	out, errs := Export(exportFixtures(t), ExportOptions{
		Name:    "Chores",
		Anchor:  d("2024-01-01"),
		Members: []model.Member{{ID: "m1", Name: "Alice"}},
		Now:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})

	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrNotExportable)
	}

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "X-WR-CALNAME:Chores")
	assert.Contains(t, out, "UID:trash@chorecal")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240301")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;UNTIL=20240331;BYDAY=MO,FR")
	assert.Contains(t, out, "PRIORITY:1")
	assert.Contains(t, out, "CATEGORIES:Alice")

	// One-off chores export without an RRULE.
	assert.Contains(t, out, "UID:dentist@chorecal")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240315")

	// Open-start rules begin at the first occurrence after the anchor.
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240115")
	assert.Contains(t, out, "RRULE:FREQ=MONTHLY;BYMONTHDAY=15")

	assert.NotContains(t, out, "broken@chorecal")
	assert.NotContains(t, out, "future@chorecal")
}

func TestExportImportRoundTrip(t *testing.T) {
	chores := exportFixtures(t)[:3]
	out, errs := Export(chores, ExportOptions{Anchor: d("2024-01-01")})
	require.Empty(t, errs)

	back, errs := Import([]byte(out))
	require.Empty(t, errs)
	require.Len(t, back, 3)

	byID := map[string]model.Chore{}
	for _, c := range back {
		byID[c.ID] = c
	}

	assert.Equal(t, chores[0].Recurrence, byID["trash"].Recurrence)
	assert.Equal(t, "Take out trash", byID["trash"].Name)
	assert.Equal(t, model.PriorityHigh, byID["trash"].Priority)

	assert.Equal(t, chores[1].Recurrence, byID["dentist"].Recurrence)
	assert.Equal(t, model.PriorityLow, byID["dentist"].Priority)

	// The first occurrence after the anchor becomes the explicit start.
	monthly, err := recurrence.NewMonthly(recurrence.Starting(d("2024-01-15")), 15)
	require.NoError(t, err)
	assert.Equal(t, recurrence.Rule(monthly), byID["rent"].Recurrence)

	for _, c := range chores {
		got := byID[c.ID]
		assert.Equal(t,
			recurrence.OccurrencesInRange(c.Recurrence, d("2024-01-01"), d("2024-12-31")),
			recurrence.OccurrencesInRange(got.Recurrence, d("2024-01-01"), d("2024-12-31")),
			c.ID)
	}
}

func TestExport_DtstartOnSchedule(t *testing.T) {
	// 2024-03-01 is a Friday; the first Monday is 2024-03-04.
	mondays, err := recurrence.NewWeekly(recurrence.Starting(d("2024-03-01")), time.Monday)
	require.NoError(t, err)
	empty, err := recurrence.NewWeekly(recurrence.Starting(d("2024-03-01")).Until(d("2024-03-03")), time.Monday)
	require.NoError(t, err)

	out, errs := Export([]model.Chore{
		{ID: "mop", Name: "Mop", Recurrence: mondays},
		{ID: "gone", Name: "Gone", Recurrence: empty},
	}, ExportOptions{Anchor: d("2024-01-01")})

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNotExportable)
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240304")
	assert.NotContains(t, out, "DTSTART;VALUE=DATE:20240301")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;BYDAY=MO")
	assert.NotContains(t, out, "gone@chorecal")

	back, errs := Import([]byte(out))
	require.Empty(t, errs)
	require.Len(t, back, 1)
	assert.Equal(t,
		recurrence.OccurrencesInRange(mondays, d("2024-03-01"), d("2024-04-30")),
		recurrence.OccurrencesInRange(back[0].Recurrence, d("2024-03-01"), d("2024-04-30")))
}
