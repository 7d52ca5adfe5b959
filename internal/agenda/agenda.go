// Package agenda turns per-chore occurrences into day-indexed views: a flat
// day index, a month grid padded to whole weeks, and a single week.
package agenda

import (
	"time"

	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
)

// Item is one chore due on a day.
type Item struct {
	Chore model.Chore `json:"chore"`
	Done  bool        `json:"done"`
}

// Cell is one day of a grid.
type Cell struct {
	Date    dates.Date `json:"date"`
	InMonth bool       `json:"inMonth"`
	Today   bool       `json:"today"`
	Items   []Item     `json:"items"`
}

// MonthView is a month laid out as Sunday-first weeks, padded with the
// neighbouring months' days.
type MonthView struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks [][7]Cell  `json:"weeks"`
}

// WeekView is the Sunday-to-Saturday week starting at Start.
type WeekView struct {
	Start dates.Date `json:"start"`
	Days  [7]Cell    `json:"days"`
}

// Builder builds views. Today marks the current cell; a nil Cache expands
// every rule directly.
type Builder struct {
	Today dates.Date
	Cache *Cache
}

// NewBuilder returns a Builder whose today is taken from loc.
func NewBuilder(loc *time.Location, cache *Cache) Builder {
	return Builder{Today: dates.Today(loc), Cache: cache}
}

func (b Builder) occurrences(rule recurrence.Rule, start, end dates.Date) []dates.Date {
	if b.Cache != nil {
		return b.Cache.Occurrences(rule, start, end)
	}
	return recurrence.Occurrences(rule, start, end)
}

// Index maps each date in [start, end] with at least one due chore to the
// chores due that day, in the order they appear in chores.
func (b Builder) Index(chores []model.Chore, start, end dates.Date) map[string][]model.Chore {
	idx := make(map[string][]model.Chore)
	for _, c := range chores {
		for _, d := range b.occurrences(c.Rule(), start, end) {
			key := d.String()
			idx[key] = append(idx[key], c)
		}
	}
	return idx
}

// Month builds the grid for the given month, Sunday-first, padded with the
// neighbouring months' days.
func (b Builder) Month(year int, month time.Month, chores []model.Chore, completions []model.Completion) MonthView {
	days := dates.CalendarGridDays(year, month)
	cells := b.cells(days, chores, completions)

	view := MonthView{Year: year, Month: month, Weeks: make([][7]Cell, 0, len(cells)/7)}
	for i := 0; i+7 <= len(cells); i += 7 {
		var week [7]Cell
		copy(week[:], cells[i:i+7])
		for j := range week {
			week[j].InMonth = week[j].Date.Month == month && week[j].Date.Year == year
		}
		view.Weeks = append(view.Weeks, week)
	}
	return view
}

// Week builds the Sunday..Saturday week containing anchor.
func (b Builder) Week(anchor dates.Date, chores []model.Chore, completions []model.Completion) WeekView {
	days := dates.WeekDays(anchor)
	cells := b.cells(days, chores, completions)

	view := WeekView{Start: days[0]}
	copy(view.Days[:], cells)
	for i := range view.Days {
		view.Days[i].InMonth = true
	}
	return view
}

func (b Builder) cells(days []dates.Date, chores []model.Chore, completions []model.Completion) []Cell {
	if len(days) == 0 {
		return nil
	}
	done := make(map[string]struct{}, len(completions))
	for _, c := range completions {
		done[c.Key()] = struct{}{}
	}

	idx := b.Index(chores, days[0], days[len(days)-1])
	cells := make([]Cell, len(days))
	for i, d := range days {
		cell := Cell{Date: d, Today: !b.Today.IsZero() && d == b.Today}
		for _, c := range idx[d.String()] {
			_, ok := done[model.Completion{ChoreID: c.ID, Date: d}.Key()]
			cell.Items = append(cell.Items, Item{Chore: c, Done: ok})
		}
		cells[i] = cell
	}
	return cells
}

// Index is Builder.Index without a cache.
func Index(chores []model.Chore, start, end dates.Date) map[string][]model.Chore {
	return Builder{}.Index(chores, start, end)
}

// Month is Builder.Month with today taken from the local clock.
func Month(year int, month time.Month, chores []model.Chore, completions []model.Completion) MonthView {
	return NewBuilder(time.Local, nil).Month(year, month, chores, completions)
}

// Week is Builder.Week with today taken from the local clock.
func Week(anchor dates.Date, chores []model.Chore, completions []model.Completion) WeekView {
	return NewBuilder(time.Local, nil).Week(anchor, chores, completions)
}
