package dates

import "time"

// MonthNames are English month names indexed by time.Month minus one.
var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// DayNames are abbreviated weekday names indexed by time.Weekday.
var DayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayNamesFull are full weekday names indexed by time.Weekday.
var DayNamesFull = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeekDays returns Sunday through Saturday of the week containing d.
func WeekDays(d Date) []Date {
	sunday := d.StartOfWeek()
	out := make([]Date, 7)
	for i := range out {
		out[i] = sunday.AddDays(i)
	}
	return out
}

// CalendarGridDays returns every day needed to render month as whole weeks:
// from the Sunday on or before the 1st to the Saturday on or after the last
// day. The length is always a multiple of 7.
func CalendarGridDays(year int, month time.Month) []Date {
	first := New(year, month, 1)
	last := first.EndOfMonth()

	start := first.StartOfWeek()
	end := last.AddDays(int(time.Saturday - last.Weekday()))
	return Range(start, end)
}

// Range returns every date in [start, end] in ascending order, or nil when
// end is before start.
func Range(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	out := make([]Date, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
