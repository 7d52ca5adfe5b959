package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.trai.ch/zerr"

	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
)

// UIDSuffix is appended to chore IDs to form VEVENT UIDs.
const UIDSuffix = "@chorecal"

// ErrNotExportable is reported for chores whose rule has no iCalendar form.
var ErrNotExportable = zerr.New("chore has no iCalendar representation")

// ExportOptions controls calendar-level properties of an export.
type ExportOptions struct {
	// Name becomes X-WR-CALNAME when set.
	Name string
	// Anchor stands in for the start date of repeating rules without one.
	Anchor dates.Date
	// Members resolves assignee IDs to CATEGORIES.
	Members []model.Member
	// Now is stamped into DTSTAMP; zero means time.Now.
	Now time.Time
}

// Export renders chores as a VCALENDAR with one all-day VEVENT per chore.
// Chores that cannot be expressed are left out and reported in the returned
// errors.
func Export(chores []model.Chore, opts ExportOptions) (string, []error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	anchor := opts.Anchor
	if anchor.IsZero() {
		anchor = dates.Of(now)
	}
	memberNames := make(map[string]string, len(opts.Members))
	for _, m := range opts.Members {
		memberNames[m.ID] = m.Name
	}

	cal := ical.NewCalendarFor("chorecal")
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	var errs []error
	for _, c := range chores {
		start, rrule, err := eventSchedule(c.Rule(), anchor)
		if err != nil {
			errs = append(errs, zerr.With(zerr.With(err, "chore", c.ID), "name", c.Name))
			continue
		}

		ev := cal.AddEvent(c.ID + UIDSuffix)
		ev.SetDtStampTime(now)
		if !c.CreatedAt.IsZero() {
			ev.SetCreatedTime(c.CreatedAt)
		}
		ev.SetAllDayStartAt(start.Time(time.UTC))
		ev.SetAllDayEndAt(start.AddDays(1).Time(time.UTC))
		ev.SetSummary(c.Name)
		if label := recurrence.Describe(c.Rule()); label != "" {
			ev.SetDescription(label)
		}
		if rrule != "" {
			ev.AddRrule(rrule)
		}
		ev.SetProperty(ical.ComponentPropertyPriority, priorityValue(c.Priority))
		if name, ok := memberNames[c.AssigneeID]; ok {
			ev.AddCategory(name)
		}
	}
	return cal.Serialize(), errs
}

// eventSchedule returns the DTSTART date and RRULE value for a rule. The
// RRULE is empty for one-off chores.
func eventSchedule(rule recurrence.Rule, anchor dates.Date) (dates.Date, string, error) {
	if once, ok := rule.(recurrence.Once); ok {
		return once.Date, "", nil
	}
	opt, ok := recurrence.ToROption(rule, anchor)
	if !ok {
		kind := ""
		if rule != nil {
			kind = string(rule.Kind())
		}
		return dates.Date{}, "", zerr.With(zerr.Wrap(ErrNotExportable, "no rrule mapping or no occurrence"), "kind", kind)
	}
	return dates.Of(opt.Dtstart), recurrence.RRuleValue(opt), nil
}

// priorityValue maps to the RFC 5545 PRIORITY scale where 1 is highest.
func priorityValue(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "1"
	case model.PriorityLow:
		return "9"
	default:
		return "5"
	}
}

func priorityFromValue(v string) model.Priority {
	switch strings.TrimSpace(v) {
	case "1", "2", "3", "4":
		return model.PriorityHigh
	case "6", "7", "8", "9":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
