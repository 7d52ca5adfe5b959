package ics

import (
	"bytes"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.trai.ch/zerr"

	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
)

var (
	ErrEmptyBody = zerr.New("empty ICS body")
	// ErrUnsupportedEvent is reported for VEVENTs that do not describe an
	// all-day chore.
	ErrUnsupportedEvent = zerr.New("unsupported VEVENT")
)

// Import parses an iCalendar payload into chores. Events that cannot be
// represented are skipped and reported; a payload that does not parse at all
// yields no chores and a single error.
func Import(body []byte) ([]model.Chore, []error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, []error{ErrEmptyBody}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, []error{zerr.Wrap(err, "parse calendar")}
	}

	var (
		chores []model.Chore
		errs   []error
	)
	for _, ve := range cal.Events() {
		c, err := choreFromEvent(ve)
		if err != nil {
			appLog.Debug("ics vevent skipped", "uid", ve.Id(), "err", err.Error())
			errs = append(errs, err)
			continue
		}
		chores = append(chores, c)
	}

	appLog.Info("ics import completed", "chore_count", len(chores), "skipped", len(errs))
	return chores, errs
}

func choreFromEvent(ve *ical.VEvent) (model.Chore, error) {
	uid := ve.Id()
	if uid == "" {
		return model.Chore{}, zerr.Wrap(ErrUnsupportedEvent, "missing UID")
	}
	unsupported := func(reason string) error {
		return zerr.With(zerr.Wrap(ErrUnsupportedEvent, reason), "uid", uid)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return model.Chore{}, unsupported("missing DTSTART")
	}
	if !isAllDay(dtStart) {
		return model.Chore{}, unsupported("not an all-day event")
	}
	t, err := ve.GetAllDayStartAt()
	if err != nil {
		return model.Chore{}, zerr.With(zerr.Wrap(err, "parse DTSTART"), "uid", uid)
	}
	start := dates.Of(t)

	if len(ve.GetProperties(ical.ComponentPropertyRrule)) > 1 {
		return model.Chore{}, unsupported("multiple RRULEs")
	}
	for _, p := range []ical.ComponentProperty{ical.ComponentPropertyRdate, ical.ComponentPropertyExdate, ical.ComponentPropertyExrule} {
		if ve.GetProperty(p) != nil {
			return model.Chore{}, unsupported(string(p) + " is not supported")
		}
	}

	var rule recurrence.Rule = recurrence.NewOnce(start)
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rule, err = recurrence.FromRRule(p.Value, start)
		if err != nil {
			return model.Chore{}, zerr.With(err, "uid", uid)
		}
	}

	c := model.Chore{
		ID:         choreID(uid),
		Priority:   model.PriorityMedium,
		Recurrence: rule,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		c.Name = strings.TrimSpace(ical.FromText(p.Value))
	}
	if c.Name == "" {
		c.Name = "Untitled"
	}
	if p := ve.GetProperty(ical.ComponentPropertyPriority); p != nil {
		c.Priority = priorityFromValue(p.Value)
	}
	return c, nil
}

// isAllDay reports whether DTSTART carries VALUE=DATE or a bare date.
func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// choreID keeps IDs of events this package exported and derives a stable
// one for foreign UIDs so re-importing a feed updates instead of duplicating.
func choreID(uid string) string {
	if id, ok := strings.CutSuffix(uid, UIDSuffix); ok && id != "" {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(uid)).String()
}
