package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"chorecal/internal/agenda"
	"chorecal/internal/dates"
	"chorecal/internal/ics"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var monthTemplate = template.Must(template.New("month.html").Funcs(template.FuncMap{
	"monthName": func(m time.Month) string { return dates.MonthNames[m-1] },
	"dayNames":  func() [7]string { return dates.DayNames },
}).ParseFS(templatesFS, "templates/month.html"))

// defaultRangeDays is the span used when a range query omits end.
const defaultRangeDays = 30

// parseRange reads start/end query params, writing a 400 and returning
// ok=false when they are malformed, inverted or wider than the configured
// maximum.
func (s *Server) parseRange(w http.ResponseWriter, r *http.Request) (start, end dates.Date, ok bool) {
	start, err := parseDateParam(r, "start", s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return start, end, false
	}
	end, err = parseDateParam(r, "end", start.AddDays(defaultRangeDays-1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return start, end, false
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end is before start")
		return start, end, false
	}
	if maxDays := s.config().MaxRangeDays; dates.DaysBetween(start, end)+1 > maxDays {
		writeError(w, http.StatusBadRequest, "range exceeds "+strconv.Itoa(maxDays)+" days")
		return start, end, false
	}
	return start, end, true
}

type occurrencesResponse struct {
	Start dates.Date               `json:"start"`
	End   dates.Date               `json:"end"`
	Days  map[string][]model.Chore `json:"days"`
}

// GET /api/occurrences?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.parseRange(w, r)
	if !ok {
		return
	}
	chores, err := s.store.ListChores(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, occurrencesResponse{
		Start: start,
		End:   end,
		Days:  s.builder().Index(chores, start, end),
	})
}

// loadAgenda fetches chores and the completions within [start, end]
// concurrently.
func (s *Server) loadAgenda(r *http.Request, start, end dates.Date) ([]model.Chore, []model.Completion, error) {
	var (
		chores      []model.Chore
		completions []model.Completion
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		chores, err = s.store.ListChores(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		completions, err = s.store.ListCompletions(ctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return chores, completions, nil
}

// monthParams reads year/month, defaulting to the current month.
func (s *Server) monthParams(r *http.Request) (int, time.Month, bool) {
	today := s.today()
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), today.Year)
	month := parseIntDefault(q.Get("month"), int(today.Month))
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func (s *Server) monthView(r *http.Request, year int, month time.Month) (agenda.MonthView, error) {
	grid := dates.CalendarGridDays(year, month)
	chores, completions, err := s.loadAgenda(r, grid[0], grid[len(grid)-1])
	if err != nil {
		return agenda.MonthView{}, err
	}
	return s.builder().Month(year, month, chores, completions), nil
}

// GET /api/calendar/month?year=2024&month=2 (month is 1-12)
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "year must be 1-9999 and month 1-12")
		return
	}
	view, err := s.monthView(r, year, month)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /api/calendar/week?date=YYYY-MM-DD
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseDateParam(r, "date", s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days := dates.WeekDays(anchor)
	chores, completions, err := s.loadAgenda(r, days[0], days[6])
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.builder().Week(anchor, chores, completions))
}

// GET /calendar.ics
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	chores, err := s.store.ListChores(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	members, err := s.store.ListMembers(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	body, skipped := ics.Export(chores, ics.ExportOptions{
		Name:    "Chores",
		Anchor:  s.today(),
		Members: members,
		Now:     s.now(),
	})
	if len(skipped) > 0 {
		appLog.Debug("ics export skipped chores", "count", len(skipped))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="chorecal.ics"`)
	_, _ = w.Write([]byte(body))
}

type monthPage struct {
	View    agenda.MonthView
	Members map[string]model.Member
	Prev    agenda.MonthView
	Next    agenda.MonthView
}

// GET /calendar?year=2024&month=2 renders the printable month grid. The
// root element carries data-ready="true" once rendered, which the snapshot
// capture waits for.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.monthParams(r)
	if !ok {
		http.Error(w, "year must be 1-9999 and month 1-12", http.StatusBadRequest)
		return
	}
	view, err := s.monthView(r, year, month)
	if err != nil {
		appLog.Error("calendar page failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	members, err := s.store.ListMembers(r.Context())
	if err != nil {
		appLog.Error("calendar page members failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	byID := make(map[string]model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	first := dates.New(year, month, 1)
	prev, next := first.AddDays(-1), first.AddDays(32).StartOfMonth()

	var buf bytes.Buffer
	err = monthTemplate.Execute(&buf, monthPage{
		View:    view,
		Members: byID,
		Prev:    agenda.MonthView{Year: prev.Year, Month: prev.Month},
		Next:    agenda.MonthView{Year: next.Year, Month: next.Month},
	})
	if err != nil {
		appLog.Error("calendar template failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
