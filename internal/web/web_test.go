package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"

	"chorecal/internal/agenda"
	"chorecal/internal/config"
	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
	"chorecal/internal/store"
	"chorecal/internal/store/mocks"
)

var fixedNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func d(s string) dates.Date { return dates.MustParse(s) }

func newTestServer(t *testing.T, mutate ...func(*config.Config)) (*Server, *mocks.MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.RateLimit = config.RateLimitConfig{}
	for _, fn := range mutate {
		fn(cfg)
	}
	s := NewServer(cfg, st, agenda.NewCache(agenda.DefaultCacheConfig))
	s.now = func() time.Time { return fixedNow }
	return s, st
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func trashChore(t *testing.T) model.Chore {
	t.Helper()
	rule, err := recurrence.NewWeekly(recurrence.Starting(d("2024-03-01")), time.Monday, time.Wednesday, time.Friday)
	require.NoError(t, err)
	return model.Chore{ID: "trash", Name: "Trash", Priority: model.PriorityMedium, AssigneeID: "m1", Recurrence: rule}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestBasicAuth(t *testing.T) {
	s, st := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)

	rec := do(t, s, http.MethodGet, "/api/chores", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	st.EXPECT().ListChores(gomock.Any()).Return(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/chores", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	s, st := newTestServer(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{RPS: 1, Burst: 2}
	})
	st.EXPECT().ListMembers(gomock.Any()).Return(nil, nil).Times(2)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/members", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/members", "").Code)
	rec := do(t, s, http.MethodGet, "/api/members", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Non-API routes are not limited.
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
}

func TestCreateChore(t *testing.T) {
	s, st := newTestServer(t)

	st.EXPECT().SaveChore(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c model.Chore) (model.Chore, error) {
		assert.Empty(t, c.ID)
		assert.Equal(t, "Water plants", c.Name)
		assert.Equal(t, recurrence.KindMonthly, c.Recurrence.Kind())
		c.ID = "new-id"
		return c, nil
	})

	rec := do(t, s, http.MethodPost, "/api/chores",
		`{"id":"ignored","name":"  Water plants ","priority":"low","recurrence":{"type":"monthly","dayOfMonth":15}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "new-id", got["id"])
	assert.Equal(t, map[string]any{"type": "monthly", "dayOfMonth": float64(15)}, got["recurrence"])
}

func TestCreateChore_BadInput(t *testing.T) {
	// No SaveChore expectation: every body is rejected before the store.
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "bad weekday", body: `{"name":"x","recurrence":{"type":"weekly","daysOfWeek":[9]}}`},
		{name: "not json", body: `not json`},
		{name: "empty name", body: `{"name":"  ","recurrence":{"type":"daily"}}`},
		{name: "unknown priority", body: `{"name":"x","priority":"urgent","recurrence":{"type":"daily"}}`},
		{name: "missing recurrence", body: `{"name":"Mop"}`},
		{name: "unknown recurrence type", body: `{"name":"Mop","recurrence":{"type":"yearly"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/chores", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdateChore_RejectsUnknownRecurrence(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().GetChore(gomock.Any(), "trash").Return(trashChore(t), nil)

	rec := do(t, s, http.MethodPut, "/api/chores/trash", `{"name":"Trash","recurrence":{"type":"yearly"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateChore(t *testing.T) {
	s, st := newTestServer(t)
	existing := trashChore(t)
	existing.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		st.EXPECT().GetChore(gomock.Any(), "trash").Return(existing, nil),
		st.EXPECT().SaveChore(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c model.Chore) (model.Chore, error) {
			assert.Equal(t, "trash", c.ID)
			assert.Equal(t, existing.CreatedAt, c.CreatedAt)
			assert.Equal(t, "Recycling", c.Name)
			return c, nil
		}),
	)

	rec := do(t, s, http.MethodPut, "/api/chores/trash", `{"name":"Recycling","recurrence":{"type":"daily"}}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateChore_NotFound(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().GetChore(gomock.Any(), "nope").Return(model.Chore{}, zerr.With(zerr.Wrap(store.ErrNotFound, "chore"), "id", "nope"))

	rec := do(t, s, http.MethodPut, "/api/chores/nope", `{"name":"x","recurrence":{"type":"daily"}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteChore(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().DeleteChore(gomock.Any(), "trash").Return(nil)
	st.EXPECT().DeleteChore(gomock.Any(), "gone").Return(zerr.Wrap(store.ErrNotFound, "chore"))

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/chores/trash", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/chores/gone", "").Code)
}

func TestMembers(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().SaveMember(gomock.Any(), model.Member{Name: "Alice"}).
		Return(model.Member{ID: "m1", Name: "Alice", Color: model.MemberColors[0]}, nil)
	st.EXPECT().DeleteMember(gomock.Any(), "m1").Return(nil)

	rec := do(t, s, http.MethodPost, "/api/members", `{"name":" Alice "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"m1","name":"Alice","color":"#4f86f7"}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/members/m1", "").Code)
}

func TestToggleCompletion(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ToggleCompletion(gomock.Any(), "trash", d("2024-03-04")).Return(true, nil)

	rec := do(t, s, http.MethodPost, "/api/completions", `{"choreId":"trash","date":"2024-03-04"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"choreId":"trash","date":"2024-03-04","done":true}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/completions", `{"choreId":"trash","date":"03/04/2024"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/completions", `{"choreId":"trash"}`).Code)
}

func TestOccurrences(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ListChores(gomock.Any()).Return([]model.Chore{trashChore(t)}, nil)

	rec := do(t, s, http.MethodGet, "/api/occurrences?start=2024-03-01&end=2024-03-07", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Start string                     `json:"start"`
		End   string                     `json:"end"`
		Days  map[string][]map[string]any `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-03-01", got.Start)
	assert.Len(t, got.Days, 3)
	for _, day := range []string{"2024-03-01", "2024-03-04", "2024-03-06"} {
		require.Len(t, got.Days[day], 1, day)
		assert.Equal(t, "trash", got.Days[day][0]["id"])
	}
}

func TestOccurrences_BadRange(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.MaxRangeDays = 31 })

	tests := map[string]string{
		"malformed":      "/api/occurrences?start=2024-3-1",
		"inverted":       "/api/occurrences?start=2024-03-10&end=2024-03-01",
		"too wide":       "/api/occurrences?start=2024-01-01&end=2024-03-01",
		"impossible day": "/api/occurrences?start=2024-02-30&end=2024-03-01",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, target, "").Code)
		})
	}
}

func TestMonth(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ListChores(gomock.Any()).Return([]model.Chore{trashChore(t)}, nil)
	st.EXPECT().ListCompletions(gomock.Any(), d("2024-02-25"), d("2024-04-06")).
		Return([]model.Completion{{ChoreID: "trash", Date: d("2024-03-04")}}, nil)

	rec := do(t, s, http.MethodGet, "/api/calendar/month?year=2024&month=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view agenda.MonthView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Weeks, 6)
	mar4 := view.Weeks[1][1]
	assert.Equal(t, d("2024-03-04"), mar4.Date)
	require.Len(t, mar4.Items, 1)
	assert.True(t, mar4.Items[0].Done)
	assert.True(t, view.Weeks[1][3].Today)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/calendar/month?year=2024&month=13", "").Code)
}

func TestWeek(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ListChores(gomock.Any()).Return([]model.Chore{trashChore(t)}, nil)
	st.EXPECT().ListCompletions(gomock.Any(), d("2024-03-03"), d("2024-03-09")).Return(nil, nil)

	rec := do(t, s, http.MethodGet, "/api/calendar/week", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view agenda.WeekView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, d("2024-03-03"), view.Start)
	assert.Len(t, view.Days[1].Items, 1) // Mon
	assert.Len(t, view.Days[3].Items, 1) // Wed
	assert.Len(t, view.Days[5].Items, 1) // Fri
	assert.Empty(t, view.Days[2].Items)
}

func TestDescribe(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/describe", `{"type":"weekly","daysOfWeek":[5,1,3]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"label":"Weekly: Mon, Wed, Fri"}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/describe", `{"type":"monthly","dayOfMonth":22}`)
	assert.JSONEq(t, `{"label":"Monthly on the 22nd"}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/describe", `{"type":"once"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestICSExport(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ListChores(gomock.Any()).Return([]model.Chore{trashChore(t)}, nil)
	st.EXPECT().ListMembers(gomock.Any()).Return([]model.Member{{ID: "m1", Name: "Alice"}}, nil)

	rec := do(t, s, http.MethodGet, "/calendar.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR")
	assert.Contains(t, rec.Body.String(), "CATEGORIES:Alice")
}

func TestCalendarPage(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ListChores(gomock.Any()).Return([]model.Chore{trashChore(t)}, nil)
	st.EXPECT().ListCompletions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	st.EXPECT().ListMembers(gomock.Any()).Return([]model.Member{{ID: "m1", Name: "Alice", Color: "#4f86f7"}}, nil)

	rec := do(t, s, http.MethodGet, "/calendar?year=2024&month=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, "February 2024")
	assert.Contains(t, body, "Trash")
	assert.Contains(t, body, "month=1")
	assert.Contains(t, body, "month=3")
}

func TestStoreFailureIs500(t *testing.T) {
	s, st := newTestServer(t)
	st.EXPECT().ListChores(gomock.Any()).Return(nil, zerr.New("disk on fire"))

	rec := do(t, s, http.MethodGet, "/api/chores", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}
