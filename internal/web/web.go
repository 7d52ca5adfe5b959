package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.trai.ch/zerr"

	"chorecal/internal/agenda"
	"chorecal/internal/config"
	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/recurrence"
	"chorecal/internal/store"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// Server serves the chore API and the server-rendered month page.
type Server struct {
	cfg     atomic.Pointer[config.Config]
	store   store.Store
	cache   *agenda.Cache
	limiter atomic.Pointer[clientLimiter]
	mux     *http.ServeMux
	now     func() time.Time
}

// NewServer constructs a Server over st. cache may be nil.
func NewServer(cfg *config.Config, st store.Store, cache *agenda.Cache) *Server {
	s := &Server{
		store: st,
		cache: cache,
		mux:   http.NewServeMux(),
		now:   time.Now,
	}
	s.SetConfig(cfg)
	s.registerRoutes()
	return s
}

// SetConfig swaps the live configuration. Auth and rate limits apply from
// the next request on.
func (s *Server) SetConfig(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s.cfg.Store(cfg)
	s.limiter.Store(newClientLimiter(cfg.RateLimit))
}

func (s *Server) config() *config.Config { return s.cfg.Load() }

// Handler returns the root handler with auth and rate limiting applied.
func (s *Server) Handler() http.Handler {
	return s.basicAuthMiddleware(s.rateLimitMiddleware(s.mux))
}

// Serve listens on cfg.Listen until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	cfg := s.config()
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "http server"), "listen", cfg.Listen)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// basicAuthMiddleware guards everything except /health when credentials
// are configured.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := s.config().BasicAuth
		if auth == nil || auth.Username == "" || auth.Password == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, auth.Username) || !secureCompare(p, auth.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="chorecal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/chores", s.handleListChores)
	s.mux.HandleFunc("POST /api/chores", s.handleCreateChore)
	s.mux.HandleFunc("PUT /api/chores/{id}", s.handleUpdateChore)
	s.mux.HandleFunc("DELETE /api/chores/{id}", s.handleDeleteChore)

	s.mux.HandleFunc("GET /api/members", s.handleListMembers)
	s.mux.HandleFunc("POST /api/members", s.handleCreateMember)
	s.mux.HandleFunc("DELETE /api/members/{id}", s.handleDeleteMember)

	s.mux.HandleFunc("GET /api/completions", s.handleListCompletions)
	s.mux.HandleFunc("POST /api/completions", s.handleToggleCompletion)

	s.mux.HandleFunc("GET /api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("GET /api/calendar/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/calendar/week", s.handleWeek)
	s.mux.HandleFunc("POST /api/describe", s.handleDescribe)

	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// today is the current date in the configured timezone.
func (s *Server) today() dates.Date {
	return dates.Of(s.now().In(s.config().Location()))
}

func (s *Server) builder() agenda.Builder {
	return agenda.Builder{Today: s.today(), Cache: s.cache}
}

// ---- request helpers ----

func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodySize)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return zerr.Wrap(err, "decode request body")
	}
	return nil
}

// parseDateParam reads a YYYY-MM-DD query parameter, falling back to def
// when absent.
func parseDateParam(r *http.Request, name string, def dates.Date) (dates.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	d, err := dates.Parse(v)
	if err != nil {
		return dates.Date{}, zerr.With(err, "param", name)
	}
	return d, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ---- response helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeStoreError maps domain errors onto status codes.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isBadInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isBadInput(err error) bool {
	for _, target := range []error{
		store.ErrInvalid,
		dates.ErrMalformedDate,
		recurrence.ErrInvalidWeekday,
		recurrence.ErrInvalidDayOfMonth,
		recurrence.ErrMissingDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
