// Package reminder sends a daily digest of the chores due today.
package reminder

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.trai.ch/zerr"

	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
	"chorecal/internal/store"
)

// ErrInvalidSchedule is returned for a cron spec the parser rejects.
var ErrInvalidSchedule = zerr.New("invalid reminder schedule")

// Digest lists the chores still open on Date.
type Digest struct {
	Date   dates.Date
	Chores []model.Chore
}

// Notifier delivers a digest.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// LogNotifier writes each digest to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, d Digest) error {
	names := make([]string, len(d.Chores))
	for i, c := range d.Chores {
		names[i] = c.Name
	}
	appLog.Info("chores due today",
		"date", d.Date.String(),
		"count", len(d.Chores),
		"chores", strings.Join(names, ", "),
	)
	return nil
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec is a cron expression Service can run.
// An empty spec disables reminders and is valid.
func ValidateSchedule(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	if _, err := parser.Parse(spec); err != nil {
		return zerr.With(zerr.Wrap(ErrInvalidSchedule, err.Error()), "spec", spec)
	}
	return nil
}

// Service runs the digest on a cron schedule in a fixed timezone.
type Service struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time

	mu     sync.Mutex
	spec   string
	loc    *time.Location
	c      *cron.Cron
	runCtx context.Context
}

// New returns a Service. A nil notifier logs digests; a nil loc means
// time.Local.
func New(st store.Store, n Notifier, spec string, loc *time.Location) (*Service, error) {
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}
	if n == nil {
		n = LogNotifier{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:    st,
		notifier: n,
		now:      time.Now,
		spec:     strings.TrimSpace(spec),
		loc:      loc,
	}, nil
}

// RunOnce builds today's digest and hands it to the notifier when anything
// is still open.
func (s *Service) RunOnce(ctx context.Context) (Digest, error) {
	s.mu.Lock()
	loc := s.loc
	s.mu.Unlock()

	today := dates.Of(s.now().In(loc))
	d := Digest{Date: today}

	chores, err := s.store.ListChores(ctx)
	if err != nil {
		return d, zerr.Wrap(err, "list chores")
	}
	completions, err := s.store.ListCompletions(ctx, today, today)
	if err != nil {
		return d, zerr.Wrap(err, "list completions")
	}
	done := make(map[string]struct{}, len(completions))
	for _, c := range completions {
		done[c.Key()] = struct{}{}
	}

	for _, c := range chores {
		if !recurrence.Matches(c.Rule(), today) {
			continue
		}
		if _, ok := done[model.Completion{ChoreID: c.ID, Date: today}.Key()]; ok {
			continue
		}
		d.Chores = append(d.Chores, c)
	}

	if len(d.Chores) == 0 {
		appLog.Debug("nothing due today", "date", today.String())
		return d, nil
	}
	if err := s.notifier.Notify(ctx, d); err != nil {
		return d, zerr.With(zerr.Wrap(err, "notify"), "date", today.String())
	}
	return d, nil
}

// Run schedules the digest and blocks until ctx is done. With an empty
// schedule it waits idle so that a later Apply can enable reminders.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	if s.spec == "" {
		appLog.Info("reminders disabled")
	} else if err := s.startLocked(); err != nil {
		s.runCtx = nil
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	c := s.c
	s.c = nil
	s.runCtx = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
	appLog.Info("reminder scheduler stopped")
	return nil
}

// Apply swaps the schedule and timezone, restarting the scheduler when it
// is running. An empty spec stops further runs.
func (s *Service) Apply(spec string, loc *time.Location) error {
	if err := ValidateSchedule(spec); err != nil {
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	spec = strings.TrimSpace(spec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if spec == s.spec && loc.String() == s.loc.String() {
		return nil
	}
	s.spec, s.loc = spec, loc

	if s.runCtx == nil {
		return nil
	}
	if s.c != nil {
		s.c.Stop()
		s.c = nil
	}
	if spec == "" {
		appLog.Info("reminders disabled")
		return nil
	}
	return s.startLocked()
}

// startLocked starts a fresh cron for the current spec. Call with s.mu held.
func (s *Service) startLocked() error {
	ctx := s.runCtx
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			appLog.Error("reminder run failed", err)
		}
	})
	if err != nil {
		return zerr.With(zerr.Wrap(ErrInvalidSchedule, err.Error()), "spec", s.spec)
	}
	c.Start()
	s.c = c
	appLog.Info("reminder scheduler started", "spec", s.spec, "tz", s.loc.String())
	return nil
}
