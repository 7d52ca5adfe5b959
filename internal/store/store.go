// Package store persists chores, members and completions.
package store

import (
	"context"

	"go.trai.ch/zerr"

	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = zerr.New("not found")
	// ErrInvalid is returned when a record fails validation before writing.
	ErrInvalid = zerr.New("invalid record")
)

// Store is the persistence port used by the web layer, the reminder job and
// the CLI.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type Store interface {
	ListChores(ctx context.Context) ([]model.Chore, error)
	GetChore(ctx context.Context, id string) (model.Chore, error)
	// SaveChore inserts or replaces a chore. An empty ID is assigned.
	SaveChore(ctx context.Context, c model.Chore) (model.Chore, error)
	// DeleteChore removes the chore and its completions.
	DeleteChore(ctx context.Context, id string) error

	ListMembers(ctx context.Context) ([]model.Member, error)
	// SaveMember inserts or replaces a member. An empty ID is assigned and an
	// empty color is picked from the palette.
	SaveMember(ctx context.Context, m model.Member) (model.Member, error)
	// DeleteMember removes the member and unassigns their chores.
	DeleteMember(ctx context.Context, id string) error

	// ListCompletions returns completions dated within [start, end].
	ListCompletions(ctx context.Context, start, end dates.Date) ([]model.Completion, error)
	// ToggleCompletion flips the done state of a chore on date and reports
	// the new state.
	ToggleCompletion(ctx context.Context, choreID string, date dates.Date) (bool, error)

	Close() error
}

// ValidateChore checks the fields a chore must carry before it is stored
// and fills in defaults. Rules of an unknown type are readable but never
// written.
func ValidateChore(c *model.Chore) error {
	if c.Name == "" {
		return zerr.With(zerr.Wrap(ErrInvalid, "chore name is required"), "id", c.ID)
	}
	if c.Priority == "" {
		c.Priority = model.PriorityMedium
	}
	if !c.Priority.Valid() {
		return zerr.With(zerr.Wrap(ErrInvalid, "unknown priority"), "priority", string(c.Priority))
	}
	if c.Recurrence == nil {
		return zerr.With(zerr.Wrap(ErrInvalid, "chore recurrence is required"), "id", c.ID)
	}
	if u, ok := c.Recurrence.(recurrence.Unknown); ok {
		return zerr.With(zerr.Wrap(ErrInvalid, "unknown recurrence type"), "type", u.Type)
	}
	return nil
}
