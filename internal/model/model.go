package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"chorecal/internal/dates"
	"chorecal/internal/recurrence"
)

// Priority is a chore's display priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Chore is a household task with exactly one recurrence rule.
// The recurrence engine only looks at Recurrence; the remaining fields are
// carried for display.
type Chore struct {
	ID         string
	Name       string
	Priority   Priority
	AssigneeID string // empty when unassigned

	Recurrence recurrence.Rule

	CreatedAt time.Time
}

// Rule implements recurrence.Scheduled.
func (c Chore) Rule() recurrence.Rule { return c.Recurrence }

// choreJSON is the wire shape of a Chore. The recurrence travels in its
// flat codec form.
type choreJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Priority   Priority        `json:"priority"`
	AssigneeID string          `json:"assigneeId,omitempty"`
	Recurrence recurrence.Spec `json:"recurrence"`
	CreatedAt  time.Time       `json:"createdAt,omitempty"`
}

// MarshalJSON writes the recurrence in its flat wire form.
func (c Chore) MarshalJSON() ([]byte, error) {
	return json.Marshal(choreJSON{
		ID:         c.ID,
		Name:       c.Name,
		Priority:   c.Priority,
		AssigneeID: c.AssigneeID,
		Recurrence: recurrence.Encode(c.Recurrence),
		CreatedAt:  c.CreatedAt,
	})
}

// UnmarshalJSON decodes and validates the wire form of the recurrence.
func (c *Chore) UnmarshalJSON(b []byte) error {
	var raw choreJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rule, err := recurrence.Decode(raw.Recurrence)
	if err != nil {
		return err
	}
	*c = Chore{
		ID:         raw.ID,
		Name:       raw.Name,
		Priority:   raw.Priority,
		AssigneeID: raw.AssigneeID,
		Recurrence: rule,
		CreatedAt:  raw.CreatedAt,
	}
	return nil
}

// Member is a household member chores can be assigned to.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Completion marks a chore as done on one date.
type Completion struct {
	ChoreID string     `json:"choreId"`
	Date    dates.Date `json:"date"`
}

// Key identifies the completion as "choreID:YYYY-MM-DD".
func (c Completion) Key() string {
	return c.ChoreID + ":" + c.Date.String()
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}
