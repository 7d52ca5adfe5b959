package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/zerr"
	_ "modernc.org/sqlite"

	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
)

//go:embed migrations.sql
var migrationsFS embed.FS

var _ Store = (*SQLite)(nil)

// SQLite is the Store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, zerr.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "create db dir"), "path", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "open sqlite"), "path", path)
	}
	// One connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	appLog.Debug("store opened", "path", path)
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return zerr.Wrap(err, "read migrations")
	}
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return zerr.Wrap(err, "apply migrations")
	}
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- chores ----

const choreColumns = `id, name, priority, assignee_id, recurrence, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChore(row rowScanner) (model.Chore, error) {
	var (
		c                  model.Chore
		priority, rule, ts string
	)
	if err := row.Scan(&c.ID, &c.Name, &priority, &c.AssigneeID, &rule, &ts); err != nil {
		return model.Chore{}, err
	}
	c.Priority = model.Priority(priority)

	r, err := recurrence.Unmarshal([]byte(rule))
	if err != nil {
		return model.Chore{}, zerr.With(err, "chore", c.ID)
	}
	c.Recurrence = r

	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		c.CreatedAt = t
	}
	return c, nil
}

func (s *SQLite) ListChores(ctx context.Context) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+choreColumns+` FROM chores ORDER BY created_at, id`)
	if err != nil {
		return nil, zerr.Wrap(err, "list chores")
	}
	defer rows.Close()

	var out []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, zerr.Wrap(err, "scan chore")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "list chores")
	}
	return out, nil
}

func (s *SQLite) GetChore(ctx context.Context, id string) (model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreColumns+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chore{}, zerr.With(zerr.Wrap(ErrNotFound, "chore"), "id", id)
	}
	if err != nil {
		return model.Chore{}, zerr.With(zerr.Wrap(err, "get chore"), "id", id)
	}
	return c, nil
}

func (s *SQLite) SaveChore(ctx context.Context, c model.Chore) (model.Chore, error) {
	if err := ValidateChore(&c); err != nil {
		return model.Chore{}, err
	}
	if c.ID == "" {
		c.ID = model.NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	rule, err := recurrence.Marshal(c.Recurrence)
	if err != nil {
		return model.Chore{}, zerr.With(zerr.Wrap(err, "encode recurrence"), "id", c.ID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chores(`+choreColumns+`) VALUES(?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name,
		   priority=excluded.priority,
		   assignee_id=excluded.assignee_id,
		   recurrence=excluded.recurrence`,
		c.ID, c.Name, string(c.Priority), c.AssigneeID, string(rule), c.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Chore{}, zerr.With(zerr.Wrap(err, "save chore"), "id", c.ID)
	}
	return s.GetChore(ctx, c.ID)
}

func (s *SQLite) DeleteChore(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM completions WHERE chore_id = ?`, id); err != nil {
			return zerr.Wrap(err, "delete completions")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
		if err != nil {
			return zerr.Wrap(err, "delete chore")
		}
		return requireAffected(res, "chore", id)
	})
}

// ---- members ----

func (s *SQLite) ListMembers(ctx context.Context) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM members ORDER BY created_at, id`)
	if err != nil {
		return nil, zerr.Wrap(err, "list members")
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Color); err != nil {
			return nil, zerr.Wrap(err, "scan member")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "list members")
	}
	return out, nil
}

func (s *SQLite) SaveMember(ctx context.Context, m model.Member) (model.Member, error) {
	if strings.TrimSpace(m.Name) == "" {
		return model.Member{}, zerr.With(zerr.Wrap(ErrInvalid, "member name is required"), "id", m.ID)
	}
	if m.ID == "" {
		m.ID = model.NewID()
	}
	if m.Color == "" {
		existing, err := s.ListMembers(ctx)
		if err != nil {
			return model.Member{}, err
		}
		m.Color = model.NextColor(existing)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members(id, name, color, created_at) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, color=excluded.color`,
		m.ID, m.Name, m.Color, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Member{}, zerr.With(zerr.Wrap(err, "save member"), "id", m.ID)
	}
	return m, nil
}

func (s *SQLite) DeleteMember(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE chores SET assignee_id = '' WHERE assignee_id = ?`, id); err != nil {
			return zerr.Wrap(err, "unassign chores")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
		if err != nil {
			return zerr.Wrap(err, "delete member")
		}
		return requireAffected(res, "member", id)
	})
}

// ---- completions ----

func (s *SQLite) ListCompletions(ctx context.Context, start, end dates.Date) ([]model.Completion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chore_id, date FROM completions WHERE date >= ? AND date <= ? ORDER BY date, chore_id`,
		start.String(), end.String(),
	)
	if err != nil {
		return nil, zerr.Wrap(err, "list completions")
	}
	defer rows.Close()

	var out []model.Completion
	for rows.Next() {
		var (
			c  model.Completion
			ds string
		)
		if err := rows.Scan(&c.ChoreID, &ds); err != nil {
			return nil, zerr.Wrap(err, "scan completion")
		}
		if c.Date, err = dates.Parse(ds); err != nil {
			return nil, zerr.With(err, "chore", c.ChoreID)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "list completions")
	}
	return out, nil
}

func (s *SQLite) ToggleCompletion(ctx context.Context, choreID string, date dates.Date) (bool, error) {
	var done bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM chores WHERE id = ?`, choreID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return zerr.With(zerr.Wrap(ErrNotFound, "chore"), "id", choreID)
		}
		if err != nil {
			return zerr.Wrap(err, "lookup chore")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM completions WHERE chore_id = ? AND date = ?`, choreID, date.String())
		if err != nil {
			return zerr.Wrap(err, "clear completion")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			done = false
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO completions(chore_id, date) VALUES(?,?)`, choreID, date.String()); err != nil {
			return zerr.Wrap(err, "insert completion")
		}
		done = true
		return nil
	})
	return done, err
}

// ---- helpers ----

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, "commit tx")
	}
	return nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return zerr.Wrap(err, "rows affected")
	}
	if n == 0 {
		return zerr.With(zerr.Wrap(ErrNotFound, kind), "id", id)
	}
	return nil
}
