// Package localstate persists the console's client-side state in SQLite:
// the current admin session and misc settings. It is the Go counterpart of
// the browser console's localStorage record.
package localstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

// ErrNoSession is returned when no durable session row exists.
var ErrNoSession = errors.New("no stored session")

// Store is the SQLite-backed local state store.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the local state database under dataDir.
// Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "rewards-admin.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate state database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			principal_json TEXT NOT NULL,
			issued_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Session row
// ---------------------------------------------------------------------------

type sessionRow struct {
	PrincipalJSON string    `db:"principal_json"`
	IssuedAt      time.Time `db:"issued_at"`
}

// SaveSession stores the principal as the single durable session row,
// replacing any previous one.
func (s *Store) SaveSession(ctx context.Context, p *model.AdminPrincipal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	const q = `INSERT INTO session (id, principal_json, issued_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET principal_json = excluded.principal_json,
		issued_at = excluded.issued_at`

	if _, err := s.db.ExecContext(ctx, q, string(data), p.SessionIssuedAt.UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the durable session row, or ErrNoSession when none
// is stored. TTL enforcement is the session manager's job, not this layer's.
func (s *Store) LoadSession(ctx context.Context) (*model.AdminPrincipal, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, "SELECT principal_json, issued_at FROM session WHERE id = 1"); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var p model.AdminPrincipal
	if err := json.Unmarshal([]byte(row.PrincipalJSON), &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if p.SessionIssuedAt.IsZero() {
		p.SessionIssuedAt = row.IssuedAt
	}
	return &p, nil
}

// ClearSession removes the durable session row. Clearing an already-empty
// store is not an error.
func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value for key, or empty string if unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting stores a key/value setting, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
