// Package sqlite keeps the CLI's signed-in session in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// Storage keys, shared with the web client's localStorage layout.
const (
	KeyToken     = "auth_token"
	KeyUser      = "user_data"
	KeyExpiresAt = "auth_expires_at"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SessionStore implements ports.SessionStore on a key/value table.
type SessionStore struct {
	db *sql.DB
}

var _ ports.SessionStore = (*SessionStore)(nil)

// Open opens (or creates) the store at path.
func Open(path string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init session store: %w", err)
		}
	}
	return &SessionStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Load returns the stored session, or nil when none is stored. Corrupt user
// data clears the whole session.
func (s *SessionStore) Load(ctx context.Context) (*domain.AuthSession, error) {
	vals, err := s.get(ctx, KeyToken, KeyUser, KeyExpiresAt)
	if err != nil {
		return nil, err
	}
	token, userData := vals[KeyToken], vals[KeyUser]
	if token == "" || userData == "" {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		logging.FromContext(ctx).Warn("stored user data is corrupt, clearing session", "error", err)
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	sess := &domain.AuthSession{Token: token, User: user}
	if raw := vals[KeyExpiresAt]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			sess.ExpiresAt = t
		}
	}
	return sess, nil
}

// Save replaces the stored session.
func (s *SessionStore) Save(ctx context.Context, sess *domain.AuthSession) error {
	if !sess.Authenticated() {
		return errors.New("save session: no token")
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	put := func(key, value string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now)
		return err
	}

	if err := put(KeyToken, sess.Token); err != nil {
		return fmt.Errorf("save %s: %w", KeyToken, err)
	}
	if err := put(KeyUser, string(user)); err != nil {
		return fmt.Errorf("save %s: %w", KeyUser, err)
	}
	if sess.ExpiresAt.IsZero() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, KeyExpiresAt); err != nil {
			return fmt.Errorf("clear %s: %w", KeyExpiresAt, err)
		}
	} else if err := put(KeyExpiresAt, sess.ExpiresAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save %s: %w", KeyExpiresAt, err)
	}
	return tx.Commit()
}

// Clear removes the stored session.
func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (?, ?, ?)`, KeyToken, KeyUser, KeyExpiresAt)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		var v string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, k).Scan(&v)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			continue
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
