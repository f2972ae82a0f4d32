package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/docsite"
)

// Compile-time interface verification.
var _ docsite.Storage = (*Storage)(nil)

// Storage implements docsite.Storage over one scope of the entries table.
// A scope plays the role of a browser tab's session storage: values survive
// between CLI invocations until the scope is ended.
type Storage struct {
	db    *DB
	scope string
	now   func() time.Time
}

// NewStorage returns a Storage for the named scope. The scope row is created
// lazily on the first write.
func NewStorage(db *DB, scope string) *Storage {
	return &Storage{db: db, scope: scope, now: time.Now}
}

// Scope returns the scope name.
func (s *Storage) Scope() string {
	return s.scope
}

// Get returns the value stored under key.
func (s *Storage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(context.Background(), `
		SELECT value FROM entries WHERE scope = ? AND key = ?
	`, s.scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, docsite.Errorf(docsite.EUNAVAILABLE, "read %s: %v", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value. The scope row
// and the entry are written in one transaction.
func (s *Storage) Set(key, value string) error {
	ctx := context.Background()
	now := s.now().UTC().Format(time.RFC3339)

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scopes (id, created_at) VALUES (?, ?)
			ON CONFLICT (id) DO NOTHING
		`, s.scope, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, s.scope, key, value, now)
		return err
	})
	if err != nil {
		return docsite.Errorf(docsite.EUNAVAILABLE, "write %s: %v", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Storage) Remove(key string) error {
	if _, err := s.db.ExecContext(context.Background(), `
		DELETE FROM entries WHERE scope = ? AND key = ?
	`, s.scope, key); err != nil {
		return docsite.Errorf(docsite.EUNAVAILABLE, "remove %s: %v", key, err)
	}
	return nil
}

// EndSession deletes the scope and everything stored in it.
func (s *Storage) EndSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scopes WHERE id = ?`, s.scope)
	return err
}

// Keys returns the keys stored in the scope, sorted.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM entries WHERE scope = ? ORDER BY key
	`, s.scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ScopeInfo describes a stored scope.
type ScopeInfo struct {
	ID        string
	CreatedAt time.Time
	Entries   int
}

// Scopes lists stored scopes, newest first.
func Scopes(ctx context.Context, db *DB, limit, offset int) ([]*ScopeInfo, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT s.id, s.created_at, COUNT(e.key)
		FROM scopes s LEFT JOIN entries e ON e.scope = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.id`)
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			query.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	}

	rows, err := db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []*ScopeInfo
	for rows.Next() {
		var info ScopeInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &createdAt, &info.Entries); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("scope %s: bad created_at: %w", info.ID, err)
		}
		scopes = append(scopes, &info)
	}
	return scopes, rows.Err()
}
