// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package backoff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// A Store holds the serialized form of a Ledger.
//
// Implementations of Store must be safe for concurrent use by multiple
// goroutines.
type Store interface {
	// Load returns the saved data, or "" if nothing was saved.
	Load(ctx context.Context) (string, error)
	// Save replaces the saved data.
	Save(ctx context.Context, data string) error
}

// MemoryStore is a Store kept in memory. The zero value is an empty
// store.
type MemoryStore struct {
	lock sync.Mutex
	data string
}

// Load returns the data last saved.
func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.data, nil
}

// Save replaces the data.
func (s *MemoryStore) Save(_ context.Context, data string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data = data
	return nil
}

const metaKey = "backoff"

// SQLiteStore is a Store kept in the meta table of a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens, creating if necessary, the SQLite database at
// path and ensures its meta table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("xhr/backoff: failed to open database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("xhr/backoff: failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	_, err := db.Exec(schema)
	return err
}

// Load returns the saved data, or "" if nothing was saved.
func (s *SQLiteStore) Load(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("xhr/backoff: failed to load: %w", err)
	}
	return v, nil
}

// Save replaces the saved data.
func (s *SQLiteStore) Save(ctx context.Context, data string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, metaKey, data)
	if err != nil {
		return fmt.Errorf("xhr/backoff: failed to save: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
