package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"sync"
)

// KV is the string key/value contract both persistence tiers sit on.
//
// Update performs a read-modify-write of one key atomically with respect to other KV calls.
// Returning an error from fn aborts the write.
type KV interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Remove(keys ...string) error
	Update(key string, fn func(current string, found bool) (string, error)) error
}

// SQLiteKV stores keys in the kv table under a namespace, so several tiers can share one database file.
type SQLiteKV struct {
	db        *sql.DB
	namespace string
}

// NewSQLiteKV creates a [SQLiteKV] scoped to namespace. The kv table must exist (see [shared.RunMigrations]).
func NewSQLiteKV(db *sql.DB, namespace string) *SQLiteKV {
	return &SQLiteKV{db: db, namespace: namespace}
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLiteKV) Get(key string) (string, bool, error) {
	return s.get(s.db, key)
}

func (s *SQLiteKV) get(q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRow("SELECT value FROM kv WHERE namespace = ? AND key = ?", s.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(key, value string) error {
	return s.set(s.db, key, value)
}

func (s *SQLiteKV) set(q querier, key, value string) error {
	query := `
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := q.Exec(query, s.namespace, key, value); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Remove deletes every key in one transaction.
func (s *SQLiteKV) Remove(keys ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec("DELETE FROM kv WHERE namespace = ? AND key = ?", s.namespace, key); err != nil {
			return fmt.Errorf("failed to remove key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit removal: %w", err)
	}
	return nil
}

// Update reads and rewrites key inside a single transaction.
func (s *SQLiteKV) Update(key string, fn func(string, bool) (string, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, found, err := s.get(tx, key)
	if err != nil {
		return err
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if err := s.set(tx, key, next); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update of %s: %w", key, err)
	}
	return nil
}

// MemoryKV is a process-local [KV]. Its lifetime is the lifetime of the value, which makes it the ephemeral tier.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove deletes every key under one lock, so readers never observe a partial removal.
func (m *MemoryKV) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryKV) Update(key string, fn func(string, bool) (string, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.data[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	m.data[key] = next
	return nil
}

// Snapshot returns a copy of the stored data.
func (m *MemoryKV) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}
