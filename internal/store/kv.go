package store

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// Entry is a stored value with its last write time.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Set upserts a key-value pair, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?`,
		key, value, now, value, now,
	)
	if err != nil {
		slog.Error("failed to write key", "key", key, "error", err)
		return err
	}
	return nil
}

// Get returns the value for key and whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// GetEntry returns the entry for key, or nil if the key is missing.
func (s *Store) GetEntry(key string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(
		`SELECT key, value, updated_at FROM kv WHERE key = ?`, key,
	).Scan(&e.Key, &e.Value, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
