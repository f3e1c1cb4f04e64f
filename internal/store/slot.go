package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Slot is a typed durable key holding one JSON document. A missing or
// corrupt document loads as the zero value, never as an error a caller
// must branch on.
type Slot[T any] struct {
	store *Store
	key   string
}

// NewSlot creates a Slot over the given key.
func NewSlot[T any](s *Store, key string) *Slot[T] {
	return &Slot[T]{store: s, key: key}
}

// Key returns the slot's durable key.
func (sl *Slot[T]) Key() string {
	return sl.key
}

// Load reads the slot's document. Absent and unparseable documents both
// yield the zero value with a nil error.
func (sl *Slot[T]) Load() (T, error) {
	var zero T
	var doc string
	err := sl.store.db.Get(&doc, `SELECT doc FROM slots WHERE key = ?`, sl.key)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("load slot %q: %w", sl.key, err)
	}

	var v T
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		// Corrupt document reads as empty.
		return zero, nil
	}
	return v, nil
}

// Save replaces the slot's document.
func (sl *Slot[T]) Save(v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal slot %q: %w", sl.key, err)
	}
	_, err = sl.store.db.Exec(
		`INSERT INTO slots (key, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		sl.key, string(b))
	if err != nil {
		return fmt.Errorf("save slot %q: %w", sl.key, err)
	}
	return nil
}

// Clear deletes the slot's document.
func (sl *Slot[T]) Clear() error {
	if _, err := sl.store.db.Exec(`DELETE FROM slots WHERE key = ?`, sl.key); err != nil {
		return fmt.Errorf("clear slot %q: %w", sl.key, err)
	}
	return nil
}
