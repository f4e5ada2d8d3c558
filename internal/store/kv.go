package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetValue returns the value stored under key. ok is false when the key is
// absent.
func (s *Store) GetValue(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get value %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetValue(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set value %q: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteValue(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete value %q: %w", key, err)
	}
	return nil
}

func (s *Store) ListValues() ([]KeyValue, error) {
	rows, err := s.db.Query(`SELECT key, value, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list values: %w", err)
	}
	defer rows.Close()

	var values []KeyValue
	for rows.Next() {
		var kv KeyValue
		var updatedAt string
		if err := rows.Scan(&kv.Key, &kv.Value, &updatedAt); err != nil {
			return nil, err
		}
		kv.UpdatedAt = parseTimestamp("kv.updated_at", updatedAt)
		values = append(values, kv)
	}
	return values, rows.Err()
}
