package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PutBlob stores data and returns the new attachment ID.
func (s *Store) PutBlob(name, mimeType string, data []byte) (string, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if data == nil {
		data = []byte{}
	}
	id := uuid.Must(uuid.NewV7()).String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO attachments (id, name, mime_type, size, data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, mimeType, len(data), data, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert attachment: %w", err)
	}
	return id, nil
}

func (s *Store) GetBlob(id string) (*Attachment, error) {
	a := &Attachment{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, mime_type, size, data, created_at FROM attachments WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.MimeType, &a.Size, &a.Data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get attachment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment %s: %w", id, err)
	}
	a.CreatedAt = parseTimestamp("attachments.created_at", createdAt)
	return a, nil
}

// DeleteBlob removes an attachment. Deleting a missing ID is not an error.
func (s *Store) DeleteBlob(id string) error {
	_, err := s.db.Exec(`DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete attachment %s: %w", id, err)
	}
	return nil
}

// CountBlobs reports how many attachments are stored.
func (s *Store) CountBlobs() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM attachments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attachments: %w", err)
	}
	return n, nil
}

// ReadBlob returns only the content of an attachment.
func (s *Store) ReadBlob(id string) ([]byte, error) {
	a, err := s.GetBlob(id)
	if err != nil {
		return nil, err
	}
	return a.Data, nil
}
