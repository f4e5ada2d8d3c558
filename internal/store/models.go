package store

import "time"

// KeyValue is a single row of the kv table.
type KeyValue struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Attachment is an opaque blob referenced from an assignment by ID.
type Attachment struct {
	ID        string
	Name      string
	MimeType  string
	Size      int64
	Data      []byte
	CreatedAt time.Time
}
