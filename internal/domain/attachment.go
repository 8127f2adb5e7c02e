package domain

import "time"

// Attachment stores metadata for a file kept in external storage.
type Attachment struct {
	ID         string
	TicketID   string
	UploadedBy string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
