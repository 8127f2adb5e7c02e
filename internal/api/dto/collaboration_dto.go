package dto

import (
	"time"

	"github.com/ticketera/helpdesk-service/internal/domain"
)

// CommentRequest payload.
type CommentRequest struct {
	Message string `json:"message"`
}

// CommentResponse represents a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentRequest records metadata of an uploaded file.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	UploadedBy string    `json:"uploaded_by"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// EvaluationRequest payload.
type EvaluationRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// EvaluationResponse represents an evaluation.
type EvaluationResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// KanbanMoveRequest payload.
type KanbanMoveRequest struct {
	Column   string `json:"column"`
	Position int    `json:"position"`
}

// KanbanCardResponse is a card on the board.
type KanbanCardResponse struct {
	TicketID    string              `json:"ticket_id"`
	ExternalKey string              `json:"external_key"`
	Title       string              `json:"title"`
	Priority    int                 `json:"priority"`
	Column      domain.TicketStatus `json:"column"`
	Position    int                 `json:"position"`
	RequesterID string              `json:"requester_id"`
	AssigneeID  *string             `json:"assignee_id"`
}

// KanbanColumnResponse is one board column.
type KanbanColumnResponse struct {
	Status domain.TicketStatus  `json:"status"`
	Cards  []KanbanCardResponse `json:"cards"`
}

// KanbanEntryResponse is the placement of a card after a move.
type KanbanEntryResponse struct {
	TicketID string              `json:"ticket_id"`
	Column   domain.TicketStatus `json:"column"`
	Position int                 `json:"position"`
}
