package dto

import (
	"time"

	"github.com/ticketera/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsProject   bool   `json:"is_project"`
}

// UpdateTicketRequest is a partial update. Omitted fields are left untouched.
type UpdateTicketRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	CategoryID    *string `json:"category_id"`
	Status        *string `json:"status"`
	Priority      *int    `json:"priority"`
	AssigneeID    *string `json:"assignee_id"`
	ClearAssignee bool    `json:"clear_assignee"`
	IsProject     *bool   `json:"is_project"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	ExternalKey string              `json:"external_key"`
	RequesterID string              `json:"requester_id"`
	AssigneeID  *string             `json:"assignee_id"`
	CategoryID  string              `json:"category_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	Priority    int                 `json:"priority"`
	IsProject   bool                `json:"is_project"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DueAt       *time.Time          `json:"due_at"`
	ClosedAt    *time.Time          `json:"closed_at"`
	Overdue     bool                `json:"overdue"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ScheduleMeetingRequest payload. Times are RFC 3339.
type ScheduleMeetingRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MeetingResponse represents a scheduled meeting.
type MeetingResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DurationResponse answers the duration query. Hours are null while the ticket is open.
type DurationResponse struct {
	TicketID      string   `json:"ticket_id"`
	Closed        bool     `json:"closed"`
	Hours         *float64 `json:"hours"`
	BusinessHours *float64 `json:"business_hours"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  *string                 `json:"changed_by"`
	OldValue   map[string]any          `json:"old_value,omitempty"`
	NewValue   map[string]any          `json:"new_value,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}
