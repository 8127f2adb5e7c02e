package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusPrioritized TicketStatus = "PRIORITIZED"
	TicketStatusScheduled   TicketStatus = "SCHEDULED"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
)

// TicketStatuses lists every status in lifecycle order. Kanban columns follow the same order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusPrioritized,
	TicketStatusScheduled,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Finished reports whether tickets in this status carry a close timestamp.
func (s TicketStatus) Finished() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Priority bounds. 1 is the most urgent.
const (
	PriorityHighest = 1
	PriorityLowest  = 5
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                  string
	ExternalKey         string
	RequesterID         string
	AssigneeID          *string
	CategoryID          string
	Title               string
	Description         string
	Status              TicketStatus
	Priority            int
	IsProject           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DueAt               *time.Time
	ClosedAt            *time.Time
	SLABreachNotifiedAt *time.Time
}
