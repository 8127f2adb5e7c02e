package domain

import "time"

// Meeting is the calendar event scheduled for a ticket.
type Meeting struct {
	ID        string
	TicketID  string
	StartsAt  time.Time
	EndsAt    time.Time
	EventID   string
	CreatedAt time.Time
}
