package domain

import "time"

// Comment is an append-only message on a ticket thread.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Message   string
	CreatedAt time.Time
}
