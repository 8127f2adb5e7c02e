package domain

import "time"

// Role describes an organizational role and how much it accelerates ticket priority.
type Role struct {
	ID                  string
	Name                string
	PriorityWeight      int
	CanAccessAllTickets bool
	CreatedAt           time.Time
}
