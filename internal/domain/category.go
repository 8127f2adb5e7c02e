package domain

import "time"

// DefaultSLAHours applies when a category is created without an explicit SLA.
const DefaultSLAHours = 24

// Category is reference data grouping tickets and defining their SLA window.
type Category struct {
	ID        string
	Name      string
	SLAHours  int
	CreatedAt time.Time
}
