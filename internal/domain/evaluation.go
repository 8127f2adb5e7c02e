package domain

import "time"

// Evaluation bounds.
const (
	EvaluationMinScore = 1
	EvaluationMaxScore = 5
)

// Evaluation is the requester's satisfaction score for a finished ticket.
type Evaluation struct {
	ID        string
	TicketID  string
	Score     int
	Comment   string
	CreatedAt time.Time
}
