package domain

// KanbanEntry places a ticket on the board. Column mirrors ticket status but is presentation only.
type KanbanEntry struct {
	TicketID string
	Column   TicketStatus
	Position int
}

// KanbanCard is a board entry joined with the ticket fields shown on the card.
type KanbanCard struct {
	KanbanEntry
	ExternalKey string
	Title       string
	Priority    int
	RequesterID string
	AssigneeID  *string
}
