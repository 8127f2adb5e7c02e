package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ticketera/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketPriorityChanged  EventType = "ticket_priority_changed"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventTicketMeetingScheduled EventType = "ticket_meeting_scheduled"
	EventTicketCommentAdded     EventType = "ticket_comment_added"
	EventTicketEvaluated        EventType = "ticket_evaluated"
	EventTicketSLABreached      EventType = "ticket_sla_breached"
)

// Actor identifies who caused an event. System events carry no employee.
type Actor struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	System     bool    `json:"system,omitempty"`
}

// ActorFrom converts the acting identity into event metadata.
func ActorFrom(actor domain.Actor) Actor {
	if !actor.HasEmployee() {
		return Actor{System: true}
	}
	id := actor.EmployeeID
	return Actor{EmployeeID: &id}
}

// SystemActor marks events raised by background jobs.
var SystemActor = Actor{System: true}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ExternalKey string     `json:"external_key"`
	CategoryID  string     `json:"category_id"`
	Priority    int        `json:"priority"`
	Title       string     `json:"title"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	IsProject   bool       `json:"is_project"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ClosedAt  *time.Time          `json:"closed_at,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority int `json:"old_priority"`
	NewPriority int `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	AssigneeID    *string `json:"assignee_id,omitempty"`
}

// TicketMeetingScheduledPayload payload.
type TicketMeetingScheduledPayload struct {
	MeetingID string    `json:"meeting_id"`
	EventID   string    `json:"event_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
	Preview   string `json:"preview"`
}

// TicketEvaluatedPayload payload.
type TicketEvaluatedPayload struct {
	EvaluationID string `json:"evaluation_id"`
	Score        int    `json:"score"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	DueAt    time.Time           `json:"due_at"`
	Status   domain.TicketStatus `json:"status"`
	Priority int                 `json:"priority"`
}
