// Package lifecycle holds the ticket state rules: who may act on a ticket, which status moves are
// allowed, and the timestamps derived from status.
package lifecycle

import (
	"math"
	"strings"
	"time"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/priority"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// MaxTitleLength bounds ticket titles.
const MaxTitleLength = 120

// Manager applies lifecycle rules to tickets. It never touches storage.
type Manager struct {
	now func() time.Time
}

// NewManager builds a manager. A nil clock defaults to time.Now.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{now: now}
}

// Now returns the manager's current time in UTC.
func (m *Manager) Now() time.Time {
	return m.now().UTC()
}

// CanAccess reports whether actor may read or mutate ticket.
func CanAccess(actor domain.Actor, ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	if actor.Privileged() {
		return true
	}
	return actor.HasEmployee() && ticket.RequesterID == actor.EmployeeID
}

// NewTicketInput carries the requester-supplied fields of a ticket.
type NewTicketInput struct {
	Title       string
	Description string
	IsProject   bool
}

// NewTicket builds an OPEN ticket with its priority and due date computed.
func (m *Manager) NewTicket(requester domain.Employee, category domain.Category, input NewTicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	createdAt := m.Now()
	return &domain.Ticket{
		RequesterID: requester.ID,
		CategoryID:  category.ID,
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority.ComputePriority(requester.Role.PriorityWeight, category.SLAHours, description),
		IsProject:   input.IsProject,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		DueAt:       priority.DueDateFor(createdAt, category.SLAHours, input.IsProject),
	}, nil
}

// ValidateTransition checks a status move. Staying in the same status is always allowed.
// Finished tickets only move forward: RESOLVED to CLOSED, and CLOSED nowhere.
func ValidateTransition(from, to domain.TicketStatus) error {
	if !to.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": to})
	}
	if from == to {
		return nil
	}
	switch from {
	case domain.TicketStatusClosed:
		return apperrors.NewValidationError("closed tickets cannot change status", map[string]any{"from": from, "to": to})
	case domain.TicketStatusResolved:
		if to != domain.TicketStatusClosed {
			return apperrors.NewValidationError("resolved tickets can only be closed", map[string]any{"from": from, "to": to})
		}
	}
	return nil
}

// ValidatePriority checks a manually supplied priority.
func ValidatePriority(p int) error {
	if p < domain.PriorityHighest || p > domain.PriorityLowest {
		return apperrors.NewValidationError("priority must be between 1 and 5", map[string]any{"priority": p})
	}
	return nil
}

// ValidateMeetingWindow requires start to be strictly before end.
func ValidateMeetingWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.NewValidationError("start and end required", nil)
	}
	if !start.Before(end) {
		return apperrors.NewValidationError("meeting start must be before end", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})
	}
	return nil
}

// ValidateSchedulable rejects meetings for tickets that are already finished.
func ValidateSchedulable(ticket *domain.Ticket) error {
	if ticket.Status.Finished() {
		return apperrors.NewValidationError("finished tickets cannot be scheduled", map[string]any{"status": ticket.Status})
	}
	return ValidateTransition(ticket.Status, domain.TicketStatusScheduled)
}

// MarkScheduled moves the ticket to SCHEDULED after its meeting was created.
func (m *Manager) MarkScheduled(ticket *domain.Ticket) (old domain.TicketStatus) {
	old = ticket.Status
	ticket.Status = domain.TicketStatusScheduled
	ticket.UpdatedAt = m.Now()
	return old
}

// StampClose sets ClosedAt the first time the ticket reaches a finished status.
// It reports whether the stamp was applied.
func (m *Manager) StampClose(ticket *domain.Ticket) bool {
	if !ticket.Status.Finished() || ticket.ClosedAt != nil {
		return false
	}
	now := m.Now()
	ticket.ClosedAt = &now
	return true
}

// Duration is the result of a duration query.
type Duration struct {
	Closed bool
	Hours  float64
}

// TicketDuration returns the hours from creation to close, rounded to two decimals.
// Tickets without a close timestamp report Closed=false.
func TicketDuration(ticket *domain.Ticket) Duration {
	if ticket == nil || ticket.ClosedAt == nil {
		return Duration{}
	}
	elapsed := ticket.ClosedAt.Sub(ticket.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return Duration{Closed: true, Hours: RoundHours(elapsed.Hours())}
}

// RoundHours rounds to two decimals.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	if len([]rune(title)) > MaxTitleLength {
		return apperrors.NewValidationError("title too long", map[string]any{"max": MaxTitleLength})
	}
	return nil
}
