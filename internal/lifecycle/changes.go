package lifecycle

import (
	"strings"
	"time"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/priority"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// Changes is a partial ticket update. Nil fields are left untouched.
type Changes struct {
	Title         *string
	Description   *string
	CategoryID    *string
	Status        *domain.TicketStatus
	Priority      *int
	AssigneeID    *string
	ClearAssignee bool
	IsProject     *bool
}

// Empty reports whether the update changes nothing.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && c.CategoryID == nil && c.Status == nil &&
		c.Priority == nil && c.AssigneeID == nil && !c.ClearAssignee && c.IsProject == nil
}

// AffectsDueDate reports whether the update needs the effective category to recompute the due date.
func (c Changes) AffectsDueDate() bool {
	return c.CategoryID != nil || c.IsProject != nil
}

// Authorize rejects changes the actor is not allowed to make. Priority and assignment are
// triage decisions reserved for privileged actors.
func Authorize(actor domain.Actor, ticket *domain.Ticket, c Changes) error {
	if !CanAccess(actor, ticket) {
		return apperrors.NewForbidden("access denied")
	}
	if actor.Privileged() {
		return nil
	}
	if c.Priority != nil {
		return apperrors.NewForbidden("only support staff may change priority")
	}
	if c.AssigneeID != nil || c.ClearAssignee {
		return apperrors.NewForbidden("only support staff may assign tickets")
	}
	return nil
}

// Outcome describes what an applied update changed.
type Outcome struct {
	OldStatus       domain.TicketStatus
	StatusChanged   bool
	OldPriority     int
	PriorityChanged bool
	OldAssigneeID   *string
	AssigneeChanged bool
	DueChanged      bool
	ClosedStamped   bool
}

// Apply validates and applies c to ticket. category is the ticket's effective category after the
// update and is required when c.AffectsDueDate.
func (m *Manager) Apply(ticket *domain.Ticket, c Changes, category *domain.Category) (Outcome, error) {
	out := Outcome{OldStatus: ticket.Status, OldPriority: ticket.Priority, OldAssigneeID: ticket.AssigneeID}

	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		if err := validateTitle(title); err != nil {
			return Outcome{}, err
		}
		c.Title = &title
	}
	if c.Description != nil {
		desc := strings.TrimSpace(*c.Description)
		if desc == "" {
			return Outcome{}, apperrors.NewValidationError("description required", nil)
		}
		c.Description = &desc
	}
	if c.Status != nil {
		if err := ValidateTransition(ticket.Status, *c.Status); err != nil {
			return Outcome{}, err
		}
	}
	if c.Priority != nil {
		if err := ValidatePriority(*c.Priority); err != nil {
			return Outcome{}, err
		}
	}
	if c.AffectsDueDate() {
		if category == nil {
			return Outcome{}, apperrors.NewValidationError("category required", nil)
		}
		if c.CategoryID != nil && *c.CategoryID != category.ID {
			return Outcome{}, apperrors.NewValidationError("category mismatch", map[string]any{"category_id": *c.CategoryID})
		}
	}

	if c.Title != nil {
		ticket.Title = *c.Title
	}
	if c.Description != nil {
		ticket.Description = *c.Description
	}
	if c.Status != nil && *c.Status != ticket.Status {
		ticket.Status = *c.Status
		out.StatusChanged = true
	}
	if c.Priority != nil && *c.Priority != ticket.Priority {
		ticket.Priority = *c.Priority
		out.PriorityChanged = true
	}
	if c.ClearAssignee && ticket.AssigneeID != nil {
		ticket.AssigneeID = nil
		out.AssigneeChanged = true
	} else if c.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *c.AssigneeID) {
		assignee := *c.AssigneeID
		ticket.AssigneeID = &assignee
		out.AssigneeChanged = true
	}
	if c.AffectsDueDate() {
		if c.CategoryID != nil {
			ticket.CategoryID = *c.CategoryID
		}
		if c.IsProject != nil {
			ticket.IsProject = *c.IsProject
		}
		due := priority.DueDateFor(ticket.CreatedAt, category.SLAHours, ticket.IsProject)
		if !sameTime(due, ticket.DueAt) {
			ticket.DueAt = due
			out.DueChanged = true
		}
	}

	out.ClosedStamped = m.StampClose(ticket)
	ticket.UpdatedAt = m.Now()
	return out, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
