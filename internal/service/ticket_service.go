package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/calendar"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
	"github.com/ticketera/helpdesk-service/internal/observability"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/sla"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets        repository.TicketRepository
	categories     repository.CategoryRepository
	employees      repository.EmployeeRepository
	meetings       repository.MeetingRepository
	kanban         repository.KanbanRepository
	history        repository.TicketHistoryRepository
	tx             TxRunner
	lifecycle      *lifecycle.Manager
	calendar       calendar.Client
	clock          *sla.Clock
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
	supportAddress string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CategoryRepo   repository.CategoryRepository
	EmployeeRepo   repository.EmployeeRepository
	MeetingRepo    repository.MeetingRepository
	KanbanRepo     repository.KanbanRepository
	HistoryRepo    repository.TicketHistoryRepository
	Tx             TxRunner
	Lifecycle      *lifecycle.Manager
	Calendar       calendar.Client
	Clock          *sla.Clock
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	SupportAddress string
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	CategoryID  string
	Title       string
	Description string
	IsProject   bool
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Items  []domain.Ticket
	Total  int
	Limit  int
	Offset int
}

// Duration is the elapsed open time of a ticket. BusinessHours counts only configured work hours.
type Duration struct {
	Closed        bool
	Hours         float64
	BusinessHours float64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	manager := deps.Lifecycle
	if manager == nil {
		manager = lifecycle.NewManager(nil)
	}
	return &TicketService{
		tickets:        deps.TicketRepo,
		categories:     deps.CategoryRepo,
		employees:      deps.EmployeeRepo,
		meetings:       deps.MeetingRepo,
		kanban:         deps.KanbanRepo,
		history:        deps.HistoryRepo,
		tx:             deps.Tx,
		lifecycle:      manager,
		calendar:       deps.Calendar,
		clock:          deps.Clock,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         logger,
		supportAddress: deps.SupportAddress,
	}
}

// CreateTicket files a ticket for the acting employee. Priority and due date are computed from
// the requester's role, the category SLA and the description.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input CreateTicketInput) (*domain.Ticket, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	if input.CategoryID == "" {
		return nil, apperrors.NewValidationError("category_id required", nil)
	}

	requester, err := s.employees.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "employee", map[string]any{"employee_id": actor.EmployeeID})
	}
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "category", map[string]any{"category_id": input.CategoryID})
	}

	ticket, err := s.lifecycle.NewTicket(*requester, *category, lifecycle.NewTicketInput{
		Title:       plainText(input.Title),
		Description: plainText(input.Description),
		IsProject:   input.IsProject,
	})
	if err != nil {
		return nil, err
	}
	ticket.ExternalKey = generateTicketKey()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return err
		}
		return s.kanban.Create(ctx, &domain.KanbanEntry{TicketID: ticket.ID, Column: ticket.Status})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.TicketCreated(ticket.Priority)
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("external_key", ticket.ExternalKey),
		zap.Int("priority", ticket.Priority))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketCreated, ticket.ID, events.ActorFrom(actor),
		events.TicketCreatedPayload{
			ExternalKey: ticket.ExternalKey,
			CategoryID:  ticket.CategoryID,
			Priority:    ticket.Priority,
			Title:       ticket.Title,
			DueAt:       ticket.DueAt,
			IsProject:   ticket.IsProject,
		}))
	return ticket, nil
}

// GetTicket returns a ticket the actor may access.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	return loadAccessibleTicket(ctx, s.tickets, actor, ticketID)
}

// ListTickets lists tickets matching filter. Non-privileged actors only ever see their own tickets.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) (TicketPage, error) {
	if filter.OrderBy != "" && !repository.ValidTicketOrder(filter.OrderBy) {
		return TicketPage{}, apperrors.NewValidationError("invalid ordering", map[string]any{"ordering": filter.OrderBy})
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return TicketPage{}, apperrors.NewValidationError("invalid status", map[string]any{"status": st})
		}
	}
	if !actor.Privileged() {
		if !actor.HasEmployee() {
			return TicketPage{Limit: filter.Limit, Offset: filter.Offset}, nil
		}
		own := actor.EmployeeID
		filter.RequesterID = &own
	}
	if filter.Limit <= 0 {
		filter.Limit = repository.DefaultTicketLimit
	}
	if filter.Limit > repository.MaxTicketLimit {
		filter.Limit = repository.MaxTicketLimit
	}

	items, err := s.tickets.List(ctx, filter)
	if err != nil {
		return TicketPage{}, apperrors.MapError(err)
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return TicketPage{}, apperrors.MapError(err)
	}
	return TicketPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// UpdateTicket applies a partial update under a row lock. Status changes stamp the close date at
// most once, keep the kanban column in sync and are recorded in the history.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, ticketID string, changes lifecycle.Changes) (*domain.Ticket, error) {
	if changes.Empty() {
		return nil, apperrors.NewValidationError("no changes supplied", nil)
	}
	if changes.Title != nil {
		t := plainText(*changes.Title)
		changes.Title = &t
	}
	if changes.Description != nil {
		d := plainText(*changes.Description)
		changes.Description = &d
	}

	var (
		ticket  *domain.Ticket
		outcome lifecycle.Outcome
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		if err := lifecycle.Authorize(actor, ticket, changes); err != nil {
			return err
		}

		var category *domain.Category
		if changes.AffectsDueDate() {
			categoryID := ticket.CategoryID
			if changes.CategoryID != nil {
				categoryID = *changes.CategoryID
			}
			category, err = s.categories.GetByID(ctx, categoryID)
			if err != nil {
				return apperrors.NotFoundOr(err, "category", map[string]any{"category_id": categoryID})
			}
		}
		if changes.AssigneeID != nil {
			if _, err := s.employees.GetByID(ctx, *changes.AssigneeID); err != nil {
				return apperrors.NotFoundOr(err, "employee", map[string]any{"employee_id": *changes.AssigneeID})
			}
		}

		oldDue := ticket.DueAt
		outcome, err = s.lifecycle.Apply(ticket, changes, category)
		if err != nil {
			return err
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		if outcome.StatusChanged {
			if err := s.kanban.SyncColumn(ctx, ticket.ID, ticket.Status); err != nil {
				return err
			}
		}
		return s.recordChanges(ctx, actor, ticket, outcome, oldDue)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishChanges(ctx, actor, ticket, outcome)
	return ticket, nil
}

func (s *TicketService) recordChanges(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, out lifecycle.Outcome, oldDue *time.Time) error {
	changedBy := employeeRef(actor)
	var entries []domain.TicketHistory
	if out.StatusChanged {
		entries = append(entries, domain.TicketHistory{
			ChangeType: domain.ChangeTypeStatus,
			OldValue:   map[string]any{"status": string(out.OldStatus)},
			NewValue:   map[string]any{"status": string(ticket.Status)},
		})
	}
	if out.PriorityChanged {
		entries = append(entries, domain.TicketHistory{
			ChangeType: domain.ChangeTypePriority,
			OldValue:   map[string]any{"priority": out.OldPriority},
			NewValue:   map[string]any{"priority": ticket.Priority},
		})
	}
	if out.AssigneeChanged {
		entries = append(entries, domain.TicketHistory{
			ChangeType: domain.ChangeTypeAssignee,
			OldValue:   map[string]any{"assignee_id": out.OldAssigneeID},
			NewValue:   map[string]any{"assignee_id": ticket.AssigneeID},
		})
	}
	if out.DueChanged {
		entries = append(entries, domain.TicketHistory{
			ChangeType: domain.ChangeTypeSLA,
			OldValue:   map[string]any{"due_at": oldDue},
			NewValue:   map[string]any{"due_at": ticket.DueAt},
		})
	}
	for i := range entries {
		entries[i].TicketID = ticket.ID
		entries[i].ChangedBy = changedBy
		if err := s.history.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TicketService) publishChanges(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, out lifecycle.Outcome) {
	evActor := events.ActorFrom(actor)
	if out.StatusChanged {
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketStatusChanged, ticket.ID, evActor,
			events.TicketStatusChangedPayload{OldStatus: out.OldStatus, NewStatus: ticket.Status, ClosedAt: ticket.ClosedAt}))
	}
	if out.PriorityChanged {
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketPriorityChanged, ticket.ID, evActor,
			events.TicketPriorityChangedPayload{OldPriority: out.OldPriority, NewPriority: ticket.Priority}))
	}
	if out.AssigneeChanged {
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketAssigned, ticket.ID, evActor,
			events.TicketAssignedPayload{OldAssigneeID: out.OldAssigneeID, AssigneeID: ticket.AssigneeID}))
	}
}

// ScheduleMeeting books an attendance meeting with the requester and the support queue. The
// calendar is called before anything is written: when it fails the ticket is left untouched.
// Meeting, status, kanban column and history are then committed together.
func (s *TicketService) ScheduleMeeting(ctx context.Context, actor domain.Actor, ticketID string, start, end time.Time) (*domain.Meeting, error) {
	if err := lifecycle.ValidateMeetingWindow(start, end); err != nil {
		return nil, err
	}
	ticket, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateSchedulable(ticket); err != nil {
		return nil, err
	}
	exists, err := s.meetings.ExistsForTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("meeting already scheduled", map[string]any{"ticket_id": ticket.ID})
	}

	requester, err := s.employees.GetByID(ctx, ticket.RequesterID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "employee", map[string]any{"employee_id": ticket.RequesterID})
	}

	subject := fmt.Sprintf("[%s] %s", ticket.ExternalKey, ticket.Title)
	attendees := []string{requester.Email}
	if s.supportAddress != "" {
		attendees = append(attendees, s.supportAddress)
	}
	eventID, err := s.calendar.CreateAttendanceEvent(ctx, subject, start.UTC(), end.UTC(), attendees)
	if err != nil {
		return nil, err
	}

	meeting := &domain.Meeting{TicketID: ticket.ID, StartsAt: start.UTC(), EndsAt: end.UTC(), EventID: eventID}
	var oldStatus domain.TicketStatus
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.tickets.GetForUpdate(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if err := lifecycle.ValidateSchedulable(locked); err != nil {
			return err
		}
		if err := s.meetings.Create(ctx, meeting); err != nil {
			return err
		}
		oldStatus = s.lifecycle.MarkScheduled(locked)
		if err := s.tickets.Update(ctx, locked); err != nil {
			return err
		}
		if err := s.kanban.SyncColumn(ctx, locked.ID, locked.Status); err != nil {
			return err
		}
		ticket = locked

		changedBy := employeeRef(actor)
		if err := s.history.Create(ctx, &domain.TicketHistory{
			TicketID:   locked.ID,
			ChangedBy:  changedBy,
			ChangeType: domain.ChangeTypeMeeting,
			NewValue: map[string]any{
				"event_id":  eventID,
				"starts_at": meeting.StartsAt,
				"ends_at":   meeting.EndsAt,
			},
		}); err != nil {
			return err
		}
		if oldStatus == locked.Status {
			return nil
		}
		return s.history.Create(ctx, &domain.TicketHistory{
			TicketID:   locked.ID,
			ChangedBy:  changedBy,
			ChangeType: domain.ChangeTypeStatus,
			OldValue:   map[string]any{"status": string(oldStatus)},
			NewValue:   map[string]any{"status": string(locked.Status)},
		})
	})
	if err != nil {
		s.logger.Warn("meeting not recorded; calendar event left orphaned",
			zap.String("ticket_id", ticketID),
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	evActor := events.ActorFrom(actor)
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketMeetingScheduled, ticket.ID, evActor,
		events.TicketMeetingScheduledPayload{MeetingID: meeting.ID, EventID: eventID, StartsAt: meeting.StartsAt, EndsAt: meeting.EndsAt}))
	if oldStatus != ticket.Status {
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketStatusChanged, ticket.ID, evActor,
			events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status}))
	}
	return meeting, nil
}

// GetMeeting returns the meeting scheduled for a ticket.
func (s *TicketService) GetMeeting(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Meeting, error) {
	if _, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	meeting, err := s.meetings.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "meeting", map[string]any{"ticket_id": ticketID})
	}
	return meeting, nil
}

// TicketDuration reports how long a closed ticket stayed open. An open ticket is a result with
// Closed=false, not an error.
func (s *TicketService) TicketDuration(ctx context.Context, actor domain.Actor, ticketID string) (Duration, error) {
	ticket, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID)
	if err != nil {
		return Duration{}, err
	}
	return s.durationOf(ticket), nil
}

func (s *TicketService) durationOf(ticket *domain.Ticket) Duration {
	d := lifecycle.TicketDuration(ticket)
	out := Duration{Closed: d.Closed, Hours: d.Hours}
	if d.Closed && s.clock != nil {
		out.BusinessHours = s.clock.BusinessDuration(ticket)
	}
	return out
}

// History lists the audit trail of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
