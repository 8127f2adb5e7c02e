package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketera/helpdesk-service/internal/api/dto"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/service"
)

// TicketService is the subset of *service.TicketService the handler uses.
type TicketService interface {
	CreateTicket(ctx context.Context, actor domain.Actor, input service.CreateTicketInput) (*domain.Ticket, error)
	GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error)
	ListTickets(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) (service.TicketPage, error)
	UpdateTicket(ctx context.Context, actor domain.Actor, ticketID string, changes lifecycle.Changes) (*domain.Ticket, error)
	ScheduleMeeting(ctx context.Context, actor domain.Actor, ticketID string, start, end time.Time) (*domain.Meeting, error)
	GetMeeting(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Meeting, error)
	TicketDuration(ctx context.Context, actor domain.Actor, ticketID string) (service.Duration, error)
	History(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.TicketHistory, error)
}

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := checkIDs(map[string]*string{"category_id": &req.CategoryID}); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actor, service.CreateTicketInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		IsProject:   req.IsProject,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.PageMeta{Total: page.Total, Limit: page.Limit, Offset: page.Offset},
	})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := checkIDs(map[string]*string{
		"category_id": req.CategoryID,
		"assignee_id": req.AssigneeID,
	}); err != nil {
		return err
	}
	changes := lifecycle.Changes{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Priority:      req.Priority,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
		IsProject:     req.IsProject,
	}
	if req.Status != nil {
		status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		changes.Status = &status
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, id, changes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ScheduleMeeting POST /api/tickets/:id/meeting.
func (h *TicketsHandler) ScheduleMeeting(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.ScheduleMeetingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	meeting, err := h.service.ScheduleMeeting(c.UserContext(), actor, id, req.Start, req.End)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": meetingResponse(meeting)})
}

// GetMeeting GET /api/tickets/:id/meeting.
func (h *TicketsHandler) GetMeeting(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	meeting, err := h.service.GetMeeting(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(meeting)})
}

// Duration GET /api/tickets/:id/duration.
func (h *TicketsHandler) Duration(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	d, err := h.service.TicketDuration(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	resp := dto.DurationResponse{TicketID: id, Closed: d.Closed}
	if d.Closed {
		hours, business := d.Hours, d.BusinessHours
		resp.Hours = &hours
		resp.BusinessHours = &business
	}
	return c.JSON(fiber.Map{"data": resp})
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}
