package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketera/helpdesk-service/internal/api/dto"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/service"
)

// KanbanHandler serves the board.
type KanbanHandler struct {
	kanban *service.KanbanService
}

// NewKanbanHandler constructs handler.
func NewKanbanHandler(kanban *service.KanbanService) *KanbanHandler {
	return &KanbanHandler{kanban: kanban}
}

// Board GET /api/kanban.
func (h *KanbanHandler) Board(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	columns, err := h.kanban.Board(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.KanbanColumnResponse, 0, len(columns))
	for _, col := range columns {
		cards := make([]dto.KanbanCardResponse, 0, len(col.Cards))
		for _, card := range col.Cards {
			cards = append(cards, dto.KanbanCardResponse{
				TicketID:    card.TicketID,
				ExternalKey: card.ExternalKey,
				Title:       card.Title,
				Priority:    card.Priority,
				Column:      card.Column,
				Position:    card.Position,
				RequesterID: card.RequesterID,
				AssigneeID:  card.AssigneeID,
			})
		}
		resp = append(resp, dto.KanbanColumnResponse{Status: col.Status, Cards: cards})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Move PUT /api/kanban/:ticketId.
func (h *KanbanHandler) Move(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticketId", "ticket")
	if err != nil {
		return err
	}
	var req dto.KanbanMoveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	column := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(req.Column)))
	entry, err := h.kanban.Move(c.UserContext(), actor, id, column, req.Position)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.KanbanEntryResponse{
		TicketID: entry.TicketID,
		Column:   entry.Column,
		Position: entry.Position,
	}})
}
