package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketera/helpdesk-service/internal/api/dto"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/service"
)

// CollaborationService is the subset of *service.CollaborationService the handler uses.
type CollaborationService interface {
	AddComment(ctx context.Context, actor domain.Actor, ticketID, message string) (*domain.Comment, error)
	ListComments(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Comment, error)
	AddAttachment(ctx context.Context, actor domain.Actor, ticketID string, input service.AttachmentInput) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Attachment, error)
	Evaluate(ctx context.Context, actor domain.Actor, ticketID string, score int, comment string) (*domain.Evaluation, error)
	GetEvaluation(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Evaluation, error)
}

// CollaborationHandler serves comments, attachments and evaluations of a ticket.
type CollaborationHandler struct {
	service CollaborationService
}

// NewCollaborationHandler constructs handler.
func NewCollaborationHandler(svc CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{service: svc}
}

// ListComments GET /api/tickets/:id/comments.
func (h *CollaborationHandler) ListComments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment POST /api/tickets/:id/comments.
func (h *CollaborationHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), actor, id, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListAttachments GET /api/tickets/:id/attachments.
func (h *CollaborationHandler) ListAttachments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	attachments, err := h.service.ListAttachments(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddAttachment POST /api/tickets/:id/attachments.
func (h *CollaborationHandler) AddAttachment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.AttachmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := h.service.AddAttachment(c.UserContext(), actor, id, service.AttachmentInput{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// GetEvaluation GET /api/tickets/:id/evaluation.
func (h *CollaborationHandler) GetEvaluation(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	evaluation, err := h.service.GetEvaluation(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": evaluationResponse(evaluation)})
}

// Evaluate POST /api/tickets/:id/evaluation.
func (h *CollaborationHandler) Evaluate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.EvaluationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	evaluation, err := h.service.Evaluate(c.UserContext(), actor, id, req.Score, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": evaluationResponse(evaluation)})
}
