package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/repository"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

const (
	maxCommentLength  = 5000
	maxAttachmentSize = 25 << 20
	commentPreviewLen = 80
)

// CollaborationService handles comments, attachment metadata and evaluations on tickets.
type CollaborationService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	evaluations repository.EvaluationRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// CollaborationDependencies bundles collaborators for the collaboration service.
type CollaborationDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	EvaluationRepo repository.EvaluationRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewCollaborationService constructs the service.
func NewCollaborationService(deps CollaborationDependencies) *CollaborationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollaborationService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		evaluations: deps.EvaluationRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// AddComment appends a comment. Markup is stripped before storing.
func (s *CollaborationService) AddComment(ctx context.Context, actor domain.Actor, ticketID, message string) (*domain.Comment, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	ticket, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID)
	if err != nil {
		return nil, err
	}
	message = plainText(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	if utf8.RuneCountInString(message) > maxCommentLength {
		return nil, apperrors.NewValidationError("message too long", map[string]any{"max": maxCommentLength})
	}

	comment := &domain.Comment{TicketID: ticket.ID, AuthorID: actor.EmployeeID, Message: message}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketCommentAdded, ticket.ID, events.ActorFrom(actor),
		events.TicketCommentAddedPayload{CommentID: comment.ID, AuthorID: comment.AuthorID, Preview: preview(message, commentPreviewLen)}))
	return comment, nil
}

// ListComments returns the comments of a ticket, oldest first.
func (s *CollaborationService) ListComments(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Comment, error) {
	if _, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	return comments, apperrors.MapError(err)
}

// AttachmentInput is the metadata of an already stored file.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// AddAttachment records attachment metadata for a ticket.
func (s *CollaborationService) AddAttachment(ctx context.Context, actor domain.Actor, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	ticket, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID)
	if err != nil {
		return nil, err
	}
	input.FileName = strings.TrimSpace(input.FileName)
	input.StorageKey = strings.TrimSpace(input.StorageKey)
	switch {
	case input.FileName == "":
		return nil, apperrors.NewValidationError("file_name required", nil)
	case input.StorageKey == "":
		return nil, apperrors.NewValidationError("storage_key required", nil)
	case input.SizeBytes < 0 || input.SizeBytes > maxAttachmentSize:
		return nil, apperrors.NewValidationError("size_bytes out of range", map[string]any{"max": maxAttachmentSize})
	}
	if input.MimeType == "" {
		input.MimeType = "application/octet-stream"
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		UploadedBy: actor.EmployeeID,
		StorageKey: input.StorageKey,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// ListAttachments returns attachment metadata for a ticket.
func (s *CollaborationService) ListAttachments(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Attachment, error) {
	if _, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	return attachments, apperrors.MapError(err)
}

// Evaluate records the satisfaction score of a finished ticket. Each ticket takes one evaluation.
func (s *CollaborationService) Evaluate(ctx context.Context, actor domain.Actor, ticketID string, score int, comment string) (*domain.Evaluation, error) {
	if score < domain.EvaluationMinScore || score > domain.EvaluationMaxScore {
		return nil, apperrors.NewValidationError("score out of range", map[string]any{
			"min": domain.EvaluationMinScore, "max": domain.EvaluationMaxScore,
		})
	}
	ticket, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Status.Finished() {
		return nil, apperrors.NewValidationError("ticket is not resolved", map[string]any{"status": ticket.Status})
	}
	if _, err := s.evaluations.GetByTicket(ctx, ticket.ID); err == nil {
		return nil, apperrors.NewConflict("ticket already evaluated", map[string]any{"ticket_id": ticket.ID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	evaluation := &domain.Evaluation{TicketID: ticket.ID, Score: score, Comment: plainText(comment)}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		return nil, apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketEvaluated, ticket.ID, events.ActorFrom(actor),
		events.TicketEvaluatedPayload{EvaluationID: evaluation.ID, Score: score}))
	return evaluation, nil
}

// GetEvaluation returns the evaluation of a ticket.
func (s *CollaborationService) GetEvaluation(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Evaluation, error) {
	if _, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	evaluation, err := s.evaluations.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "evaluation", map[string]any{"ticket_id": ticketID})
	}
	return evaluation, nil
}
