package repository

import (
	"context"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// EvaluationRepository stores the single satisfaction evaluation of a ticket.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *domain.Evaluation) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Evaluation, error)
}

type evaluationRepository struct {
	db persistence.Querier
}

// NewEvaluationRepository builds repository.
func NewEvaluationRepository(db persistence.Querier) EvaluationRepository {
	return &evaluationRepository{db: db}
}

// Create fails with a unique violation when the ticket already has an evaluation.
func (r *evaluationRepository) Create(ctx context.Context, evaluation *domain.Evaluation) error {
	const query = `
        INSERT INTO evaluations (ticket_id, score, comment)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		evaluation.TicketID,
		evaluation.Score,
		evaluation.Comment,
	).Scan(&evaluation.ID, &evaluation.CreatedAt)
}

func (r *evaluationRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Evaluation, error) {
	const query = `SELECT id, ticket_id, score, comment, created_at FROM evaluations WHERE ticket_id=$1`
	var evaluation domain.Evaluation
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, ticketID).Scan(
		&evaluation.ID,
		&evaluation.TicketID,
		&evaluation.Score,
		&evaluation.Comment,
		&evaluation.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &evaluation, nil
}
