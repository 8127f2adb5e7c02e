package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// MeetingRepository stores scheduled attendance meetings, at most one per ticket.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Meeting, error)
	ExistsForTicket(ctx context.Context, ticketID string) (bool, error)
}

type meetingRepository struct {
	db persistence.Querier
}

// NewMeetingRepository builds repository.
func NewMeetingRepository(db persistence.Querier) MeetingRepository {
	return &meetingRepository{db: db}
}

func (r *meetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	const query = `
        INSERT INTO meetings (ticket_id, starts_at, ends_at, event_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		meeting.TicketID,
		meeting.StartsAt,
		meeting.EndsAt,
		meeting.EventID,
	).Scan(&meeting.ID, &meeting.CreatedAt)
}

func (r *meetingRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Meeting, error) {
	const query = `SELECT id, ticket_id, starts_at, ends_at, event_id, created_at FROM meetings WHERE ticket_id=$1`
	var meeting domain.Meeting
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, ticketID).Scan(
		&meeting.ID,
		&meeting.TicketID,
		&meeting.StartsAt,
		&meeting.EndsAt,
		&meeting.EventID,
		&meeting.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepository) ExistsForTicket(ctx context.Context, ticketID string) (bool, error) {
	const query = `SELECT 1 FROM meetings WHERE ticket_id=$1`
	var one int
	err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, ticketID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
