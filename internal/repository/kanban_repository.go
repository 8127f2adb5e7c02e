package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// KanbanRepository places tickets on the board.
type KanbanRepository interface {
	Create(ctx context.Context, entry *domain.KanbanEntry) error
	Get(ctx context.Context, ticketID string) (*domain.KanbanEntry, error)
	SyncColumn(ctx context.Context, ticketID string, column domain.TicketStatus) error
	Move(ctx context.Context, ticketID string, column domain.TicketStatus, position int) error
	Board(ctx context.Context, requesterID *string) ([]domain.KanbanCard, error)
}

type kanbanRepository struct {
	db persistence.Querier
}

// NewKanbanRepository builds repository.
func NewKanbanRepository(db persistence.Querier) KanbanRepository {
	return &kanbanRepository{db: db}
}

// Create appends the entry at the end of its column and stores the resulting position.
func (r *kanbanRepository) Create(ctx context.Context, entry *domain.KanbanEntry) error {
	const query = `
        INSERT INTO kanban_entries (ticket_id, column_name, position)
        VALUES ($1, $2, (SELECT COALESCE(MAX(position) + 1, 0) FROM kanban_entries WHERE column_name = $2))
        RETURNING position`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		entry.TicketID,
		string(entry.Column),
	).Scan(&entry.Position)
}

func (r *kanbanRepository) Get(ctx context.Context, ticketID string) (*domain.KanbanEntry, error) {
	const query = `SELECT ticket_id, column_name, position FROM kanban_entries WHERE ticket_id=$1`
	var entry domain.KanbanEntry
	var column string
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, ticketID).Scan(
		&entry.TicketID,
		&column,
		&entry.Position,
	); err != nil {
		return nil, err
	}
	entry.Column = domain.TicketStatus(column)
	return &entry, nil
}

// SyncColumn moves the entry to the end of column unless it already sits there.
func (r *kanbanRepository) SyncColumn(ctx context.Context, ticketID string, column domain.TicketStatus) error {
	const query = `
        UPDATE kanban_entries
        SET column_name = $1,
            position = (SELECT COALESCE(MAX(position) + 1, 0) FROM kanban_entries WHERE column_name = $1)
        WHERE ticket_id = $2 AND column_name <> $1`
	_, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, string(column), ticketID)
	return err
}

// Move opens a slot at position in column and places the entry there.
func (r *kanbanRepository) Move(ctx context.Context, ticketID string, column domain.TicketStatus, position int) error {
	q := persistence.QuerierFromCtx(ctx, r.db)

	const shift = `
        UPDATE kanban_entries SET position = position + 1
        WHERE column_name = $1 AND position >= $2 AND ticket_id <> $3`
	if _, err := q.Exec(ctx, shift, string(column), position, ticketID); err != nil {
		return err
	}

	const place = `UPDATE kanban_entries SET column_name = $1, position = $2 WHERE ticket_id = $3`
	cmd, err := q.Exec(ctx, place, string(column), position, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Board lists cards, restricted to one requester when requesterID is set.
func (r *kanbanRepository) Board(ctx context.Context, requesterID *string) ([]domain.KanbanCard, error) {
	b := psql.Select(
		"k.ticket_id", "k.column_name", "k.position",
		"t.external_key", "t.title", "t.priority", "t.requester_id", "t.assignee_id",
	).
		From("kanban_entries k").
		Join("tickets t ON t.id = k.ticket_id").
		OrderBy("k.position ASC", "t.created_at ASC")
	if requesterID != nil {
		b = b.Where("t.requester_id = ?", *requesterID)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KanbanCard
	for rows.Next() {
		var card domain.KanbanCard
		var column string
		if err := rows.Scan(
			&card.TicketID,
			&column,
			&card.Position,
			&card.ExternalKey,
			&card.Title,
			&card.Priority,
			&card.RequesterID,
			&card.AssigneeID,
		); err != nil {
			return nil, err
		}
		card.Column = domain.TicketStatus(column)
		result = append(result, card)
	}
	return result, rows.Err()
}
