package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// DefaultTicketLimit applies when a filter carries no limit.
const DefaultTicketLimit = 20

// MaxTicketLimit caps page sizes.
const MaxTicketLimit = 200

var ticketColumns = []string{
	"id", "external_key", "requester_id", "assignee_id", "category_id", "title", "description",
	"status", "priority", "is_project", "created_at", "updated_at", "due_at", "closed_at",
	"sla_breach_notified_at",
}

var ticketOrders = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"priority":    "priority ASC, created_at ASC",
	"-priority":   "priority DESC, created_at DESC",
	"updated_at":  "updated_at ASC",
	"-updated_at": "updated_at DESC",
	"due_at":      "due_at ASC NULLS LAST",
	"-due_at":     "due_at DESC NULLS LAST",
}

// ValidTicketOrder reports whether order is an accepted list ordering.
func ValidTicketOrder(order string) bool {
	_, ok := ticketOrders[order]
	return ok
}

// TicketFilter captures list parameters.
type TicketFilter struct {
	RequesterID *string
	AssigneeID  *string
	CategoryID  *string
	Statuses    []domain.TicketStatus
	Priorities  []int
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OrderBy     string
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
	MarkSLABreachNotified(ctx context.Context, id string, at time.Time) (bool, error)
}

type ticketRepository struct {
	db persistence.Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db persistence.Querier) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, requester_id, assignee_id, category_id, title, description,
            status, priority, is_project, created_at, updated_at, due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.CategoryID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		ticket.Priority,
		ticket.IsProject,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.DueAt,
	).Scan(&ticket.ID)
}

// Update writes every mutable field. closed_at is only ever filled, never replaced, so a
// concurrent close keeps the first stamp; the stored value is read back into ticket.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assignee_id=$1, category_id=$2, title=$3, description=$4, status=$5,
            priority=$6, is_project=$7, due_at=$8, updated_at=$9, closed_at=COALESCE(closed_at, $10)
        WHERE id=$11
        RETURNING closed_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		ticket.AssigneeID,
		ticket.CategoryID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		ticket.Priority,
		ticket.IsProject,
		ticket.DueAt,
		ticket.UpdatedAt,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.ClosedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + strings.Join(ticketColumns, ", ") + ` FROM tickets WHERE id=$1`
	return scanTicket(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id))
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + strings.Join(ticketColumns, ", ") + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return scanTicket(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	order, ok := ticketOrders[filter.OrderBy]
	if !ok {
		order = ticketOrders["-created_at"]
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTicketLimit
	}
	if limit > MaxTicketLimit {
		limit = MaxTicketLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query, args, err := applyTicketFilter(psql.Select(ticketColumns...).From("tickets"), filter).
		OrderBy(order).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	query, args, err := applyTicketFilter(psql.Select("COUNT(*)").From("tickets"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	err = persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func applyTicketFilter(b squirrel.SelectBuilder, filter TicketFilter) squirrel.SelectBuilder {
	if filter.RequesterID != nil {
		b = b.Where(squirrel.Eq{"requester_id": *filter.RequesterID})
	}
	if filter.AssigneeID != nil {
		b = b.Where(squirrel.Eq{"assignee_id": *filter.AssigneeID})
	}
	if filter.CategoryID != nil {
		b = b.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(squirrel.Eq{"status": statuses})
	}
	if len(filter.Priorities) > 0 {
		b = b.Where(squirrel.Eq{"priority": filter.Priorities})
	}
	if filter.CreatedFrom != nil {
		b = b.Where(squirrel.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		b = b.Where(squirrel.LtOrEq{"created_at": *filter.CreatedTo})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	return b
}

// likeEscaper makes search terms literal under ILIKE, whose default escape character is a backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const overdueWhere = `is_project = FALSE AND due_at < $1 AND status NOT IN ('RESOLVED', 'CLOSED')`

// ListOverdue returns overdue tickets that have not been flagged yet, oldest due date first.
func (r *ticketRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + strings.Join(ticketColumns, ", ") + ` FROM tickets
        WHERE ` + overdueWhere + ` AND sla_breach_notified_at IS NULL
        ORDER BY due_at ASC LIMIT $2`
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// CountOverdue counts every overdue ticket, flagged or not.
func (r *ticketRepository) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE ` + overdueWhere
	var total int
	err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, now).Scan(&total)
	return total, err
}

// MarkSLABreachNotified flags a ticket once. It reports false when another sweep got there first.
func (r *ticketRepository) MarkSLABreachNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET sla_breach_notified_at=$1
        WHERE id=$2 AND sla_breach_notified_at IS NULL`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var status string
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.CategoryID,
		&ticket.Title,
		&ticket.Description,
		&status,
		&ticket.Priority,
		&ticket.IsProject,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.DueAt,
		&ticket.ClosedAt,
		&ticket.SLABreachNotifiedAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
