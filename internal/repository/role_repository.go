package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// RoleRepository persists organizational roles.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
}

type roleRepository struct {
	db persistence.Querier
}

// NewRoleRepository builds repository.
func NewRoleRepository(db persistence.Querier) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (name, priority_weight, can_access_all_tickets)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		role.Name,
		role.PriorityWeight,
		role.CanAccessAllTickets,
	).Scan(&role.ID, &role.CreatedAt)
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	const query = `UPDATE roles SET name=$1, priority_weight=$2, can_access_all_tickets=$3 WHERE id=$4`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query,
		role.Name,
		role.PriorityWeight,
		role.CanAccessAllTickets,
		role.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	const query = `SELECT id, name, priority_weight, can_access_all_tickets, created_at FROM roles WHERE id=$1`
	var role domain.Role
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&role.ID,
		&role.Name,
		&role.PriorityWeight,
		&role.CanAccessAllTickets,
		&role.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	const query = `SELECT id, name, priority_weight, can_access_all_tickets, created_at FROM roles ORDER BY name ASC`
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.PriorityWeight, &role.CanAccessAllTickets, &role.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}
