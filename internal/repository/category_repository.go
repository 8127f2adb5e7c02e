package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// CategoryRepository persists ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	db persistence.Querier
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(db persistence.Querier) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, sla_hours)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		category.Name,
		category.SLAHours,
	).Scan(&category.ID, &category.CreatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `UPDATE categories SET name=$1, sla_hours=$2 WHERE id=$3`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, category.Name, category.SLAHours, category.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `SELECT id, name, sla_hours, created_at FROM categories WHERE id=$1`
	var category domain.Category
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.SLAHours,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, sla_hours, created_at FROM categories ORDER BY name ASC`
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.SLAHours, &category.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
