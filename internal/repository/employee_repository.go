package repository

import (
	"context"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
)

// EmployeeRepository persists employee profiles. Reads join the account and role.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Employee, error)
}

type employeeRepository struct {
	db persistence.Querier
}

// NewEmployeeRepository builds repository.
func NewEmployeeRepository(db persistence.Querier) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeSelect = `
        SELECT e.id, e.account_id, e.role_id, e.department, e.created_at,
               a.username, a.email,
               r.id, r.name, r.priority_weight, r.can_access_all_tickets, r.created_at
        FROM employees e
        JOIN accounts a ON a.id = e.account_id
        JOIN roles r ON r.id = e.role_id`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (account_id, role_id, department)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		employee.AccountID,
		employee.RoleID,
		employee.Department,
	).Scan(&employee.ID, &employee.CreatedAt)
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return r.fetchSingle(ctx, employeeSelect+` WHERE e.id=$1`, id)
}

func (r *employeeRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Employee, error) {
	return r.fetchSingle(ctx, employeeSelect+` WHERE e.account_id=$1`, accountID)
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var employee domain.Employee
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&employee.ID,
		&employee.AccountID,
		&employee.RoleID,
		&employee.Department,
		&employee.CreatedAt,
		&employee.Username,
		&employee.Email,
		&employee.Role.ID,
		&employee.Role.Name,
		&employee.Role.PriorityWeight,
		&employee.Role.CanAccessAllTickets,
		&employee.Role.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}
