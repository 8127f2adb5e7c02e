package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/ticketera/helpdesk-service/internal/auth"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/repository"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// EmployeeService manages accounts and their employee profiles.
type EmployeeService struct {
	accounts   repository.AccountRepository
	employees  repository.EmployeeRepository
	roles      repository.RoleRepository
	tx         TxRunner
	bcryptCost int
}

// EmployeeDependencies encapsulates collaborators for employee management.
type EmployeeDependencies struct {
	AccountRepo  repository.AccountRepository
	EmployeeRepo repository.EmployeeRepository
	RoleRepo     repository.RoleRepository
	Tx           TxRunner
	BcryptCost   int
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	return &EmployeeService{
		accounts:   deps.AccountRepo,
		employees:  deps.EmployeeRepo,
		roles:      deps.RoleRepo,
		tx:         deps.Tx,
		bcryptCost: deps.BcryptCost,
	}
}

// CreateEmployeeInput describes a new account with its employee profile.
type CreateEmployeeInput struct {
	Username    string
	Email       string
	Password    string
	RoleID      string
	Department  string
	IsSuperuser bool
}

// CreateEmployee registers an account and its employee profile in one transaction.
func (s *EmployeeService) CreateEmployee(ctx context.Context, actor domain.Actor, input CreateEmployeeInput) (*domain.Employee, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Department = strings.TrimSpace(input.Department)
	if input.Username == "" {
		return nil, apperrors.NewValidationError("username required", nil)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	if input.RoleID == "" {
		return nil, apperrors.NewValidationError("role_id required", nil)
	}

	role, err := s.roles.GetByID(ctx, input.RoleID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"role_id": input.RoleID})
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrWeakPassword) {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsSuperuser:  input.IsSuperuser,
		Active:       true,
	}
	employee := &domain.Employee{
		RoleID:     role.ID,
		Department: input.Department,
		Username:   account.Username,
		Email:      account.Email,
		Role:       *role,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			return err
		}
		employee.AccountID = account.ID
		return s.employees.Create(ctx, employee)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// Me returns the employee profile of the actor.
func (s *EmployeeService) Me(ctx context.Context, actor domain.Actor) (*domain.Employee, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "employee", map[string]any{"employee_id": actor.EmployeeID})
	}
	return employee, nil
}
