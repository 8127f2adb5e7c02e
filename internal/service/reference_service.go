package service

import (
	"context"
	"strings"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/repository"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// Accepted range for Role.PriorityWeight.
const (
	MinRoleWeight = 0
	MaxRoleWeight = 10
)

// ReferenceService manages roles and categories.
type ReferenceService struct {
	roles      repository.RoleRepository
	categories repository.CategoryRepository
}

// ReferenceDependencies encapsulates repositories required for reference data.
type ReferenceDependencies struct {
	RoleRepo     repository.RoleRepository
	CategoryRepo repository.CategoryRepository
}

// NewReferenceService constructs the service.
func NewReferenceService(deps ReferenceDependencies) *ReferenceService {
	return &ReferenceService{roles: deps.RoleRepo, categories: deps.CategoryRepo}
}

// RoleInput carries role fields for create and update.
type RoleInput struct {
	Name                string
	PriorityWeight      int
	CanAccessAllTickets bool
}

// CategoryInput carries category fields for create and update. A zero SLAHours means the default.
type CategoryInput struct {
	Name     string
	SLAHours int
}

func requireSuperuser(actor domain.Actor) error {
	if !actor.IsSuperuser {
		return apperrors.NewForbidden("superuser required")
	}
	return nil
}

func (in RoleInput) validate() (RoleInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, apperrors.NewValidationError("name required", nil)
	}
	if in.PriorityWeight < MinRoleWeight || in.PriorityWeight > MaxRoleWeight {
		return in, apperrors.NewValidationError("priority_weight out of range", map[string]any{
			"min": MinRoleWeight, "max": MaxRoleWeight,
		})
	}
	return in, nil
}

func (in CategoryInput) validate() (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, apperrors.NewValidationError("name required", nil)
	}
	if in.SLAHours == 0 {
		in.SLAHours = domain.DefaultSLAHours
	}
	if in.SLAHours < 0 {
		return in, apperrors.NewValidationError("sla_hours must be positive", nil)
	}
	return in, nil
}

// ListRoles returns every role.
func (s *ReferenceService) ListRoles(ctx context.Context, actor domain.Actor) ([]domain.Role, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	roles, err := s.roles.List(ctx)
	return roles, apperrors.MapError(err)
}

// CreateRole adds a role.
func (s *ReferenceService) CreateRole(ctx context.Context, actor domain.Actor, input RoleInput) (*domain.Role, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	input, err := input.validate()
	if err != nil {
		return nil, err
	}
	role := &domain.Role{Name: input.Name, PriorityWeight: input.PriorityWeight, CanAccessAllTickets: input.CanAccessAllTickets}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// UpdateRole replaces the fields of a role.
func (s *ReferenceService) UpdateRole(ctx context.Context, actor domain.Actor, id string, input RoleInput) (*domain.Role, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	input, err := input.validate()
	if err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"role_id": id})
	}
	role.Name = input.Name
	role.PriorityWeight = input.PriorityWeight
	role.CanAccessAllTickets = input.CanAccessAllTickets
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"role_id": id})
	}
	return role, nil
}

// ListCategories returns every category. Any authenticated caller may read them.
func (s *ReferenceService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	return categories, apperrors.MapError(err)
}

// CreateCategory adds a category.
func (s *ReferenceService) CreateCategory(ctx context.Context, actor domain.Actor, input CategoryInput) (*domain.Category, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	input, err := input.validate()
	if err != nil {
		return nil, err
	}
	category := &domain.Category{Name: input.Name, SLAHours: input.SLAHours}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory replaces the fields of a category. Existing tickets keep their due dates.
func (s *ReferenceService) UpdateCategory(ctx context.Context, actor domain.Actor, id string, input CategoryInput) (*domain.Category, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	input, err := input.validate()
	if err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "category", map[string]any{"category_id": id})
	}
	category.Name = input.Name
	category.SLAHours = input.SLAHours
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.NotFoundOr(err, "category", map[string]any{"category_id": id})
	}
	return category, nil
}
