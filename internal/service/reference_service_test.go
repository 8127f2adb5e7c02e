package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ticketera/helpdesk-service/internal/auth"
	"github.com/ticketera/helpdesk-service/internal/domain"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

var superuser = domain.Actor{AccountID: "acc-root", IsSuperuser: true}

func newReferenceService() (*ReferenceService, *fakeRoles, *fakeCategories) {
	roles := &fakeRoles{items: map[string]*domain.Role{}}
	categories := &fakeCategories{items: map[string]*domain.Category{}}
	return NewReferenceService(ReferenceDependencies{RoleRepo: roles, CategoryRepo: categories}), roles, categories
}

func TestReferenceService_Roles(t *testing.T) {
	svc, _, _ := newReferenceService()
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, requesterActor(), RoleInput{Name: "Soporte"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.CreateRole(ctx, superuser, RoleInput{Name: "Soporte", PriorityWeight: 11})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	role, err := svc.CreateRole(ctx, superuser, RoleInput{Name: "  Soporte ", CanAccessAllTickets: true})
	require.NoError(t, err)
	assert.Equal(t, "Soporte", role.Name)

	updated, err := svc.UpdateRole(ctx, superuser, role.ID, RoleInput{Name: "Mesa de ayuda", PriorityWeight: 2})
	require.NoError(t, err)
	assert.False(t, updated.CanAccessAllTickets)
	assert.Equal(t, 2, updated.PriorityWeight)

	_, err = svc.UpdateRole(ctx, superuser, "role-404", RoleInput{Name: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	roles, err := svc.ListRoles(ctx, superuser)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestReferenceService_Categories(t *testing.T) {
	svc, _, _ := newReferenceService()
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, superuser, CategoryInput{Name: "Hardware"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSLAHours, category.SLAHours)

	_, err = svc.CreateCategory(ctx, superuser, CategoryInput{Name: "Redes", SLAHours: -4})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	updated, err := svc.UpdateCategory(ctx, superuser, category.ID, CategoryInput{Name: "Hardware", SLAHours: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.SLAHours)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEmployeeService(t *testing.T) {
	accounts := &fakeAccounts{items: map[string]*domain.Account{}}
	employees := &fakeEmployees{items: map[string]*domain.Employee{}}
	roles := &fakeRoles{items: map[string]*domain.Role{"role-user": {ID: "role-user", Name: "Usuario", PriorityWeight: 1}}}
	tx := &fakeTx{}
	svc := NewEmployeeService(EmployeeDependencies{
		AccountRepo: accounts, EmployeeRepo: employees, RoleRepo: roles, Tx: tx, BcryptCost: bcrypt.MinCost,
	})
	ctx := context.Background()
	input := CreateEmployeeInput{Username: "ana", Email: "Ana@Example.com", Password: "correct-horse", RoleID: "role-user", Department: "Finanzas"}

	_, err := svc.CreateEmployee(ctx, requesterActor(), input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	weak := input
	weak.Password = "short"
	_, err = svc.CreateEmployee(ctx, superuser, weak)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	badEmail := input
	badEmail.Email = "not-an-email"
	_, err = svc.CreateEmployee(ctx, superuser, badEmail)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	employee, err := svc.CreateEmployee(ctx, superuser, input)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, "ana@example.com", employee.Email)
	assert.NotEmpty(t, employee.AccountID)
	account := accounts.items[employee.AccountID]
	require.NotNil(t, account)
	assert.NoError(t, auth.ComparePassword(account.PasswordHash, "correct-horse"))

	me, err := svc.Me(ctx, domain.Actor{AccountID: employee.AccountID, EmployeeID: employee.ID})
	require.NoError(t, err)
	assert.Equal(t, employee.ID, me.ID)

	_, err = svc.Me(ctx, superuser)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
