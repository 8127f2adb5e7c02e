package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/service"
)

const sampleSeed = `
roles:
  - name: Soporte
    priority_weight: 0
    can_access_all_tickets: true
  - name: Gerencia
    priority_weight: 4
categories:
  - name: Hardware
    sla_hours: 48
  - name: Redes
employees:
  - username: mesa
    email: mesa@example.com
    password: S3guro!pass
    role: soporte
    department: TI
  - username: existing
    email: existing@example.com
    password: S3guro!pass
    role: Gerencia
`

type fakeReference struct {
	roles      []domain.Role
	categories []domain.Category
}

func (f *fakeReference) ListRoles(context.Context, domain.Actor) ([]domain.Role, error) {
	return f.roles, nil
}

func (f *fakeReference) CreateRole(_ context.Context, _ domain.Actor, in service.RoleInput) (*domain.Role, error) {
	r := domain.Role{ID: "role-" + strings.ToLower(in.Name), Name: in.Name, PriorityWeight: in.PriorityWeight, CanAccessAllTickets: in.CanAccessAllTickets}
	f.roles = append(f.roles, r)
	return &r, nil
}

func (f *fakeReference) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeReference) CreateCategory(_ context.Context, _ domain.Actor, in service.CategoryInput) (*domain.Category, error) {
	hours := in.SLAHours
	if hours == 0 {
		hours = domain.DefaultSLAHours
	}
	c := domain.Category{ID: "cat-" + strings.ToLower(in.Name), Name: in.Name, SLAHours: hours}
	f.categories = append(f.categories, c)
	return &c, nil
}

type fakeEmployees struct {
	created  []service.CreateEmployeeInput
	accounts fakeAccounts
}

func (f *fakeEmployees) CreateEmployee(_ context.Context, actor domain.Actor, in service.CreateEmployeeInput) (*domain.Employee, error) {
	if !actor.IsSuperuser {
		return nil, assert.AnError
	}
	f.created = append(f.created, in)
	if f.accounts != nil {
		f.accounts[in.Username] = true
	}
	return &domain.Employee{ID: "emp-" + in.Username}, nil
}

type fakeAccounts map[string]bool

func (f fakeAccounts) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	if f[username] {
		return &domain.Account{Username: username}, nil
	}
	return nil, pgx.ErrNoRows
}

func TestSeederApply(t *testing.T) {
	seed, err := parseSeed(strings.NewReader(sampleSeed))
	require.NoError(t, err)

	ref := &fakeReference{roles: []domain.Role{{ID: "role-gerencia", Name: "Gerencia", PriorityWeight: 4}}}
	accounts := fakeAccounts{"existing": true}
	emps := &fakeEmployees{accounts: accounts}
	var out bytes.Buffer
	s := &seeder{reference: ref, employees: emps, accounts: accounts, out: &out}

	require.NoError(t, s.apply(context.Background(), seed))

	assert.Len(t, ref.roles, 2)
	require.Len(t, ref.categories, 2)
	assert.Equal(t, 48, ref.categories[0].SLAHours)
	assert.Equal(t, domain.DefaultSLAHours, ref.categories[1].SLAHours)
	require.Len(t, emps.created, 1)
	assert.Equal(t, "role-soporte", emps.created[0].RoleID)
	assert.Equal(t, "TI", emps.created[0].Department)
	assert.Contains(t, out.String(), "employee mesa created")
	assert.NotContains(t, out.String(), "role Gerencia created")

	out.Reset()
	require.NoError(t, s.apply(context.Background(), seed))
	assert.Empty(t, out.String())
	assert.Len(t, emps.created, 1)
}

func TestSeederUnknownRole(t *testing.T) {
	seed, err := parseSeed(strings.NewReader(`
employees:
  - username: nadie
    email: nadie@example.com
    password: S3guro!pass
    role: fantasma
`))
	require.NoError(t, err)

	s := &seeder{reference: &fakeReference{}, employees: &fakeEmployees{}, accounts: fakeAccounts{}, out: &bytes.Buffer{}}
	err = s.apply(context.Background(), seed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	_, err := parseSeed(strings.NewReader("roles:\n  - name: x\n    weight: 3\n"))
	assert.Error(t, err)
}

func TestPriorityCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"priority", "--role-weight", "2", "servidor caído en producción"})

	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "priority: 1 (raw -2)")
	assert.Contains(t, out.String(), `matched "producción" -2`)
	assert.Contains(t, out.String(), "due: ")
}

func TestPriorityCommandProject(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"priority", "--project", "nueva intranet"})

	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "priority: 3 (raw 3)")
	assert.Contains(t, out.String(), "due: none (project)")
}
