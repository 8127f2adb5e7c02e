package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/persistence"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/service"
)

// seedFile is the YAML layout accepted by `helpdeskctl seed`.
type seedFile struct {
	Roles []struct {
		Name                string `yaml:"name"`
		PriorityWeight      int    `yaml:"priority_weight"`
		CanAccessAllTickets bool   `yaml:"can_access_all_tickets"`
	} `yaml:"roles"`
	Categories []struct {
		Name     string `yaml:"name"`
		SLAHours int    `yaml:"sla_hours"`
	} `yaml:"categories"`
	Employees []struct {
		Username   string `yaml:"username"`
		Email      string `yaml:"email"`
		Password   string `yaml:"password"`
		Role       string `yaml:"role"`
		Department string `yaml:"department"`
		Superuser  bool   `yaml:"superuser"`
	} `yaml:"employees"`
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

type referenceWriter interface {
	ListRoles(ctx context.Context, actor domain.Actor) ([]domain.Role, error)
	CreateRole(ctx context.Context, actor domain.Actor, input service.RoleInput) (*domain.Role, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, actor domain.Actor, input service.CategoryInput) (*domain.Category, error)
}

type employeeWriter interface {
	CreateEmployee(ctx context.Context, actor domain.Actor, input service.CreateEmployeeInput) (*domain.Employee, error)
}

type accountFinder interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// seeder loads reference data and accounts. Entries that already exist by name are skipped,
// so a seed file can be applied repeatedly.
type seeder struct {
	reference referenceWriter
	employees employeeWriter
	accounts  accountFinder
	out       io.Writer
}

var seedActor = domain.Actor{AccountID: "helpdeskctl", IsSuperuser: true}

func (s *seeder) apply(ctx context.Context, seed *seedFile) error {
	roles, err := s.reference.ListRoles(ctx, seedActor)
	if err != nil {
		return err
	}
	roleIDs := make(map[string]string, len(roles))
	for _, r := range roles {
		roleIDs[strings.ToLower(r.Name)] = r.ID
	}
	for _, r := range seed.Roles {
		if _, ok := roleIDs[strings.ToLower(r.Name)]; ok {
			continue
		}
		created, err := s.reference.CreateRole(ctx, seedActor, service.RoleInput{
			Name:                r.Name,
			PriorityWeight:      r.PriorityWeight,
			CanAccessAllTickets: r.CanAccessAllTickets,
		})
		if err != nil {
			return fmt.Errorf("role %q: %w", r.Name, err)
		}
		roleIDs[strings.ToLower(created.Name)] = created.ID
		fmt.Fprintf(s.out, "role %s created\n", created.Name)
	}

	categories, err := s.reference.ListCategories(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(categories))
	for _, c := range categories {
		existing[strings.ToLower(c.Name)] = true
	}
	for _, c := range seed.Categories {
		if existing[strings.ToLower(c.Name)] {
			continue
		}
		created, err := s.reference.CreateCategory(ctx, seedActor, service.CategoryInput{Name: c.Name, SLAHours: c.SLAHours})
		if err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		existing[strings.ToLower(created.Name)] = true
		fmt.Fprintf(s.out, "category %s created (sla %dh)\n", created.Name, created.SLAHours)
	}

	for _, e := range seed.Employees {
		_, err := s.accounts.GetByUsername(ctx, e.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		roleID, ok := roleIDs[strings.ToLower(e.Role)]
		if !ok {
			return fmt.Errorf("employee %q: unknown role %q", e.Username, e.Role)
		}
		if _, err := s.employees.CreateEmployee(ctx, seedActor, service.CreateEmployeeInput{
			Username:    e.Username,
			Email:       e.Email,
			Password:    e.Password,
			RoleID:      roleID,
			Department:  e.Department,
			IsSuperuser: e.Superuser,
		}); err != nil {
			return fmt.Errorf("employee %q: %w", e.Username, err)
		}
		fmt.Fprintf(s.out, "employee %s created\n", e.Username)
	}
	return nil
}

func newSeedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load roles, categories and employees from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			seed, err := parseSeed(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			pool := rt.pg.Pool
			accounts := repository.NewAccountRepository(pool)
			roles := repository.NewRoleRepository(pool)
			s := &seeder{
				reference: service.NewReferenceService(service.ReferenceDependencies{
					RoleRepo:     roles,
					CategoryRepo: repository.NewCategoryRepository(pool),
				}),
				employees: service.NewEmployeeService(service.EmployeeDependencies{
					AccountRepo:  accounts,
					EmployeeRepo: repository.NewEmployeeRepository(pool),
					RoleRepo:     roles,
					Tx:           persistence.NewTxManager(pool),
					BcryptCost:   rt.cfg.Auth.BcryptCost,
				}),
				accounts: accounts,
				out:      cmd.OutOrStdout(),
			}
			return s.apply(ctx, seed)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "seed.yaml", "path to the seed file")
	return cmd
}
