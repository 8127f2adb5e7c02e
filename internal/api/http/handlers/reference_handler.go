package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketera/helpdesk-service/internal/api/dto"
	"github.com/ticketera/helpdesk-service/internal/service"
)

// ReferenceHandler serves roles, categories and employees.
type ReferenceHandler struct {
	reference *service.ReferenceService
	employees *service.EmployeeService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(reference *service.ReferenceService, employees *service.EmployeeService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference, employees: employees}
}

// ListRoles GET /api/roles.
func (h *ReferenceHandler) ListRoles(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	roles, err := h.reference.ListRoles(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, roleResponse(&roles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateRole POST /api/roles.
func (h *ReferenceHandler) CreateRole(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := h.reference.CreateRole(c.UserContext(), actor, service.RoleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": roleResponse(role)})
}

// UpdateRole PUT /api/roles/:id.
func (h *ReferenceHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "role")
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := h.reference.UpdateRole(c.UserContext(), actor, id, service.RoleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roleResponse(role)})
}

// ListCategories GET /api/categories.
func (h *ReferenceHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.reference.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory POST /api/categories.
func (h *ReferenceHandler) CreateCategory(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.reference.CreateCategory(c.UserContext(), actor, service.CategoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// UpdateCategory PUT /api/categories/:id.
func (h *ReferenceHandler) UpdateCategory(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "category")
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.reference.UpdateCategory(c.UserContext(), actor, id, service.CategoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// CreateEmployee POST /api/employees.
func (h *ReferenceHandler) CreateEmployee(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := checkIDs(map[string]*string{"role_id": &req.RoleID}); err != nil {
		return err
	}
	employee, err := h.employees.CreateEmployee(c.UserContext(), actor, service.CreateEmployeeInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": employeeResponse(employee)})
}

// Me GET /api/employees/me.
func (h *ReferenceHandler) Me(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}
