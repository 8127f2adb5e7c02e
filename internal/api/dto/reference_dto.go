package dto

import "time"

// RoleRequest payload for create and update.
type RoleRequest struct {
	Name                string `json:"name"`
	PriorityWeight      int    `json:"priority_weight"`
	CanAccessAllTickets bool   `json:"can_access_all_tickets"`
}

// RoleResponse represents a role.
type RoleResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	PriorityWeight      int       `json:"priority_weight"`
	CanAccessAllTickets bool      `json:"can_access_all_tickets"`
	CreatedAt           time.Time `json:"created_at"`
}

// CategoryRequest payload for create and update.
type CategoryRequest struct {
	Name     string `json:"name"`
	SLAHours int    `json:"sla_hours"`
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SLAHours  int       `json:"sla_hours"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	RoleID      string `json:"role_id"`
	Department  string `json:"department"`
	IsSuperuser bool   `json:"is_superuser"`
}

// EmployeeResponse represents an employee profile.
type EmployeeResponse struct {
	ID         string       `json:"id"`
	AccountID  string       `json:"account_id"`
	Username   string       `json:"username"`
	Email      string       `json:"email"`
	Department string       `json:"department"`
	Role       RoleResponse `json:"role"`
	CreatedAt  time.Time    `json:"created_at"`
}
