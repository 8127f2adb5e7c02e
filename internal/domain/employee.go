package domain

import "time"

// Employee links an account to its role and department.
// Username and Email are read from the owning account.
type Employee struct {
	ID         string
	AccountID  string
	RoleID     string
	Department string
	Username   string
	Email      string
	Role       Role
	CreatedAt  time.Time
}
