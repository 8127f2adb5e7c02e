package domain

import "time"

// Account is a login identity. Employees own exactly one account.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsSuperuser  bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
