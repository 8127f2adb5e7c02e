package domain

// Actor is the identity performing an operation. Services receive it explicitly.
type Actor struct {
	AccountID   string
	EmployeeID  string
	IsSuperuser bool
	Role        *Role
}

// Privileged reports whether the actor may act on every ticket.
func (a Actor) Privileged() bool {
	return a.IsSuperuser || (a.Role != nil && a.Role.CanAccessAllTickets)
}

// HasEmployee reports whether the actor carries an employee profile.
func (a Actor) HasEmployee() bool {
	return a.EmployeeID != ""
}
