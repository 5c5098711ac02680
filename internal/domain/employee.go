package domain

import "time"

// EmployeeRole enumerates internal operator roles.
type EmployeeRole string

const (
	EmployeeRoleAdmin  EmployeeRole = "ADMIN"
	EmployeeRoleWorker EmployeeRole = "WORKER"
)

// Valid reports whether the role is a known employee role.
func (r EmployeeRole) Valid() bool {
	return r == EmployeeRoleAdmin || r == EmployeeRoleWorker
}

// Employee models an administrative account with a single assigned role.
type Employee struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         EmployeeRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
