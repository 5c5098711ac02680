package dto

import (
	"time"

	"github.com/vinotel/cellar-service/internal/domain"
)

// EmployeeCreateRequest payload for new employees.
type EmployeeCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// EmployeeUpdateRequest payload for updates; empty fields stay unchanged.
type EmployeeUpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

// EmployeeResponse is the outward shape of an employee; the hash never leaves.
type EmployeeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEmployeeResponse maps a domain employee.
func NewEmployeeResponse(employee *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:        employee.ID,
		Name:      employee.Name,
		Email:     employee.Email,
		Role:      string(employee.Role),
		Active:    employee.Active,
		CreatedAt: employee.CreatedAt,
	}
}
