package dto

import (
	"time"

	"github.com/vinotel/cellar-service/internal/domain"
)

// CustomerResponse is the outward shape of a customer profile.
type CustomerResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// NewCustomerResponse maps a domain customer.
func NewCustomerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        customer.ID,
		Username:  customer.Username,
		Role:      customer.Role,
		CreatedAt: customer.CreatedAt,
		LastLogin: customer.LastLogin,
	}
}

// ChangePasswordRequest payload for customer password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
