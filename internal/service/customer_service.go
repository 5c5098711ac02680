package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vinotel/cellar-service/internal/auth"
	"github.com/vinotel/cellar-service/internal/domain"
	"github.com/vinotel/cellar-service/internal/repository"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// CustomerService manages customer profiles. Account creation lives on the
// auth service's register flow; this covers the rest of the lifecycle.
type CustomerService struct {
	customers  repository.CustomerRepository
	bcryptCost int
}

// NewCustomerService builds the service.
func NewCustomerService(customers repository.CustomerRepository, bcryptCost int) *CustomerService {
	return &CustomerService{customers: customers, bcryptCost: bcryptCost}
}

// Get loads one customer.
func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return nil, err
	}
	return customer, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *CustomerService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(customer.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	customer.PasswordHash = hash
	return s.customers.Update(ctx, customer)
}

// Delete removes a customer account. Issued access tokens stay valid until
// expiry, but the request authenticator stops resolving the principal, so
// they are effectively dead immediately.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return err
	}
	return nil
}
