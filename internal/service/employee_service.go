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

// EmployeeService provides admin-facing CRUD over the employee store.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	bcryptCost int
}

// NewEmployeeService builds the service.
func NewEmployeeService(employees repository.EmployeeRepository, bcryptCost int) *EmployeeService {
	return &EmployeeService{employees: employees, bcryptCost: bcryptCost}
}

// EmployeeInput carries create/update fields; Password is plaintext and only
// hashed here.
type EmployeeInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.EmployeeRole
	Active   *bool
}

// Create registers a new employee account.
func (s *EmployeeService) Create(ctx context.Context, input EmployeeInput) (*domain.Employee, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if _, err := s.employees.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewAlreadyExists("employee", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	employee := &domain.Employee{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if input.Active != nil {
		employee.Active = *input.Active
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Get loads one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		return nil, err
	}
	return employee, nil
}

// List returns all employees.
func (s *EmployeeService) List(ctx context.Context) ([]*domain.Employee, error) {
	return s.employees.List(ctx)
}

// Update applies name/email/role/password/active changes.
func (s *EmployeeService) Update(ctx context.Context, id string, input EmployeeInput) (*domain.Employee, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		employee.Name = input.Name
	}
	if input.Email != "" {
		employee.Email = input.Email
	}
	if input.Role != "" {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
		}
		employee.Role = input.Role
	}
	if input.Active != nil {
		employee.Active = *input.Active
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		employee.PasswordHash = hash
	}

	if err := s.employees.Update(ctx, employee); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		return nil, err
	}
	return employee, nil
}

// Delete removes an employee account.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		return err
	}
	return nil
}
