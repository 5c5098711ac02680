package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vinotel/cellar-service/internal/domain"
)

// RolePrefix is prepended to roles when they are exposed as authorities.
const RolePrefix = "ROLE_"

// ErrPrincipalNotFound signals that no identity source owns the identifier.
// It is distinct from a wrong password; the session issuer collapses the two
// before anything reaches a client.
var ErrPrincipalNotFound = errors.New("principal not found")

// Principal is a resolved identity from either source.
type Principal struct {
	ID           string
	Identifier   string
	PasswordHash string
	Source       domain.SubjectType
	Role         string
}

// Authorities returns the principal's roles in ROLE_-prefixed form.
func (p *Principal) Authorities() []string {
	return []string{RolePrefix + p.Role}
}

// Scope returns the space-joined authority list as carried in token claims.
func (p *Principal) Scope() string {
	return strings.Join(p.Authorities(), " ")
}

// HasRole reports whether the principal holds the given unprefixed role.
func (p *Principal) HasRole(role string) bool {
	return p.Role == role
}

// IdentityProvider looks an identifier up in a single identity source.
// Implementations return ErrPrincipalNotFound when the source does not own
// the identifier.
type IdentityProvider interface {
	Lookup(ctx context.Context, identifier string) (*Principal, error)
}

// Resolver queries an ordered provider list; the first source owning the
// identifier wins. Employees are registered ahead of customers, so an
// identifier colliding across both namespaces resolves to the employee.
type Resolver struct {
	providers []IdentityProvider
}

// NewResolver builds a resolver over the given providers, queried in order.
func NewResolver(providers ...IdentityProvider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the first matching principal or ErrPrincipalNotFound.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Principal, error) {
	for _, provider := range r.providers {
		principal, err := provider.Lookup(ctx, identifier)
		if err == nil {
			return principal, nil
		}
		if errors.Is(err, ErrPrincipalNotFound) {
			continue
		}
		return nil, err
	}
	return nil, ErrPrincipalNotFound
}

// EmployeeStore is the slice of the employee repository the provider needs.
type EmployeeStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
}

// CustomerStore is the slice of the customer repository the provider needs.
type CustomerStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Customer, error)
}

type employeeProvider struct {
	store EmployeeStore
}

// NewEmployeeProvider adapts the employee store to an IdentityProvider.
func NewEmployeeProvider(store EmployeeStore) IdentityProvider {
	return &employeeProvider{store: store}
}

func (p *employeeProvider) Lookup(ctx context.Context, identifier string) (*Principal, error) {
	employee, err := p.store.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	if !employee.Active {
		return nil, ErrPrincipalNotFound
	}
	return &Principal{
		ID:           employee.ID,
		Identifier:   employee.Email,
		PasswordHash: employee.PasswordHash,
		Source:       domain.SubjectTypeEmployee,
		Role:         string(employee.Role),
	}, nil
}

type customerProvider struct {
	store CustomerStore
}

// NewCustomerProvider adapts the customer store to an IdentityProvider.
func NewCustomerProvider(store CustomerStore) IdentityProvider {
	return &customerProvider{store: store}
}

func (p *customerProvider) Lookup(ctx context.Context, identifier string) (*Principal, error) {
	customer, err := p.store.GetByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	role := customer.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	return &Principal{
		ID:           customer.ID,
		Identifier:   customer.Username,
		PasswordHash: customer.PasswordHash,
		Source:       domain.SubjectTypeCustomer,
		Role:         role,
	}, nil
}
