package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinotel/cellar-service/internal/domain"
)

// CustomerRepository defines persistence access for external accounts.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByUsername(ctx context.Context, username string) (*domain.Customer, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	TouchLastLogin(ctx context.Context, username string) error
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (username, password_hash, role)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		customer.Username,
		customer.PasswordHash,
		customer.Role,
	).Scan(&customer.ID, &customer.CreatedAt)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET username=$1, password_hash=$2, role=$3
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		customer.Username,
		customer.PasswordHash,
		customer.Role,
		customer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM customers WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at, last_login
        FROM customers WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *customerRepository) GetByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at, last_login
        FROM customers WHERE username=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

func (r *customerRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM customers WHERE username=$1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *customerRepository) TouchLastLogin(ctx context.Context, username string) error {
	const query = `UPDATE customers SET last_login=NOW() WHERE username=$1`

	_, err := r.pool.Exec(ctx, query, username)
	return err
}

func (r *customerRepository) scanOne(row pgx.Row) (*domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(
		&customer.ID,
		&customer.Username,
		&customer.PasswordHash,
		&customer.Role,
		&customer.CreatedAt,
		&customer.LastLogin,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
