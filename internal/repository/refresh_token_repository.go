package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinotel/cellar-service/internal/domain"
)

// RefreshTokenRepository manages the persisted refresh-token set. The token
// value is the primary key; a row's absence means the token was never issued,
// already rotated out, or swept.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	Exists(ctx context.Context, tokenValue string) (bool, error)
	// Rotate atomically replaces the presented token with its successor so a
	// concurrent sweep or second refresh never observes both or neither.
	Rotate(ctx context.Context, oldTokenValue string, next *domain.RefreshToken) error
	Delete(ctx context.Context, tokenValue string) error
	// DeleteExpired removes every token whose expiry is at or before now and
	// reports how many rows went. Idempotent.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token, expires_at, subject_id, subject_type)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		token.Token,
		token.ExpiresAt,
		token.SubjectID,
		token.SubjectType,
	).Scan(&token.CreatedAt)
}

func (r *refreshTokenRepository) Exists(ctx context.Context, tokenValue string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE token=$1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, tokenValue).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldTokenValue string, next *domain.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token=$1`, oldTokenValue); err != nil {
		return err
	}

	const insert = `
        INSERT INTO refresh_tokens (token, expires_at, subject_id, subject_type)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`
	if err := tx.QueryRow(ctx, insert,
		next.Token,
		next.ExpiresAt,
		next.SubjectID,
		next.SubjectType,
	).Scan(&next.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *refreshTokenRepository) Delete(ctx context.Context, tokenValue string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token=$1`, tokenValue)
	return err
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
