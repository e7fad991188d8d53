// Package token implements the refresh token repository using PostgreSQL.
package token

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides refresh token persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new token repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createSQL = `
INSERT INTO auth_refresh_tokens (user_id, token_hash, expires_at)
VALUES ($1, $2, $3)`

const getByHashSQL = `
SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
FROM auth_refresh_tokens
WHERE token_hash = $1`

const revokeByIDSQL = `
UPDATE auth_refresh_tokens SET revoked_at = now()
WHERE id = $1 AND revoked_at IS NULL`

const revokeAllByUserSQL = `
UPDATE auth_refresh_tokens SET revoked_at = now()
WHERE user_id = $1 AND revoked_at IS NULL`

const deleteExpiredSQL = `
DELETE FROM auth_refresh_tokens
WHERE expires_at < now() OR revoked_at IS NOT NULL`

// Create stores a new refresh token hash.
func (r *Repo) Create(ctx context.Context, t *domain.RefreshToken) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, createSQL, t.UserID, t.TokenHash, t.ExpiresAt); err != nil {
		return postgres.MapError(err, "refresh token", t.UserID)
	}
	return nil
}

// GetByHash returns the token with the given hash.
func (r *Repo) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var t domain.RefreshToken
	err := querier.QueryRow(ctx, getByHashSQL, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "refresh token", "by hash")
	}
	return &t, nil
}

// RevokeByID revokes a single token. Revoking an already revoked token is a
// no-op, not an error.
func (r *Repo) RevokeByID(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, revokeByIDSQL, id); err != nil {
		return postgres.MapError(err, "refresh token", id)
	}
	return nil
}

// RevokeAllByUser revokes every live token of a user (logout everywhere).
func (r *Repo) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, revokeAllByUserSQL, userID); err != nil {
		return postgres.MapError(err, "refresh token", userID)
	}
	return nil
}

// DeleteExpired removes expired and revoked tokens, returning the count.
func (r *Repo) DeleteExpired(ctx context.Context) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteExpiredSQL)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
