// Package user implements the user repository using PostgreSQL.
package user

import (
	"fmt"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createSQL = `
INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, email, username, password_hash, created_at, updated_at`

const getByIDSQL = `
SELECT id, email, username, password_hash, created_at, updated_at
FROM users
WHERE id = $1`

const getByEmailSQL = `
SELECT id, email, username, password_hash, created_at, updated_at
FROM users
WHERE email = $1`

const deleteSQL = `DELETE FROM users WHERE id = $1`

// Create inserts a new user. Returns domain.ErrAlreadyExists when the email
// or username is taken.
func (r *Repo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createSQL,
		u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt)

	created, err := scanUser(row)
	if err != nil {
		return nil, postgres.MapError(err, "user", u.Email)
	}
	return created, nil
}

// GetByID returns the user with the given ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// GetByEmail returns the user with the given email.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, getByEmailSQL, email))
	if err != nil {
		return nil, postgres.MapError(err, "user", email)
	}
	return u, nil
}

// Delete removes the user; visits, devices and unlocks cascade in SQL.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "user", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
