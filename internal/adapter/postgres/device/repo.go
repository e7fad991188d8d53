// Package device implements the device repository using PostgreSQL.
package device

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides device persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new device repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Each user has a single device row; a batch from a new phone takes it over.
const ensureSQL = `
INSERT INTO devices (id, user_id, device_uuid, name, platform)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    device_uuid = COALESCE(EXCLUDED.device_uuid, devices.device_uuid),
    name        = COALESCE(NULLIF(EXCLUDED.name, ''), devices.name),
    platform    = COALESCE(NULLIF(EXCLUDED.platform, ''), devices.platform),
    updated_at  = now()
RETURNING id, user_id, device_uuid, name, platform, created_at, updated_at`

const getByUserSQL = `
SELECT id, user_id, device_uuid, name, platform, created_at, updated_at
FROM devices
WHERE user_id = $1`

// Ensure upserts the user's device row from batch metadata and returns it.
// Empty metadata fields never overwrite previously known values.
func (r *Repo) Ensure(ctx context.Context, userID uuid.UUID, meta domain.DeviceMeta) (*domain.Device, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	name, platform := "", ""
	if meta.Name != nil {
		name = *meta.Name
	}
	if meta.Platform != nil {
		platform = *meta.Platform
	}

	var d domain.Device
	err := querier.QueryRow(ctx, ensureSQL, uuid.New(), userID, meta.UUID, name, platform).
		Scan(&d.ID, &d.UserID, &d.DeviceUUID, &d.Name, &d.Platform, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "device", userID)
	}
	return &d, nil
}

// GetByUser returns the user's device row.
func (r *Repo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Device, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var d domain.Device
	err := querier.QueryRow(ctx, getByUserSQL, userID).
		Scan(&d.ID, &d.UserID, &d.DeviceUUID, &d.Name, &d.Platform, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "device", userID)
	}
	return &d, nil
}
