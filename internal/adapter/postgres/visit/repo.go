// Package visit implements the per-user visit ledger repository.
package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides visit ledger persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new visit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// (xmax = 0) is true only for rows this statement inserted, which is how a
// visit is classified as a first visit versus a revisit without a prior
// read. first_visited_at is immutable; last_visited_at only moves forward,
// so late-arriving batches cannot rewind it.
const upsertBatchSQL = `
INSERT INTO user_cell_visits
    (user_id, h3_index, res, device_id, first_visited_at, last_visited_at)
SELECT $1, u.h3_index, u.res, $2, u.visited_at, u.visited_at
FROM unnest($3::varchar[], $4::smallint[], $5::timestamptz[])
    AS u(h3_index, res, visited_at)
ON CONFLICT (user_id, h3_index) DO UPDATE SET
    last_visited_at = GREATEST(user_cell_visits.last_visited_at, EXCLUDED.last_visited_at),
    visit_count     = user_cell_visits.visit_count + 1,
    device_id       = COALESCE(EXCLUDED.device_id, user_cell_visits.device_id)
RETURNING h3_index, res, visit_count, (xmax = 0) AS inserted`

const snapshotSQL = `
SELECT v.h3_index, v.res, c.country_id, c.state_id
FROM user_cell_visits v
JOIN h3_cells c ON c.h3_index = v.h3_index
WHERE v.user_id = $1`

const recordBatchSQL = `
INSERT INTO ingest_batches (user_id, device_id, processed, skipped)
VALUES ($1, $2, $3, $4)`

// UpsertBatch writes every visit in one statement and returns the storage
// verdict per cell index. RETURNING order is not guaranteed to follow input
// order, so results come back as a map and the caller re-walks its own batch.
func (r *Repo) UpsertBatch(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, visits []domain.VisitUpsert) (map[string]domain.VisitUpsertResult, error) {
	if len(visits) == 0 {
		return map[string]domain.VisitUpsertResult{}, nil
	}
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	n := len(visits)
	indexes := make([]string, n)
	resolutions := make([]int16, n)
	timestamps := make([]time.Time, n)
	for i, v := range visits {
		indexes[i] = v.CellIndex
		resolutions[i] = int16(v.Level)
		timestamps[i] = v.Timestamp
	}

	rows, err := querier.Query(ctx, upsertBatchSQL,
		userID, deviceID, indexes, resolutions, timestamps)
	if err != nil {
		return nil, postgres.MapError(err, "visit batch", userID)
	}
	defer rows.Close()

	out := make(map[string]domain.VisitUpsertResult, n)
	for rows.Next() {
		var res domain.VisitUpsertResult
		if err := rows.Scan(&res.CellIndex, &res.Level, &res.VisitCount, &res.Inserted); err != nil {
			return nil, fmt.Errorf("scan visit upsert: %w", err)
		}
		out[res.CellIndex] = res
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "visit batch", userID)
	}
	return out, nil
}

// Snapshot loads the user's full visit state. Country and region sets are
// built from fine cells only; coarse cells exist for geocode reuse and would
// otherwise double-count attributions.
func (r *Repo) Snapshot(ctx context.Context, userID uuid.UUID) (*domain.VisitSnapshot, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, snapshotSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("load visit snapshot: %w", err)
	}
	defer rows.Close()

	snap := domain.NewVisitSnapshot()
	for rows.Next() {
		var (
			index     string
			res       domain.CellLevel
			countryID *int64
			regionID  *int64
		)
		if err := rows.Scan(&index, &res, &countryID, &regionID); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		switch res {
		case domain.CellLevelCoarse:
			snap.CoarseCellIDs[index] = struct{}{}
		case domain.CellLevelFine:
			snap.FineCellIDs[index] = struct{}{}
			if countryID != nil {
				snap.AddCountry(*countryID)
			}
			if regionID != nil {
				snap.AddRegion(*regionID)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return snap, nil
}

// RecordBatch appends one audit row for a committed batch.
func (r *Repo) RecordBatch(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, processed, skipped int) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, recordBatchSQL, userID, deviceID, processed, skipped); err != nil {
		return postgres.MapError(err, "ingest batch", userID)
	}
	return nil
}
