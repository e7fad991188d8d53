// Package cell implements the global cell registry repository.
package cell

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides cell registry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new cell repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Set-based upsert over unnest arrays: one statement per batch regardless of
// size. Attribution is write-once per column: a NULL country/region can be
// filled in later (geometry seeded after the fact) but a known one is never
// overwritten. first_visited_at never moves; last_visited_at only advances.
const upsertBatchSQL = `
INSERT INTO h3_cells
    (h3_index, res, country_id, state_id, centroid, first_visited_at, last_visited_at)
SELECT u.h3_index, u.res, u.country_id, u.state_id,
       ST_SetSRID(ST_MakePoint(u.lng, u.lat), 4326),
       u.visited_at, u.visited_at
FROM unnest(
    $1::varchar[], $2::smallint[], $3::bigint[], $4::bigint[],
    $5::float8[], $6::float8[], $7::timestamptz[]
) AS u(h3_index, res, country_id, state_id, lng, lat, visited_at)
ON CONFLICT (h3_index) DO UPDATE SET
    country_id      = COALESCE(h3_cells.country_id, EXCLUDED.country_id),
    state_id        = COALESCE(h3_cells.state_id, EXCLUDED.state_id),
    last_visited_at = GREATEST(h3_cells.last_visited_at, EXCLUDED.last_visited_at),
    visit_count     = h3_cells.visit_count + 1`

const getSQL = `
SELECT h3_index, res, country_id, state_id,
       ST_Y(centroid), ST_X(centroid),
       first_visited_at, last_visited_at, visit_count
FROM h3_cells
WHERE h3_index = $1`

const getManySQL = `
SELECT h3_index, res, country_id, state_id
FROM h3_cells
WHERE h3_index = ANY($1)`

// UpsertBatch writes every cell in one statement. Callers must have deduped
// the slice by index already; duplicate keys in a single upsert would fail
// with "cannot affect row a second time".
func (r *Repo) UpsertBatch(ctx context.Context, cells []domain.CellUpsert) error {
	if len(cells) == 0 {
		return nil
	}
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	n := len(cells)
	indexes := make([]string, n)
	resolutions := make([]int16, n)
	countryIDs := make([]*int64, n)
	regionIDs := make([]*int64, n)
	lngs := make([]float64, n)
	lats := make([]float64, n)
	timestamps := make([]time.Time, n)
	for i, c := range cells {
		indexes[i] = c.Index
		resolutions[i] = int16(c.Level)
		countryIDs[i] = c.CountryID
		regionIDs[i] = c.RegionID
		lngs[i] = c.Lng
		lats[i] = c.Lat
		timestamps[i] = c.Timestamp
	}

	_, err := querier.Exec(ctx, upsertBatchSQL,
		indexes, resolutions, countryIDs, regionIDs, lngs, lats, timestamps)
	if err != nil {
		return postgres.MapError(err, "cell batch", len(cells))
	}
	return nil
}

// Get returns one cell from the registry.
func (r *Repo) Get(ctx context.Context, index string) (*domain.Cell, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var c domain.Cell
	err := querier.QueryRow(ctx, getSQL, index).Scan(
		&c.Index, &c.Level, &c.CountryID, &c.RegionID,
		&c.CentroidLat, &c.CentroidLng,
		&c.FirstVisitedAt, &c.LastVisitedAt, &c.VisitCount)
	if err != nil {
		return nil, postgres.MapError(err, "cell", index)
	}
	return &c, nil
}

// GetPlaces returns the stored (country, region) attribution for each known
// index. Unknown indexes are simply absent from the map.
func (r *Repo) GetPlaces(ctx context.Context, indexes []string) (map[string]domain.Place, error) {
	if len(indexes) == 0 {
		return map[string]domain.Place{}, nil
	}
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getManySQL, indexes)
	if err != nil {
		return nil, fmt.Errorf("get cells: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Place, len(indexes))
	for rows.Next() {
		var (
			index string
			res   int16
			p     domain.Place
		)
		if err := rows.Scan(&index, &res, &p.CountryID, &p.RegionID); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		out[index] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}
	return out, nil
}
