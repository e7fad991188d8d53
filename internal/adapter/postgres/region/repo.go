// Package region implements the reference geometry repository: countries,
// states and point-in-polygon lookups against the seeded PostGIS layers.
package region

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides country/region lookups backed by PostgreSQL + PostGIS.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new region repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Country first, then a state constrained to that country. Constraining the
// state lookup keeps slivers along land borders from attributing a point to a
// neighbouring country's province.
const locateSQL = `
WITH pt AS (SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326) AS g),
c AS (
    SELECT id FROM regions_country, pt
    WHERE ST_Contains(geom, pt.g)
    LIMIT 1
)
SELECT c.id,
       (SELECT s.id FROM regions_state s, pt
        WHERE s.country_id = c.id AND ST_Contains(s.geom, pt.g)
        LIMIT 1)
FROM c`

const getCountriesSQL = `
SELECT id, iso2, iso3, name, land_cells_total_res6, land_cells_total_res8
FROM regions_country
WHERE id = ANY($1)`

const getRegionsSQL = `
SELECT id, country_id, code, name, land_cells_total_res6, land_cells_total_res8
FROM regions_state
WHERE id = ANY($1)`

// Locate resolves a lng/lat point to its country and region. A point outside
// every seeded polygon yields an empty Place, not an error.
func (r *Repo) Locate(ctx context.Context, lat, lng float64) (domain.Place, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var p domain.Place
	err := querier.QueryRow(ctx, locateSQL, lng, lat).Scan(&p.CountryID, &p.RegionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Place{}, nil
		}
		return domain.Place{}, fmt.Errorf("locate point (%f, %f): %w", lat, lng, err)
	}
	return p, nil
}

// GetCountries returns the countries with the given ids, keyed by id.
func (r *Repo) GetCountries(ctx context.Context, ids []int64) (map[int64]domain.Country, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getCountriesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get countries: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Country, len(ids))
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.ID, &c.ISO2, &c.ISO3, &c.Name,
			&c.LandCellsTotalRes6, &c.LandCellsTotalRes8); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return out, nil
}

// GetRegions returns the regions with the given ids, keyed by id.
func (r *Repo) GetRegions(ctx context.Context, ids []int64) (map[int64]domain.Region, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getRegionsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get regions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Region, len(ids))
	for rows.Next() {
		var reg domain.Region
		if err := rows.Scan(&reg.ID, &reg.CountryID, &reg.Code, &reg.Name,
			&reg.LandCellsTotalRes6, &reg.LandCellsTotalRes8); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out[reg.ID] = reg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return out, nil
}
