// Package stats implements read-only coverage aggregation queries.
package stats

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides aggregate statistics backed by PostgreSQL.
type Repo struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// New creates a new stats repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// All aggregates run over fine cells only; coarse cells exist for geocode
// reuse and carry no reveal semantics.
const travelStatsSQL = `
WITH fine AS (
    SELECT v.h3_index, v.first_visited_at, v.last_visited_at,
           c.country_id, c.state_id, ST_Y(c.centroid) AS lat
    FROM user_cell_visits v
    JOIN h3_cells c ON c.h3_index = v.h3_index
    WHERE v.user_id = $1 AND v.res = 8
),
per_country AS (
    SELECT country_id,
           count(DISTINCT state_id) FILTER (WHERE state_id IS NOT NULL) AS regions,
           count(*) AS visited
    FROM fine
    WHERE country_id IS NOT NULL
    GROUP BY country_id
),
per_region AS (
    SELECT state_id, count(*) AS visited
    FROM fine
    WHERE state_id IS NOT NULL
    GROUP BY state_id
)
SELECT
    (SELECT count(*) FROM fine),
    (SELECT count(*) FROM per_country),
    (SELECT count(*) FROM per_region),
    COALESCE((SELECT max(regions) FROM per_country), 0),
    (SELECT count(DISTINCT sign(lat)) FROM fine WHERE lat IS NOT NULL AND sign(lat) <> 0),
    (SELECT count(DISTINCT date(first_visited_at)) FROM fine),
    COALESCE((
        SELECT max(pc.visited::float8 / rc.land_cells_total_res8)
        FROM per_country pc
        JOIN regions_country rc ON rc.id = pc.country_id
        WHERE rc.land_cells_total_res8 > 0
    ), 0),
    COALESCE((
        SELECT max(pr.visited::float8 / rs.land_cells_total_res8)
        FROM per_region pr
        JOIN regions_state rs ON rs.id = pr.state_id
        WHERE rs.land_cells_total_res8 > 0
    ), 0)`

const overviewSQL = `
SELECT
    (SELECT count(*) FROM user_cell_visits WHERE user_id = $1 AND res = 8),
    (SELECT count(DISTINCT c.country_id)
     FROM user_cell_visits v JOIN h3_cells c ON c.h3_index = v.h3_index
     WHERE v.user_id = $1 AND v.res = 8 AND c.country_id IS NOT NULL),
    (SELECT count(DISTINCT c.state_id)
     FROM user_cell_visits v JOIN h3_cells c ON c.h3_index = v.h3_index
     WHERE v.user_id = $1 AND v.res = 8 AND c.state_id IS NOT NULL),
    (SELECT count(*) FROM user_achievements WHERE user_id = $1),
    (SELECT to_char(min(first_visited_at), 'YYYY-MM-DD')
     FROM user_cell_visits WHERE user_id = $1),
    (SELECT count(DISTINCT date(first_visited_at))
     FROM user_cell_visits WHERE user_id = $1 AND res = 8)`

// TravelStats gathers everything the achievement evaluator judges in one
// round trip.
func (r *Repo) TravelStats(ctx context.Context, userID uuid.UUID) (domain.TravelStats, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var s domain.TravelStats
	err := querier.QueryRow(ctx, travelStatsSQL, userID).Scan(
		&s.CellsTotal, &s.Countries, &s.Regions, &s.MaxRegionsInCountry,
		&s.Hemispheres, &s.UniqueDays, &s.MaxCountryCoverage, &s.MaxRegionCoverage)
	if err != nil {
		return domain.TravelStats{}, fmt.Errorf("travel stats: %w", err)
	}
	return s, nil
}

// Overview returns the headline numbers for the profile screen.
func (r *Repo) Overview(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var o domain.OverviewStats
	err := querier.QueryRow(ctx, overviewSQL, userID).Scan(
		&o.CellsTotal, &o.CountriesVisited, &o.RegionsVisited,
		&o.Achievements, &o.FirstActivityDay, &o.ActiveDays)
	if err != nil {
		return domain.OverviewStats{}, fmt.Errorf("overview stats: %w", err)
	}
	return o, nil
}

// CountryFilter narrows and orders the country coverage listing.
type CountryFilter struct {
	ISO2          string
	OrderByVisits bool
	Limit         uint64
}

// CountryCoverage lists the user's visited countries with coverage figures.
func (r *Repo) CountryCoverage(ctx context.Context, userID uuid.UUID, f CountryFilter) ([]domain.CountryCoverage, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	q := r.builder.
		Select(
			"rc.id", "rc.iso2", "rc.name",
			"count(*) AS visited",
			"rc.land_cells_total_res8",
			"count(DISTINCT c.state_id) FILTER (WHERE c.state_id IS NOT NULL)",
		).
		From("user_cell_visits v").
		Join("h3_cells c ON c.h3_index = v.h3_index").
		Join("regions_country rc ON rc.id = c.country_id").
		Where(sq.Eq{"v.user_id": userID, "v.res": 8}).
		GroupBy("rc.id", "rc.iso2", "rc.name", "rc.land_cells_total_res8")

	if f.ISO2 != "" {
		q = q.Where(sq.Eq{"rc.iso2": f.ISO2})
	}
	if f.OrderByVisits {
		q = q.OrderBy("visited DESC", "rc.name")
	} else {
		q = q.OrderBy("rc.name")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build country coverage query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("country coverage: %w", err)
	}
	defer rows.Close()

	var out []domain.CountryCoverage
	for rows.Next() {
		var c domain.CountryCoverage
		if err := rows.Scan(&c.CountryID, &c.ISO2, &c.Name, &c.VisitedCells,
			&c.LandCellsTotal, &c.RegionsVisited); err != nil {
			return nil, fmt.Errorf("scan country coverage: %w", err)
		}
		c.CoveragePct = coverage(c.VisitedCells, c.LandCellsTotal)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate country coverage: %w", err)
	}
	return out, nil
}

// RegionFilter narrows the region coverage listing.
type RegionFilter struct {
	CountryISO2   string
	OrderByVisits bool
	Limit         uint64
}

// RegionCoverage lists the user's visited regions with coverage figures.
func (r *Repo) RegionCoverage(ctx context.Context, userID uuid.UUID, f RegionFilter) ([]domain.RegionCoverage, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	q := r.builder.
		Select(
			"rs.id", "rs.country_id", "rs.code", "rs.name",
			"count(*) AS visited",
			"rs.land_cells_total_res8",
		).
		From("user_cell_visits v").
		Join("h3_cells c ON c.h3_index = v.h3_index").
		Join("regions_state rs ON rs.id = c.state_id").
		Where(sq.Eq{"v.user_id": userID, "v.res": 8}).
		GroupBy("rs.id", "rs.country_id", "rs.code", "rs.name", "rs.land_cells_total_res8")

	if f.CountryISO2 != "" {
		q = q.Join("regions_country rc ON rc.id = rs.country_id").
			Where(sq.Eq{"rc.iso2": f.CountryISO2})
	}
	if f.OrderByVisits {
		q = q.OrderBy("visited DESC", "rs.name")
	} else {
		q = q.OrderBy("rs.name")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build region coverage query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("region coverage: %w", err)
	}
	defer rows.Close()

	var out []domain.RegionCoverage
	for rows.Next() {
		var reg domain.RegionCoverage
		if err := rows.Scan(&reg.RegionID, &reg.CountryID, &reg.Code, &reg.Name,
			&reg.VisitedCells, &reg.LandCellsTotal); err != nil {
			return nil, fmt.Errorf("scan region coverage: %w", err)
		}
		reg.CoveragePct = coverage(reg.VisitedCells, reg.LandCellsTotal)
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate region coverage: %w", err)
	}
	return out, nil
}

func coverage(visited int64, total *int64) float64 {
	if total == nil || *total <= 0 {
		return 0
	}
	return float64(visited) / float64(*total)
}
