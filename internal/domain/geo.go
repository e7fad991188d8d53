package domain

import "time"

// CellLevel is one of the two fixed H3 resolutions the tracker works with.
// Coarse cells (res 6, tens of km²) drive reverse geocoding; fine cells
// (res 8, sub-km²) drive the fog-of-war reveal.
type CellLevel int16

const (
	CellLevelCoarse CellLevel = 6
	CellLevelFine   CellLevel = 8
)

// Country is seeded reference data. Geometry lives in PostGIS and is only
// touched by SQL; the Go side carries identity and display fields.
type Country struct {
	ID   int64
	ISO2 string
	ISO3 string
	Name string

	// Precomputed totals of landable cells, used for coverage percentages.
	LandCellsTotalRes6 *int64
	LandCellsTotalRes8 *int64
}

// Region is a state/province inside a country.
type Region struct {
	ID        int64
	CountryID int64
	Code      *string
	Name      string

	LandCellsTotalRes6 *int64
	LandCellsTotalRes8 *int64
}

// Cell is a row in the global cell registry, shared across all users.
// Exactly one row exists per H3 index; it is created on first visit by
// anyone and only ever updated after that.
type Cell struct {
	Index          string
	Level          CellLevel
	CountryID      *int64
	RegionID       *int64
	CentroidLat    float64
	CentroidLng    float64
	FirstVisitedAt time.Time
	LastVisitedAt  time.Time
	VisitCount     int64
}

// Place is a resolved (country, region) attribution for a point. Both may be
// nil when the point falls outside all seeded geometries (open ocean).
type Place struct {
	CountryID *int64
	RegionID  *int64
}
