package domain

// CountryCoverage is one country's visit footprint for a user.
// CoveragePct is a fraction in [0,1], zero when no land total is seeded.
type CountryCoverage struct {
	CountryID      int64
	ISO2           string
	Name           string
	VisitedCells   int64
	LandCellsTotal *int64
	CoveragePct    float64
	RegionsVisited int64
}

// RegionCoverage is one region's visit footprint for a user.
type RegionCoverage struct {
	RegionID       int64
	CountryID      int64
	Code           *string
	Name           string
	VisitedCells   int64
	LandCellsTotal *int64
	CoveragePct    float64
}

// OverviewStats is the headline numbers shown on the profile screen.
type OverviewStats struct {
	CellsTotal       int64
	CountriesVisited int64
	RegionsVisited   int64
	Achievements     int64
	FirstActivityDay *string
	ActiveDays       int64
}
