package domain

import "time"

// SkipReason is the closed set of reasons a sample can be rejected while the
// rest of its batch continues processing.
type SkipReason string

const (
	SkipInvalidCoordinates SkipReason = "invalid_coordinates"
	SkipInvalidCellFormat  SkipReason = "invalid_cell_format"
	SkipCellMismatch       SkipReason = "cell_mismatch"
)

// SkippedSample reports why the sample at the original batch index was
// excluded. In-batch duplicates are not skipped samples; they are silently
// collapsed into the first occurrence.
type SkippedSample struct {
	Index  int
	Reason SkipReason
}

// CellUpsert is one row for the set-based upsert into the global cell
// registry.
type CellUpsert struct {
	Index     string
	Level     CellLevel
	CountryID *int64
	RegionID  *int64
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

// VisitUpsert is one row for the set-based upsert into the per-user visit
// ledger.
type VisitUpsert struct {
	CellIndex string
	Level     CellLevel
	Timestamp time.Time
}

// VisitUpsertResult reports the storage engine's verdict for one upserted
// visit: Inserted is true when the row was freshly created rather than
// updated, which is what classifies a visit as a discovery.
type VisitUpsertResult struct {
	CellIndex  string
	Level      CellLevel
	Inserted   bool
	VisitCount int64
}

// CountryRef identifies a newly discovered country in a batch response.
type CountryRef struct {
	ID   int64
	Name string
	ISO2 string
}

// RegionRef identifies a newly discovered region in a batch response.
type RegionRef struct {
	ID   int64
	Name string
	Code *string
}

// Discoveries accumulates everything a batch revealed for the first time.
type Discoveries struct {
	NewCountries   []CountryRef
	NewRegions     []RegionRef
	NewCellsCoarse int
	NewCellsFine   int
}

// BatchResult is the outcome of one ingested batch.
// Processed counts distinct fine cells committed; duplicates of an earlier
// sample in the same batch count toward neither Processed nor Skipped.
type BatchResult struct {
	Processed            int
	Skipped              int
	SkippedReasons       []SkippedSample
	Discoveries          Discoveries
	AchievementsUnlocked []Achievement
}
