package domain

import (
	"time"

	"github.com/google/uuid"
)

// VisitRecord is the per-user ledger entry for one cell. A user has at most
// one record per cell; revisits bump the counter and advance LastVisitedAt.
type VisitRecord struct {
	UserID         uuid.UUID
	CellIndex      string
	Level          CellLevel
	DeviceID       *uuid.UUID
	FirstVisitedAt time.Time
	LastVisitedAt  time.Time
	VisitCount     int64
}

// VisitSnapshot is the user's pre-batch visit state: which countries,
// regions and cells the user has already been to. The ingest pipeline takes
// it once per batch and then mutates it in memory while classifying
// discoveries, so repeat discoveries within one batch collapse to one.
type VisitSnapshot struct {
	CountryIDs    map[int64]struct{}
	RegionIDs     map[int64]struct{}
	CoarseCellIDs map[string]struct{}
	FineCellIDs   map[string]struct{}
}

// NewVisitSnapshot returns an empty snapshot with all sets allocated.
func NewVisitSnapshot() *VisitSnapshot {
	return &VisitSnapshot{
		CountryIDs:    make(map[int64]struct{}),
		RegionIDs:     make(map[int64]struct{}),
		CoarseCellIDs: make(map[string]struct{}),
		FineCellIDs:   make(map[string]struct{}),
	}
}

// HasCountry reports whether the country is already in the snapshot.
func (s *VisitSnapshot) HasCountry(id int64) bool {
	_, ok := s.CountryIDs[id]
	return ok
}

// AddCountry records the country so later samples in the same batch do not
// count it as a second discovery.
func (s *VisitSnapshot) AddCountry(id int64) { s.CountryIDs[id] = struct{}{} }

// HasRegion reports whether the region is already in the snapshot.
func (s *VisitSnapshot) HasRegion(id int64) bool {
	_, ok := s.RegionIDs[id]
	return ok
}

// AddRegion records the region in the snapshot.
func (s *VisitSnapshot) AddRegion(id int64) { s.RegionIDs[id] = struct{}{} }
