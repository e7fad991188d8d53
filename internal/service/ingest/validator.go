package ingest

import (
	"time"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
	"github.com/trekkr-app/trekkr-backend/internal/hexgrid"
)

// validateAndDedup applies per-sample validation in input order, then
// collapses repeated fine cells to their first occurrence. Duplicates are
// dropped silently; only genuinely bad samples land in the skipped list.
func (s *Service) validateAndDedup(samples []Sample, now time.Time) ([]validSample, []domain.SkippedSample) {
	valid := make([]validSample, 0, len(samples))
	var skipped []domain.SkippedSample
	seen := make(map[string]struct{}, len(samples))

	for i, sample := range samples {
		expected, err := hexgrid.CellForPoint(sample.Lat, sample.Lng, domain.CellLevelFine)
		if err != nil {
			skipped = append(skipped, domain.SkippedSample{Index: i, Reason: domain.SkipInvalidCoordinates})
			continue
		}

		if !hexgrid.IsCellAtLevel(sample.CellIndex, domain.CellLevelFine) {
			skipped = append(skipped, domain.SkippedSample{Index: i, Reason: domain.SkipInvalidCellFormat})
			continue
		}

		if sample.CellIndex != expected {
			ok, err := s.withinJitter(expected, sample.CellIndex)
			if err != nil || !ok {
				skipped = append(skipped, domain.SkippedSample{Index: i, Reason: domain.SkipCellMismatch})
				continue
			}
		}

		// First occurrence of a fine cell wins; later duplicates vanish.
		if _, dup := seen[sample.CellIndex]; dup {
			continue
		}
		seen[sample.CellIndex] = struct{}{}

		coarse, err := hexgrid.ParentCell(sample.CellIndex, domain.CellLevelCoarse)
		if err != nil {
			skipped = append(skipped, domain.SkippedSample{Index: i, Reason: domain.SkipInvalidCellFormat})
			continue
		}

		ts := now
		if sample.Timestamp != nil {
			ts = sample.Timestamp.UTC()
		}

		valid = append(valid, validSample{
			index:      i,
			lat:        sample.Lat,
			lng:        sample.Lng,
			fineCell:   sample.CellIndex,
			coarseCell: coarse,
			timestamp:  ts,
		})
	}

	return valid, skipped
}

// withinJitter reports whether claimed sits within the configured grid ring
// distance of expected. Ring 1 tolerates ordinary GPS drift near a cell
// border.
func (s *Service) withinJitter(expected, claimed string) (bool, error) {
	for ring := 1; ring <= s.cfg.JitterRing; ring++ {
		neighbors, err := hexgrid.RingNeighbors(expected, ring)
		if err != nil {
			return false, err
		}
		if _, ok := neighbors[claimed]; ok {
			return true, nil
		}
	}
	return false, nil
}
