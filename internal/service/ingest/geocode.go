package ingest

import (
	"context"
	"fmt"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// geocodeBatch resolves each distinct coarse cell in the batch to a
// (country, region) pair, then fans the result back out to every sample
// sharing that ancestor. Samples are mutated in place.
//
// The cell registry is consulted first: a coarse cell another batch already
// attributed to a country keeps that attribution without touching the
// geometry tables. Registry rows with a NULL country are not trusted; they
// may predate the geometry seed, so they fall through to a fresh lookup.
// Only coarse cells the registry cannot answer cost a point-in-polygon
// query, one per cell, with the first sample (in input order) as the
// representative point.
//
// A coarse cell is small enough that border straddling is rare; one lookup
// per coarse cell instead of per sample is the accepted trade-off.
func (s *Service) geocodeBatch(ctx context.Context, samples []validSample) (map[string]domain.Place, error) {
	distinct := make([]string, 0, len(samples))
	seen := make(map[string]struct{}, len(samples))
	for i := range samples {
		if _, ok := seen[samples[i].coarseCell]; ok {
			continue
		}
		seen[samples[i].coarseCell] = struct{}{}
		distinct = append(distinct, samples[i].coarseCell)
	}

	known, err := s.cells.GetPlaces(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("look up coarse cells: %w", err)
	}

	places := make(map[string]domain.Place, len(distinct))
	for idx, place := range known {
		if place.CountryID != nil {
			places[idx] = place
		}
	}

	for i := range samples {
		sample := &samples[i]
		place, ok := places[sample.coarseCell]
		if !ok {
			var err error
			place, err = s.regions.Locate(ctx, sample.lat, sample.lng)
			if err != nil {
				return nil, fmt.Errorf("geocode coarse cell %s: %w", sample.coarseCell, err)
			}
			places[sample.coarseCell] = place
		}
		sample.place = place
	}

	return places, nil
}
