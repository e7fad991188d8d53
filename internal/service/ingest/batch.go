package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// IngestBatch runs the full pipeline for one batch: validate and dedup,
// snapshot, geocode, persist, classify discoveries, evaluate achievements.
// Everything that touches the store happens inside a single transaction;
// a store failure commits nothing and surfaces as ErrUnavailable so clients
// retry the whole batch, which is safe because persistence is idempotent.
func (s *Service) IngestBatch(ctx context.Context, userID uuid.UUID, input BatchInput) (*domain.BatchResult, error) {
	if err := input.Validate(s.cfg.MaxBatchSize); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	valid, skippedList := s.validateAndDedup(input.Samples, now)

	result := &domain.BatchResult{
		Skipped:        len(skippedList),
		SkippedReasons: skippedList,
	}

	// Nothing survived validation: respond without touching the store and
	// without consulting the achievement evaluator.
	if len(valid) == 0 {
		s.log.InfoContext(ctx, "batch had no valid samples",
			slog.String("user_id", userID.String()),
			slog.Int("skipped", result.Skipped))
		return result, nil
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var deviceID *uuid.UUID
		if input.Device != nil {
			device, err := s.devices.Ensure(txCtx, userID, *input.Device)
			if err != nil {
				return fmt.Errorf("ensure device: %w", err)
			}
			deviceID = &device.ID
		}

		snapshot, err := s.visits.Snapshot(txCtx, userID)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}

		places, err := s.geocodeBatch(txCtx, valid)
		if err != nil {
			return err
		}

		if err := s.persist(txCtx, userID, deviceID, valid, places, snapshot, result); err != nil {
			return err
		}

		if err := s.visits.RecordBatch(txCtx, userID, deviceID, result.Processed, result.Skipped); err != nil {
			return fmt.Errorf("record batch: %w", err)
		}

		unlocked, err := s.achievements.EvaluateUnlocks(txCtx, userID)
		if err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
		result.AchievementsUnlocked = unlocked

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ingest batch: %w", err)
		}
		// Store trouble mid-pipeline fails the whole batch as unavailable.
		return nil, fmt.Errorf("ingest batch: %w", errors.Join(domain.ErrUnavailable, err))
	}

	s.log.InfoContext(ctx, "batch ingested",
		slog.String("user_id", userID.String()),
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("new_cells_fine", result.Discoveries.NewCellsFine),
		slog.Int("new_countries", len(result.Discoveries.NewCountries)),
		slog.Int("achievements_unlocked", len(result.AchievementsUnlocked)))

	return result, nil
}

// persist upserts both cell tables and classifies discoveries against the
// mutable snapshot, in input order so attribution ties resolve the same way
// every run.
func (s *Service) persist(
	ctx context.Context,
	userID uuid.UUID,
	deviceID *uuid.UUID,
	valid []validSample,
	places map[string]domain.Place,
	snapshot *domain.VisitSnapshot,
	result *domain.BatchResult,
) error {
	cellUpserts, visitUpserts, coarseOrder := buildUpserts(valid, places)

	if err := s.cells.UpsertBatch(ctx, cellUpserts); err != nil {
		return fmt.Errorf("upsert cell registry: %w", err)
	}

	verdicts, err := s.visits.UpsertBatch(ctx, userID, deviceID, visitUpserts)
	if err != nil {
		return fmt.Errorf("upsert visit ledger: %w", err)
	}

	var newCountryIDs, newRegionIDs []int64

	// Fine cells drive discoveries; walk the batch in input order.
	for _, sample := range valid {
		result.Processed++

		verdict, ok := verdicts[sample.fineCell]
		if !ok || !verdict.Inserted {
			continue
		}
		result.Discoveries.NewCellsFine++
		snapshot.FineCellIDs[sample.fineCell] = struct{}{}

		if id := sample.place.CountryID; id != nil && !snapshot.HasCountry(*id) {
			snapshot.AddCountry(*id)
			newCountryIDs = append(newCountryIDs, *id)
		}
		if id := sample.place.RegionID; id != nil && !snapshot.HasRegion(*id) {
			snapshot.AddRegion(*id)
			newRegionIDs = append(newRegionIDs, *id)
		}
	}

	for _, coarse := range coarseOrder {
		if verdict, ok := verdicts[coarse]; ok && verdict.Inserted {
			result.Discoveries.NewCellsCoarse++
			snapshot.CoarseCellIDs[coarse] = struct{}{}
		}
	}

	refs, err := s.resolveDiscoveryRefs(ctx, newCountryIDs, newRegionIDs)
	if err != nil {
		return err
	}
	result.Discoveries.NewCountries = refs.countries
	result.Discoveries.NewRegions = refs.regions

	return nil
}

// buildUpserts assembles the two set-based upsert payloads. Fine cells come
// straight from the samples; distinct coarse ancestors are appended once
// each, in first-appearance order, carrying the representative sample's
// coordinates and the earliest timestamp seen for that ancestor.
func buildUpserts(valid []validSample, places map[string]domain.Place) ([]domain.CellUpsert, []domain.VisitUpsert, []string) {
	cellUpserts := make([]domain.CellUpsert, 0, len(valid)*2)
	visitUpserts := make([]domain.VisitUpsert, 0, len(valid)*2)

	coarseSeen := make(map[string]int, len(valid))
	var coarseOrder []string
	var coarseUpserts []domain.CellUpsert

	for _, sample := range valid {
		cellUpserts = append(cellUpserts, domain.CellUpsert{
			Index:     sample.fineCell,
			Level:     domain.CellLevelFine,
			CountryID: sample.place.CountryID,
			RegionID:  sample.place.RegionID,
			Lat:       sample.lat,
			Lng:       sample.lng,
			Timestamp: sample.timestamp,
		})
		visitUpserts = append(visitUpserts, domain.VisitUpsert{
			CellIndex: sample.fineCell,
			Level:     domain.CellLevelFine,
			Timestamp: sample.timestamp,
		})

		if pos, ok := coarseSeen[sample.coarseCell]; ok {
			if sample.timestamp.Before(coarseUpserts[pos].Timestamp) {
				coarseUpserts[pos].Timestamp = sample.timestamp
			}
			continue
		}
		coarseSeen[sample.coarseCell] = len(coarseUpserts)
		coarseOrder = append(coarseOrder, sample.coarseCell)
		place := places[sample.coarseCell]
		coarseUpserts = append(coarseUpserts, domain.CellUpsert{
			Index:     sample.coarseCell,
			Level:     domain.CellLevelCoarse,
			CountryID: place.CountryID,
			RegionID:  place.RegionID,
			Lat:       sample.lat,
			Lng:       sample.lng,
			Timestamp: sample.timestamp,
		})
	}

	cellUpserts = append(cellUpserts, coarseUpserts...)
	for _, cu := range coarseUpserts {
		visitUpserts = append(visitUpserts, domain.VisitUpsert{
			CellIndex: cu.Index,
			Level:     domain.CellLevelCoarse,
			Timestamp: cu.Timestamp,
		})
	}

	return cellUpserts, visitUpserts, coarseOrder
}

type discoveryRefs struct {
	countries []domain.CountryRef
	regions   []domain.RegionRef
}

// resolveDiscoveryRefs fetches display fields for newly discovered countries
// and regions, preserving discovery order.
func (s *Service) resolveDiscoveryRefs(ctx context.Context, countryIDs, regionIDs []int64) (discoveryRefs, error) {
	var refs discoveryRefs

	if len(countryIDs) > 0 {
		countries, err := s.regions.GetCountries(ctx, countryIDs)
		if err != nil {
			return refs, fmt.Errorf("resolve discovered countries: %w", err)
		}
		for _, id := range countryIDs {
			if c, ok := countries[id]; ok {
				refs.countries = append(refs.countries, domain.CountryRef{ID: c.ID, Name: c.Name, ISO2: c.ISO2})
			}
		}
	}

	if len(regionIDs) > 0 {
		regions, err := s.regions.GetRegions(ctx, regionIDs)
		if err != nil {
			return refs, fmt.Errorf("resolve discovered regions: %w", err)
		}
		for _, id := range regionIDs {
			if r, ok := regions[id]; ok {
				refs.regions = append(refs.regions, domain.RegionRef{ID: r.ID, Name: r.Name, Code: r.Code})
			}
		}
	}

	return refs, nil
}
