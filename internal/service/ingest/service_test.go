package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trekkr-app/trekkr-backend/internal/config"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
	"github.com/trekkr-app/trekkr-backend/internal/hexgrid"
)

//go:generate moq -out visit_repo_mock_test.go -pkg ingest . visitRepo
//go:generate moq -out region_repo_mock_test.go -pkg ingest . regionRepo

func defaultCfg() config.IngestConfig {
	return config.IngestConfig{
		MaxBatchSize:       100,
		RateLimitPerMinute: 120,
		JitterRing:         1,
	}
}

// deps bundles all mocks with pass-through defaults so each test only
// overrides what it cares about.
type deps struct {
	visits       *visitRepoMock
	cells        *cellRepoMock
	regions      *regionRepoMock
	devices      *deviceRepoMock
	achievements *achievementEvaluatorMock
	tx           *txManagerMock
}

func newTestService(t *testing.T) (*Service, *deps) {
	t.Helper()

	d := &deps{
		visits: &visitRepoMock{
			SnapshotFunc: func(ctx context.Context, userID uuid.UUID) (*domain.VisitSnapshot, error) {
				return domain.NewVisitSnapshot(), nil
			},
			UpsertBatchFunc: func(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, visits []domain.VisitUpsert) (map[string]domain.VisitUpsertResult, error) {
				// Every visit is a fresh insert unless a test overrides this.
				out := make(map[string]domain.VisitUpsertResult, len(visits))
				for _, v := range visits {
					out[v.CellIndex] = domain.VisitUpsertResult{CellIndex: v.CellIndex, Level: v.Level, Inserted: true, VisitCount: 1}
				}
				return out, nil
			},
			RecordBatchFunc: func(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, processed, skipped int) error {
				return nil
			},
		},
		cells: &cellRepoMock{
			UpsertBatchFunc: func(ctx context.Context, cells []domain.CellUpsert) error { return nil },
			GetPlacesFunc: func(ctx context.Context, indexes []string) (map[string]domain.Place, error) {
				// Registry knows nothing unless a test overrides this.
				return map[string]domain.Place{}, nil
			},
		},
		regions: &regionRepoMock{
			LocateFunc: func(ctx context.Context, lat, lng float64) (domain.Place, error) {
				return domain.Place{}, nil
			},
			GetCountriesFunc: func(ctx context.Context, ids []int64) (map[int64]domain.Country, error) {
				out := make(map[int64]domain.Country, len(ids))
				for _, id := range ids {
					out[id] = domain.Country{ID: id, ISO2: "XX", Name: "Country"}
				}
				return out, nil
			},
			GetRegionsFunc: func(ctx context.Context, ids []int64) (map[int64]domain.Region, error) {
				out := make(map[int64]domain.Region, len(ids))
				for _, id := range ids {
					out[id] = domain.Region{ID: id, Name: "Region"}
				}
				return out, nil
			},
		},
		devices: &deviceRepoMock{
			EnsureFunc: func(ctx context.Context, userID uuid.UUID, meta domain.DeviceMeta) (*domain.Device, error) {
				return &domain.Device{ID: uuid.New(), UserID: userID}, nil
			},
		},
		achievements: &achievementEvaluatorMock{
			EvaluateUnlocksFunc: func(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error) {
				return nil, nil
			},
		},
		tx: &txManagerMock{
			RunInTxFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
				return fn(ctx)
			},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, d.visits, d.cells, d.regions, d.devices, d.achievements, d.tx, defaultCfg())
	return svc, d
}

// sampleAt builds a consistent sample: the claimed cell is derived from the
// coordinates, exactly as an honest client would send it.
func sampleAt(t *testing.T, lat, lng float64) Sample {
	t.Helper()
	cell, err := hexgrid.CellForPoint(lat, lng, domain.CellLevelFine)
	require.NoError(t, err)
	return Sample{Lat: lat, Lng: lng, CellIndex: cell}
}

// ─── Batch shape ────────────────────────────────────────────────────────────

func TestService_IngestBatch_EmptyBatchRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_IngestBatch_OversizedBatchRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	samples := make([]Sample, 101)
	for i := range samples {
		samples[i] = sampleAt(t, 48.85, 2.35)
	}

	_, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: samples})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_IngestBatch_MaxSizeBatchAccepted(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	samples := make([]Sample, 100)
	for i := range samples {
		samples[i] = sampleAt(t, 48.85, 2.35)
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: samples})
	require.NoError(t, err)
	// 100 copies of one cell collapse to a single processed sample.
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Skipped)
}

// ─── Validation and dedup ───────────────────────────────────────────────────

func TestService_IngestBatch_InvalidCoordinatesSkipped(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	good := sampleAt(t, 48.85, 2.35)
	bad := Sample{Lat: 91, Lng: 2.35, CellIndex: good.CellIndex}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{bad, good}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.SkippedReasons, 1)
	assert.Equal(t, 0, res.SkippedReasons[0].Index)
	assert.Equal(t, domain.SkipInvalidCoordinates, res.SkippedReasons[0].Reason)
}

func TestService_IngestBatch_MalformedCellSkipped(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{
		{Lat: 48.85, Lng: 2.35, CellIndex: "not-a-cell"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.SkippedReasons, 1)
	assert.Equal(t, domain.SkipInvalidCellFormat, res.SkippedReasons[0].Reason)
}

func TestService_IngestBatch_OneRingNeighborAccepted(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	expected, err := hexgrid.CellForPoint(48.85, 2.35, domain.CellLevelFine)
	require.NoError(t, err)
	neighbors, err := hexgrid.RingNeighbors(expected, 1)
	require.NoError(t, err)
	require.NotEmpty(t, neighbors)

	var claimed string
	for n := range neighbors {
		claimed = n
		break
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{
		{Lat: 48.85, Lng: 2.35, CellIndex: claimed},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Skipped)
}

func TestService_IngestBatch_TwoRingsAwayRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	expected, err := hexgrid.CellForPoint(48.85, 2.35, domain.CellLevelFine)
	require.NoError(t, err)
	ring2, err := hexgrid.RingNeighbors(expected, 2)
	require.NoError(t, err)
	require.NotEmpty(t, ring2)

	var claimed string
	for n := range ring2 {
		claimed = n
		break
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{
		{Lat: 48.85, Lng: 2.35, CellIndex: claimed},
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.SkippedReasons, 1)
	assert.Equal(t, domain.SkipCellMismatch, res.SkippedReasons[0].Reason)
}

func TestService_IngestBatch_DuplicatesCollapseSilently(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	early := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	s1 := sampleAt(t, 48.85, 2.35)
	s1.Timestamp = &early
	s2 := s1
	s2.Timestamp = &late

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{s1, s2}})
	require.NoError(t, err)

	// Duplicate counts toward neither processed nor skipped.
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Skipped)
	assert.Empty(t, res.SkippedReasons)

	// The earlier timestamp is the one persisted.
	calls := d.visits.UpsertBatchCalls()
	require.Len(t, calls, 1)
	var fineVisits []domain.VisitUpsert
	for _, v := range calls[0].Visits {
		if v.Level == domain.CellLevelFine {
			fineVisits = append(fineVisits, v)
		}
	}
	require.Len(t, fineVisits, 1)
	assert.True(t, fineVisits[0].Timestamp.Equal(early))
}

// ─── Early exit ─────────────────────────────────────────────────────────────

func TestService_IngestBatch_AllInvalidSkipsStoreAndEvaluator(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{
		{Lat: 95, Lng: 0, CellIndex: "x"},
		{Lat: 0, Lng: 200, CellIndex: "y"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.AchievementsUnlocked)
	assert.Empty(t, d.achievements.EvaluateUnlocksCalls())
	assert.Empty(t, d.cells.UpsertBatchCalls())
}

// ─── Geocode grouping ───────────────────────────────────────────────────────

func TestService_IngestBatch_OneGeocodePerCoarseCell(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	// Three nearby points share one coarse ancestor; one far away does not.
	near1 := sampleAt(t, 48.8566, 2.3522)
	near2 := sampleAt(t, 48.8570, 2.3530)
	near3 := sampleAt(t, 48.8560, 2.3510)
	far := sampleAt(t, 35.6762, 139.6503)

	coarseNear, err := hexgrid.ParentCell(near1.CellIndex, domain.CellLevelCoarse)
	require.NoError(t, err)
	for _, s := range []Sample{near2, near3} {
		c, err := hexgrid.ParentCell(s.CellIndex, domain.CellLevelCoarse)
		require.NoError(t, err)
		require.Equal(t, coarseNear, c, "test points must share a coarse ancestor")
	}

	_, err = svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{near1, near2, near3, far},
	})
	require.NoError(t, err)

	assert.Len(t, d.regions.LocateCalls(), 2)
}

func TestService_IngestBatch_RegistryHitSkipsGeocode(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	sample := sampleAt(t, 35.6762, 139.6503)
	coarse, err := hexgrid.ParentCell(sample.CellIndex, domain.CellLevelCoarse)
	require.NoError(t, err)

	countryID := int64(81)
	d.cells.GetPlacesFunc = func(ctx context.Context, indexes []string) (map[string]domain.Place, error) {
		return map[string]domain.Place{coarse: {CountryID: &countryID}}, nil
	}
	d.regions.GetCountriesFunc = func(ctx context.Context, ids []int64) (map[int64]domain.Country, error) {
		return map[int64]domain.Country{81: {ID: 81, ISO2: "JP", Name: "Japan"}}, nil
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{sample}})
	require.NoError(t, err)

	// The registry already attributed this coarse cell; no geometry lookup,
	// and the stored attribution drives the discovery.
	assert.Empty(t, d.regions.LocateCalls())
	require.Len(t, res.Discoveries.NewCountries, 1)
	assert.Equal(t, "JP", res.Discoveries.NewCountries[0].ISO2)
}

func TestService_IngestBatch_UnattributedRegistryRowStillGeocoded(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	sample := sampleAt(t, 35.6762, 139.6503)
	coarse, err := hexgrid.ParentCell(sample.CellIndex, domain.CellLevelCoarse)
	require.NoError(t, err)

	// A registry row with no country may predate the geometry seed; it must
	// not suppress the lookup.
	d.cells.GetPlacesFunc = func(ctx context.Context, indexes []string) (map[string]domain.Place, error) {
		return map[string]domain.Place{coarse: {}}, nil
	}

	_, err = svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{sample}})
	require.NoError(t, err)

	assert.Len(t, d.regions.LocateCalls(), 1)
}

// ─── Discoveries ────────────────────────────────────────────────────────────

func TestService_IngestBatch_CountryDiscoveredOnce(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	countryID := int64(81)
	d.regions.LocateFunc = func(ctx context.Context, lat, lng float64) (domain.Place, error) {
		return domain.Place{CountryID: &countryID}, nil
	}
	d.regions.GetCountriesFunc = func(ctx context.Context, ids []int64) (map[int64]domain.Country, error) {
		return map[int64]domain.Country{81: {ID: 81, ISO2: "JP", Name: "Japan"}}, nil
	}

	a := sampleAt(t, 35.6762, 139.6503)
	b := a // duplicate of a's cell
	later := time.Now().UTC().Add(time.Minute)
	b.Timestamp = &later
	c := sampleAt(t, 34.6937, 135.5023) // different cell, same country

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{a, b, c}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 2, res.Discoveries.NewCellsFine)
	require.Len(t, res.Discoveries.NewCountries, 1)
	assert.Equal(t, "Japan", res.Discoveries.NewCountries[0].Name)
	assert.Equal(t, "JP", res.Discoveries.NewCountries[0].ISO2)
}

func TestService_IngestBatch_KnownCountryNotRediscovered(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	countryID := int64(81)
	d.regions.LocateFunc = func(ctx context.Context, lat, lng float64) (domain.Place, error) {
		return domain.Place{CountryID: &countryID}, nil
	}
	d.visits.SnapshotFunc = func(ctx context.Context, userID uuid.UUID) (*domain.VisitSnapshot, error) {
		snap := domain.NewVisitSnapshot()
		snap.AddCountry(countryID)
		return snap, nil
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{sampleAt(t, 35.6762, 139.6503)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Discoveries.NewCellsFine)
	assert.Empty(t, res.Discoveries.NewCountries)
}

func TestService_IngestBatch_RevisitYieldsNoDiscoveries(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	d.visits.UpsertBatchFunc = func(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, visits []domain.VisitUpsert) (map[string]domain.VisitUpsertResult, error) {
		out := make(map[string]domain.VisitUpsertResult, len(visits))
		for _, v := range visits {
			out[v.CellIndex] = domain.VisitUpsertResult{CellIndex: v.CellIndex, Level: v.Level, Inserted: false, VisitCount: 2}
		}
		return out, nil
	}

	countryID := int64(81)
	d.regions.LocateFunc = func(ctx context.Context, lat, lng float64) (domain.Place, error) {
		return domain.Place{CountryID: &countryID}, nil
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{sampleAt(t, 35.6762, 139.6503)},
	})
	require.NoError(t, err)

	// Resubmitting an already seen batch still counts processed but finds
	// nothing new.
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Discoveries.NewCellsFine)
	assert.Equal(t, 0, res.Discoveries.NewCellsCoarse)
	assert.Empty(t, res.Discoveries.NewCountries)
	assert.Empty(t, res.Discoveries.NewRegions)
}

// ─── Failure propagation ────────────────────────────────────────────────────

func TestService_IngestBatch_GeocodeFailureIsUnavailable(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	d.regions.LocateFunc = func(ctx context.Context, lat, lng float64) (domain.Place, error) {
		return domain.Place{}, errors.New("connection refused")
	}

	_, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{sampleAt(t, 48.85, 2.35)},
	})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestService_IngestBatch_PersistFailureIsUnavailable(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	d.cells.UpsertBatchFunc = func(ctx context.Context, cells []domain.CellUpsert) error {
		return errors.New("deadlock detected")
	}

	_, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{sampleAt(t, 48.85, 2.35)},
	})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

// ─── Achievements and device ────────────────────────────────────────────────

func TestService_IngestBatch_ReturnsUnlockedAchievements(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	d.achievements.EvaluateUnlocksFunc = func(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error) {
		return []domain.Achievement{{ID: 1, Code: "first_steps", Name: "First Steps"}}, nil
	}

	res, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{sampleAt(t, 48.85, 2.35)},
	})
	require.NoError(t, err)
	require.Len(t, res.AchievementsUnlocked, 1)
	assert.Equal(t, "first_steps", res.AchievementsUnlocked[0].Code)
}

func TestService_IngestBatch_DeviceAttachedToVisits(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	deviceID := uuid.New()
	d.devices.EnsureFunc = func(ctx context.Context, userID uuid.UUID, meta domain.DeviceMeta) (*domain.Device, error) {
		return &domain.Device{ID: deviceID, UserID: userID}, nil
	}

	name := "Pixel"
	_, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{
		Samples: []Sample{sampleAt(t, 48.85, 2.35)},
		Device:  &domain.DeviceMeta{Name: &name},
	})
	require.NoError(t, err)

	calls := d.visits.UpsertBatchCalls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].DeviceID)
	assert.Equal(t, deviceID, *calls[0].DeviceID)
}

func TestService_IngestBatch_RecordsAuditRow(t *testing.T) {
	t.Parallel()
	svc, d := newTestService(t)

	good := sampleAt(t, 48.85, 2.35)
	bad := Sample{Lat: 91, Lng: 0, CellIndex: good.CellIndex}

	_, err := svc.IngestBatch(context.Background(), uuid.New(), BatchInput{Samples: []Sample{good, bad}})
	require.NoError(t, err)

	calls := d.visits.RecordBatchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].Processed)
	assert.Equal(t, 1, calls[0].Skipped)
}
