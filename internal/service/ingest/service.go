// Package ingest implements the batch location ingestion pipeline: validate
// and dedup GPS samples against the hex grid, snapshot the user's visit
// state, reverse-geocode per coarse cell, bulk-upsert both cell tables, and
// classify discoveries, all inside one transaction per batch.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/config"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// visitRepo defines the visit ledger interface needed by the ingest service.
type visitRepo interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*domain.VisitSnapshot, error)
	UpsertBatch(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, visits []domain.VisitUpsert) (map[string]domain.VisitUpsertResult, error)
	RecordBatch(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, processed, skipped int) error
}

// cellRepo defines the cell registry interface needed by the ingest service.
type cellRepo interface {
	UpsertBatch(ctx context.Context, cells []domain.CellUpsert) error
	GetPlaces(ctx context.Context, indexes []string) (map[string]domain.Place, error)
}

// regionRepo defines the geometry lookup interface needed by the ingest service.
type regionRepo interface {
	Locate(ctx context.Context, lat, lng float64) (domain.Place, error)
	GetCountries(ctx context.Context, ids []int64) (map[int64]domain.Country, error)
	GetRegions(ctx context.Context, ids []int64) (map[int64]domain.Region, error)
}

// deviceRepo defines the device registry interface needed by the ingest service.
type deviceRepo interface {
	Ensure(ctx context.Context, userID uuid.UUID, meta domain.DeviceMeta) (*domain.Device, error)
}

// achievementEvaluator is consulted once per batch, after persistence, inside
// the batch transaction.
type achievementEvaluator interface {
	EvaluateUnlocks(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error)
}

// txManager defines the transaction manager interface needed by the ingest service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements batch location ingestion.
type Service struct {
	log          *slog.Logger
	visits       visitRepo
	cells        cellRepo
	regions      regionRepo
	devices      deviceRepo
	achievements achievementEvaluator
	tx           txManager
	cfg          config.IngestConfig
}

// NewService creates a new ingest service instance.
func NewService(
	logger *slog.Logger,
	visits visitRepo,
	cells cellRepo,
	regions regionRepo,
	devices deviceRepo,
	achievements achievementEvaluator,
	tx txManager,
	cfg config.IngestConfig,
) *Service {
	return &Service{
		log:          logger.With("service", "ingest"),
		visits:       visits,
		cells:        cells,
		regions:      regions,
		devices:      devices,
		achievements: achievements,
		tx:           tx,
		cfg:          cfg,
	}
}
