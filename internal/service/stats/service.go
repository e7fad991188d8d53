// Package stats implements read-only coverage aggregation for the profile
// and stats screens.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/stats"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// statsRepo defines the aggregation interface needed by the stats service.
type statsRepo interface {
	Overview(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error)
	CountryCoverage(ctx context.Context, userID uuid.UUID, f stats.CountryFilter) ([]domain.CountryCoverage, error)
	RegionCoverage(ctx context.Context, userID uuid.UUID, f stats.RegionFilter) ([]domain.RegionCoverage, error)
}

// Service implements stats operations.
type Service struct {
	log   *slog.Logger
	stats statsRepo
}

// NewService creates a new stats service instance.
func NewService(logger *slog.Logger, repo statsRepo) *Service {
	return &Service{
		log:   logger.With("service", "stats"),
		stats: repo,
	}
}

// Overview returns the headline numbers for the user.
func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error) {
	o, err := s.stats.Overview(ctx, userID)
	if err != nil {
		return domain.OverviewStats{}, fmt.Errorf("stats.Overview: %w", err)
	}
	return o, nil
}

// Countries lists the user's visited countries with coverage, most visited
// first.
func (s *Service) Countries(ctx context.Context, userID uuid.UUID) ([]domain.CountryCoverage, error) {
	out, err := s.stats.CountryCoverage(ctx, userID, stats.CountryFilter{OrderByVisits: true})
	if err != nil {
		return nil, fmt.Errorf("stats.Countries: %w", err)
	}
	return out, nil
}

// Regions lists the user's visited regions, optionally narrowed to one
// country by its ISO2 code.
func (s *Service) Regions(ctx context.Context, userID uuid.UUID, countryISO2 string) ([]domain.RegionCoverage, error) {
	countryISO2 = strings.ToUpper(strings.TrimSpace(countryISO2))
	if countryISO2 != "" && len(countryISO2) != 2 {
		return nil, domain.NewValidationError("country", "must be a two-letter ISO code")
	}

	out, err := s.stats.RegionCoverage(ctx, userID, stats.RegionFilter{
		CountryISO2:   countryISO2,
		OrderByVisits: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stats.Regions: %w", err)
	}
	return out, nil
}
