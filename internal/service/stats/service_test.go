package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/stats"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

var _ statsRepo = &statsRepoMock{}

type statsRepoMock struct {
	OverviewFunc        func(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error)
	CountryCoverageFunc func(ctx context.Context, userID uuid.UUID, f stats.CountryFilter) ([]domain.CountryCoverage, error)
	RegionCoverageFunc  func(ctx context.Context, userID uuid.UUID, f stats.RegionFilter) ([]domain.RegionCoverage, error)

	calls struct {
		CountryCoverage []struct{ Filter stats.CountryFilter }
		RegionCoverage  []struct{ Filter stats.RegionFilter }
	}
	lock sync.RWMutex
}

func (mock *statsRepoMock) Overview(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error) {
	if mock.OverviewFunc == nil {
		panic("statsRepoMock.OverviewFunc: method is nil but statsRepo.Overview was just called")
	}
	return mock.OverviewFunc(ctx, userID)
}

func (mock *statsRepoMock) CountryCoverage(ctx context.Context, userID uuid.UUID, f stats.CountryFilter) ([]domain.CountryCoverage, error) {
	if mock.CountryCoverageFunc == nil {
		panic("statsRepoMock.CountryCoverageFunc: method is nil but statsRepo.CountryCoverage was just called")
	}
	mock.lock.Lock()
	mock.calls.CountryCoverage = append(mock.calls.CountryCoverage, struct{ Filter stats.CountryFilter }{f})
	mock.lock.Unlock()
	return mock.CountryCoverageFunc(ctx, userID, f)
}

func (mock *statsRepoMock) CountryCoverageCalls() []struct{ Filter stats.CountryFilter } {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.CountryCoverage
}

func (mock *statsRepoMock) RegionCoverage(ctx context.Context, userID uuid.UUID, f stats.RegionFilter) ([]domain.RegionCoverage, error) {
	if mock.RegionCoverageFunc == nil {
		panic("statsRepoMock.RegionCoverageFunc: method is nil but statsRepo.RegionCoverage was just called")
	}
	mock.lock.Lock()
	mock.calls.RegionCoverage = append(mock.calls.RegionCoverage, struct{ Filter stats.RegionFilter }{f})
	mock.lock.Unlock()
	return mock.RegionCoverageFunc(ctx, userID, f)
}

func (mock *statsRepoMock) RegionCoverageCalls() []struct{ Filter stats.RegionFilter } {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.RegionCoverage
}

func newTestService(repo *statsRepoMock) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo)
}

func TestService_Overview(t *testing.T) {
	t.Parallel()

	day := "2026-08-01"
	repo := &statsRepoMock{
		OverviewFunc: func(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error) {
			return domain.OverviewStats{CellsTotal: 42, CountriesVisited: 3, FirstActivityDay: &day}, nil
		},
	}
	svc := newTestService(repo)

	o, err := svc.Overview(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(42), o.CellsTotal)
	assert.Equal(t, int64(3), o.CountriesVisited)
}

func TestService_Overview_RepoErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := &statsRepoMock{
		OverviewFunc: func(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error) {
			return domain.OverviewStats{}, errors.New("pool closed")
		},
	}
	svc := newTestService(repo)

	_, err := svc.Overview(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestService_Countries_OrdersByVisits(t *testing.T) {
	t.Parallel()

	repo := &statsRepoMock{
		CountryCoverageFunc: func(ctx context.Context, userID uuid.UUID, f stats.CountryFilter) ([]domain.CountryCoverage, error) {
			return []domain.CountryCoverage{{ISO2: "JP", VisitedCells: 10}}, nil
		},
	}
	svc := newTestService(repo)

	out, err := svc.Countries(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, out, 1)

	calls := repo.CountryCoverageCalls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Filter.OrderByVisits)
	assert.Empty(t, calls[0].Filter.ISO2)
}

func TestService_Regions_CountryCodeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		country string
		wantErr bool
		want    string
	}{
		{"empty passes through", "", false, ""},
		{"uppercase kept", "JP", false, "JP"},
		{"lowercase normalized", "jp", false, "JP"},
		{"whitespace trimmed", " fr ", false, "FR"},
		{"three letters rejected", "JPN", true, ""},
		{"one letter rejected", "J", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &statsRepoMock{
				RegionCoverageFunc: func(ctx context.Context, userID uuid.UUID, f stats.RegionFilter) ([]domain.RegionCoverage, error) {
					return nil, nil
				},
			}
			svc := newTestService(repo)

			_, err := svc.Regions(context.Background(), uuid.New(), tt.country)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Empty(t, repo.RegionCoverageCalls())
				return
			}

			require.NoError(t, err)
			calls := repo.RegionCoverageCalls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.want, calls[0].Filter.CountryISO2)
			assert.True(t, calls[0].Filter.OrderByVisits)
		})
	}
}
