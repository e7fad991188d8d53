package ingest

import (
	"context"
	"sync"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

var _ regionRepo = &regionRepoMock{}

type regionRepoMock struct {
	LocateFunc       func(ctx context.Context, lat, lng float64) (domain.Place, error)
	GetCountriesFunc func(ctx context.Context, ids []int64) (map[int64]domain.Country, error)
	GetRegionsFunc   func(ctx context.Context, ids []int64) (map[int64]domain.Region, error)

	calls struct {
		Locate []struct {
			Lat float64
			Lng float64
		}
		GetCountries []struct {
			IDs []int64
		}
		GetRegions []struct {
			IDs []int64
		}
	}
	lock sync.RWMutex
}

func (mock *regionRepoMock) Locate(ctx context.Context, lat, lng float64) (domain.Place, error) {
	if mock.LocateFunc == nil {
		panic("regionRepoMock.LocateFunc: method is nil but regionRepo.Locate was just called")
	}
	mock.lock.Lock()
	mock.calls.Locate = append(mock.calls.Locate, struct {
		Lat float64
		Lng float64
	}{lat, lng})
	mock.lock.Unlock()
	return mock.LocateFunc(ctx, lat, lng)
}

func (mock *regionRepoMock) GetCountries(ctx context.Context, ids []int64) (map[int64]domain.Country, error) {
	if mock.GetCountriesFunc == nil {
		panic("regionRepoMock.GetCountriesFunc: method is nil but regionRepo.GetCountries was just called")
	}
	mock.lock.Lock()
	mock.calls.GetCountries = append(mock.calls.GetCountries, struct{ IDs []int64 }{ids})
	mock.lock.Unlock()
	return mock.GetCountriesFunc(ctx, ids)
}

func (mock *regionRepoMock) GetRegions(ctx context.Context, ids []int64) (map[int64]domain.Region, error) {
	if mock.GetRegionsFunc == nil {
		panic("regionRepoMock.GetRegionsFunc: method is nil but regionRepo.GetRegions was just called")
	}
	mock.lock.Lock()
	mock.calls.GetRegions = append(mock.calls.GetRegions, struct{ IDs []int64 }{ids})
	mock.lock.Unlock()
	return mock.GetRegionsFunc(ctx, ids)
}

func (mock *regionRepoMock) LocateCalls() []struct {
	Lat float64
	Lng float64
} {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Locate
}
