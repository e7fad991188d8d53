package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

var (
	_ cellRepo             = &cellRepoMock{}
	_ deviceRepo           = &deviceRepoMock{}
	_ achievementEvaluator = &achievementEvaluatorMock{}
	_ txManager            = &txManagerMock{}
)

type cellRepoMock struct {
	UpsertBatchFunc func(ctx context.Context, cells []domain.CellUpsert) error
	GetPlacesFunc   func(ctx context.Context, indexes []string) (map[string]domain.Place, error)

	calls struct {
		UpsertBatch []struct {
			Cells []domain.CellUpsert
		}
		GetPlaces []struct {
			Indexes []string
		}
	}
	lock sync.RWMutex
}

func (mock *cellRepoMock) UpsertBatch(ctx context.Context, cells []domain.CellUpsert) error {
	if mock.UpsertBatchFunc == nil {
		panic("cellRepoMock.UpsertBatchFunc: method is nil but cellRepo.UpsertBatch was just called")
	}
	mock.lock.Lock()
	mock.calls.UpsertBatch = append(mock.calls.UpsertBatch, struct{ Cells []domain.CellUpsert }{cells})
	mock.lock.Unlock()
	return mock.UpsertBatchFunc(ctx, cells)
}

func (mock *cellRepoMock) UpsertBatchCalls() []struct{ Cells []domain.CellUpsert } {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.UpsertBatch
}

func (mock *cellRepoMock) GetPlaces(ctx context.Context, indexes []string) (map[string]domain.Place, error) {
	if mock.GetPlacesFunc == nil {
		panic("cellRepoMock.GetPlacesFunc: method is nil but cellRepo.GetPlaces was just called")
	}
	mock.lock.Lock()
	mock.calls.GetPlaces = append(mock.calls.GetPlaces, struct{ Indexes []string }{indexes})
	mock.lock.Unlock()
	return mock.GetPlacesFunc(ctx, indexes)
}

func (mock *cellRepoMock) GetPlacesCalls() []struct{ Indexes []string } {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.GetPlaces
}

type deviceRepoMock struct {
	EnsureFunc func(ctx context.Context, userID uuid.UUID, meta domain.DeviceMeta) (*domain.Device, error)
}

func (mock *deviceRepoMock) Ensure(ctx context.Context, userID uuid.UUID, meta domain.DeviceMeta) (*domain.Device, error) {
	if mock.EnsureFunc == nil {
		panic("deviceRepoMock.EnsureFunc: method is nil but deviceRepo.Ensure was just called")
	}
	return mock.EnsureFunc(ctx, userID, meta)
}

type achievementEvaluatorMock struct {
	EvaluateUnlocksFunc func(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error)

	calls struct {
		EvaluateUnlocks []struct {
			UserID uuid.UUID
		}
	}
	lock sync.RWMutex
}

func (mock *achievementEvaluatorMock) EvaluateUnlocks(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error) {
	if mock.EvaluateUnlocksFunc == nil {
		panic("achievementEvaluatorMock.EvaluateUnlocksFunc: method is nil but achievementEvaluator.EvaluateUnlocks was just called")
	}
	mock.lock.Lock()
	mock.calls.EvaluateUnlocks = append(mock.calls.EvaluateUnlocks, struct{ UserID uuid.UUID }{userID})
	mock.lock.Unlock()
	return mock.EvaluateUnlocksFunc(ctx, userID)
}

func (mock *achievementEvaluatorMock) EvaluateUnlocksCalls() []struct{ UserID uuid.UUID } {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.EvaluateUnlocks
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	return mock.RunInTxFunc(ctx, fn)
}
