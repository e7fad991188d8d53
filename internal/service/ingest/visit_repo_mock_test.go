package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

var _ visitRepo = &visitRepoMock{}

type visitRepoMock struct {
	SnapshotFunc    func(ctx context.Context, userID uuid.UUID) (*domain.VisitSnapshot, error)
	UpsertBatchFunc func(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, visits []domain.VisitUpsert) (map[string]domain.VisitUpsertResult, error)
	RecordBatchFunc func(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, processed, skipped int) error

	calls struct {
		Snapshot []struct {
			UserID uuid.UUID
		}
		UpsertBatch []struct {
			UserID   uuid.UUID
			DeviceID *uuid.UUID
			Visits   []domain.VisitUpsert
		}
		RecordBatch []struct {
			UserID    uuid.UUID
			Processed int
			Skipped   int
		}
	}
	lock sync.RWMutex
}

func (mock *visitRepoMock) Snapshot(ctx context.Context, userID uuid.UUID) (*domain.VisitSnapshot, error) {
	if mock.SnapshotFunc == nil {
		panic("visitRepoMock.SnapshotFunc: method is nil but visitRepo.Snapshot was just called")
	}
	mock.lock.Lock()
	mock.calls.Snapshot = append(mock.calls.Snapshot, struct{ UserID uuid.UUID }{userID})
	mock.lock.Unlock()
	return mock.SnapshotFunc(ctx, userID)
}

func (mock *visitRepoMock) UpsertBatch(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, visits []domain.VisitUpsert) (map[string]domain.VisitUpsertResult, error) {
	if mock.UpsertBatchFunc == nil {
		panic("visitRepoMock.UpsertBatchFunc: method is nil but visitRepo.UpsertBatch was just called")
	}
	mock.lock.Lock()
	mock.calls.UpsertBatch = append(mock.calls.UpsertBatch, struct {
		UserID   uuid.UUID
		DeviceID *uuid.UUID
		Visits   []domain.VisitUpsert
	}{userID, deviceID, visits})
	mock.lock.Unlock()
	return mock.UpsertBatchFunc(ctx, userID, deviceID, visits)
}

func (mock *visitRepoMock) RecordBatch(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID, processed, skipped int) error {
	if mock.RecordBatchFunc == nil {
		panic("visitRepoMock.RecordBatchFunc: method is nil but visitRepo.RecordBatch was just called")
	}
	mock.lock.Lock()
	mock.calls.RecordBatch = append(mock.calls.RecordBatch, struct {
		UserID    uuid.UUID
		Processed int
		Skipped   int
	}{userID, processed, skipped})
	mock.lock.Unlock()
	return mock.RecordBatchFunc(ctx, userID, deviceID, processed, skipped)
}

func (mock *visitRepoMock) UpsertBatchCalls() []struct {
	UserID   uuid.UUID
	DeviceID *uuid.UUID
	Visits   []domain.VisitUpsert
} {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.UpsertBatch
}

func (mock *visitRepoMock) RecordBatchCalls() []struct {
	UserID    uuid.UUID
	Processed int
	Skipped   int
} {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.RecordBatch
}
