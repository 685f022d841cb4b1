package repository

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"devboard-trash/internal/model"
)

type MockTombstoneStore struct {
	mock.Mock
}

func (m *MockTombstoneStore) Insert(ctx context.Context, t model.Tombstone) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTombstoneStore) Get(ctx context.Context, id string) (model.Tombstone, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Tombstone), args.Error(1)
}

func (m *MockTombstoneStore) List(ctx context.Context, filter model.TombstoneFilter, pageToken string, limit int) ([]model.TombstoneEntry, string, error) {
	args := m.Called(ctx, filter, pageToken, limit)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]model.TombstoneEntry), args.String(1), args.Error(2)
}

func (m *MockTombstoneStore) Transition(ctx context.Context, id string, expectedVersion int64, newState model.TombstoneState) (model.Tombstone, error) {
	args := m.Called(ctx, id, expectedVersion, newState)
	return args.Get(0).(model.Tombstone), args.Error(1)
}

func (m *MockTombstoneStore) SetRestoredItemID(ctx context.Context, id string, itemID string) error {
	args := m.Called(ctx, id, itemID)
	return args.Error(0)
}

func (m *MockTombstoneStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Tombstone, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tombstone), args.Error(1)
}

func (m *MockTombstoneStore) ListPurgedHoldingPayload(ctx context.Context, limit int) ([]model.Tombstone, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tombstone), args.Error(1)
}

func (m *MockTombstoneStore) ClearSnapshot(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
