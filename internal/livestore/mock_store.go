package livestore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"devboard-trash/internal/model"
)

type MockStore struct {
	mock.Mock

	Type model.ItemType
}

func (m *MockStore) ItemType() model.ItemType {
	return m.Type
}

func (m *MockStore) GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Closure), args.Error(1)
}

func (m *MockStore) RemoveLive(ctx context.Context, itemID string) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockStore) ResolveDependencies(ctx context.Context, closure model.Closure) (model.Closure, []string, error) {
	args := m.Called(ctx, closure)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var dropped []string
	if args.Get(1) != nil {
		dropped = args.Get(1).([]string)
	}
	return args.Get(0).(model.Closure), dropped, args.Error(2)
}

func (m *MockStore) InsertLive(ctx context.Context, closure model.Closure) (string, error) {
	args := m.Called(ctx, closure)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Exists(ctx context.Context, itemID string) (bool, string, error) {
	args := m.Called(ctx, itemID)
	return args.Bool(0), args.String(1), args.Error(2)
}
