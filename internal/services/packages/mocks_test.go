package packages

import (
	"context"

	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, c models.Collection) ([]models.Package, error) {
	args := m.Called(ctx, c)
	list, _ := args.Get(0).([]models.Package)
	return list, args.Error(1)
}

func (m *mockRepository) Add(ctx context.Context, p models.Package) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, c models.Collection, id string) (bool, error) {
	args := m.Called(ctx, c, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, c models.Collection, id string, patch models.PackagePatch) (bool, error) {
	args := m.Called(ctx, c, id, patch)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Archive(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Unarchive(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Clear(ctx context.Context, c models.Collection) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockRepository) Export(ctx context.Context) (Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(Snapshot), args.Error(1)
}

func (m *mockRepository) Import(ctx context.Context, snap Snapshot) error {
	return m.Called(ctx, snap).Error(0)
}

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	return m.Called(ctx, topic, key, value).Error(0)
}
