package catalogsync

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/erp/posbridge/internal/domain/catalogsync"
)

// MockCatalogSource is a mock implementation of CatalogSource
type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) ListProducts(ctx context.Context) ([]catalogsync.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogsync.Product), args.Error(1)
}

func (m *MockCatalogSource) ListOffers(ctx context.Context, productID int64) ([]catalogsync.Offer, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogsync.Offer), args.Error(1)
}

func (m *MockCatalogSource) ListCategories(ctx context.Context) ([]catalogsync.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogsync.Category), args.Error(1)
}

// MockCatalogTarget is a mock implementation of CatalogTarget
type MockCatalogTarget struct {
	mock.Mock
}

func (m *MockCatalogTarget) GetGoodByCode(ctx context.Context, code string) (*catalogsync.Good, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Good), args.Error(1)
}

func (m *MockCatalogTarget) CreateGood(ctx context.Context, payload catalogsync.GoodPayload) (*catalogsync.Good, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Good), args.Error(1)
}

func (m *MockCatalogTarget) UpdateGood(ctx context.Context, id string, payload catalogsync.GoodPayload) error {
	args := m.Called(ctx, id, payload)
	return args.Error(0)
}

// MockGroupStore is a mock implementation of GroupStore
type MockGroupStore struct {
	mock.Mock
}

func (m *MockGroupStore) ListGroups(ctx context.Context) ([]catalogsync.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogsync.Group), args.Error(1)
}

func (m *MockGroupStore) CreateGroup(ctx context.Context, name, parentID string) (*catalogsync.Group, error) {
	args := m.Called(ctx, name, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Group), args.Error(1)
}

// Ensure mocks implement interfaces
var (
	_ CatalogSource = (*MockCatalogSource)(nil)
	_ CatalogTarget = (*MockCatalogTarget)(nil)
	_ GroupStore    = (*MockGroupStore)(nil)
)

// recordingRecorder collects recorder calls
type recordingRecorder struct {
	units   map[string]int
	runs    int
	aborted int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{units: make(map[string]int)}
}

func (r *recordingRecorder) RecordUnit(_ context.Context, outcome string) {
	r.units[outcome]++
}

func (r *recordingRecorder) RecordRun(_ context.Context, _ time.Duration, aborted bool) {
	r.runs++
	if aborted {
		r.aborted++
	}
}
