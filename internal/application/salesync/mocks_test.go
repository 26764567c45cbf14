package salesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/domain/salesync"
	"github.com/erp/posbridge/internal/domain/shared"
)

// MockProductCatalog is a mock implementation of ProductCatalog
type MockProductCatalog struct {
	mock.Mock
}

func (m *MockProductCatalog) GetOfferBySKU(ctx context.Context, sku string) (*catalogsync.Offer, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Offer), args.Error(1)
}

func (m *MockProductCatalog) FindOfferByBarcode(ctx context.Context, barcode string) (*catalogsync.Offer, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Offer), args.Error(1)
}

func (m *MockProductCatalog) FindProductByName(ctx context.Context, name string) (*catalogsync.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Product), args.Error(1)
}

// MockOrderGateway is a mock implementation of OrderGateway
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) CreateOrder(ctx context.Context, req salesync.OrderRequest) (*salesync.CreatedOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesync.CreatedOrder), args.Error(1)
}

func (m *MockOrderGateway) UpdateOrder(ctx context.Context, id int64, update salesync.OrderUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

var (
	_ ProductCatalog = (*MockProductCatalog)(nil)
	_ OrderGateway   = (*MockOrderGateway)(nil)
)

// fakeCRM dedupes orders by source uuid the way the CRM does
type fakeCRM struct {
	mu     sync.Mutex
	orders map[string]salesync.OrderRequest
	nextID int64
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{orders: make(map[string]salesync.OrderRequest)}
}

func (f *fakeCRM) CreateOrder(_ context.Context, req salesync.OrderRequest) (*salesync.CreatedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[req.SourceUUID]; ok {
		return nil, salesync.ErrDuplicateOrder
	}
	f.nextID++
	f.orders[req.SourceUUID] = req
	return &salesync.CreatedOrder{ID: f.nextID}, nil
}

func (f *fakeCRM) UpdateOrder(context.Context, int64, salesync.OrderUpdate) error {
	return nil
}

type staticCashier string

func (c staticCashier) CashierID() string { return string(c) }

// inlineExecutor runs handlers synchronously inside Submit
type inlineExecutor struct {
	handlers  map[string]shared.TaskHandler
	submitted []shared.Task
	errs      []error
	rejectAll bool
}

func newInlineExecutor() *inlineExecutor {
	return &inlineExecutor{handlers: make(map[string]shared.TaskHandler)}
}

func (e *inlineExecutor) Register(taskType string, handler shared.TaskHandler) {
	e.handlers[taskType] = handler
}

func (e *inlineExecutor) Submit(ctx context.Context, task shared.Task) error {
	if e.rejectAll {
		return errors.New("queue full")
	}
	e.submitted = append(e.submitted, task)
	e.errs = append(e.errs, e.handlers[task.Type](ctx, task))
	return nil
}

func (e *inlineExecutor) Start(context.Context) error { return nil }
func (e *inlineExecutor) Stop(context.Context) error  { return nil }

// memoryStore is a minimal IdempotencyStore
type memoryStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: make(map[string]bool)}
}

func (s *memoryStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memoryStore) Close() error { return nil }

// webhookLog collects recorded outcomes
type webhookLog struct {
	outcomes []salesync.WebhookOutcome
}

func (l *webhookLog) Record(o salesync.WebhookOutcome) {
	l.outcomes = append(l.outcomes, o)
}
