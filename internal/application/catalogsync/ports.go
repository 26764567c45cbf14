package catalogsync

import (
	"context"
	"time"

	"github.com/erp/posbridge/internal/domain/catalogsync"
)

// CatalogSource is the CRM read side of the catalog
type CatalogSource interface {
	ListProducts(ctx context.Context) ([]catalogsync.Product, error)
	ListOffers(ctx context.Context, productID int64) ([]catalogsync.Offer, error)
	ListCategories(ctx context.Context) ([]catalogsync.Category, error)
}

// CatalogTarget is the POS catalog write side
type CatalogTarget interface {
	// GetGoodByCode returns nil, nil when no good carries the code
	GetGoodByCode(ctx context.Context, code string) (*catalogsync.Good, error)
	// CreateGood returns catalogsync.ErrGoodAlreadyExists on a code conflict
	CreateGood(ctx context.Context, payload catalogsync.GoodPayload) (*catalogsync.Good, error)
	UpdateGood(ctx context.Context, id string, payload catalogsync.GoodPayload) error
}

// GroupStore lists and creates POS catalog groups
type GroupStore interface {
	ListGroups(ctx context.Context) ([]catalogsync.Group, error)
	CreateGroup(ctx context.Context, name, parentID string) (*catalogsync.Group, error)
}

// Unit outcomes reported to a RunRecorder
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// RunRecorder observes reconciliation runs. It is optional.
type RunRecorder interface {
	RecordUnit(ctx context.Context, outcome string)
	RecordRun(ctx context.Context, duration time.Duration, aborted bool)
}
