package salesync

import (
	"context"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/domain/salesync"
)

// ProductCatalog is the CRM lookup side used to resolve receipt lines.
// Every method returns nil, nil when nothing matches.
type ProductCatalog interface {
	GetOfferBySKU(ctx context.Context, sku string) (*catalogsync.Offer, error)
	FindOfferByBarcode(ctx context.Context, barcode string) (*catalogsync.Offer, error)
	FindProductByName(ctx context.Context, name string) (*catalogsync.Product, error)
}

// OrderGateway creates and updates CRM orders
type OrderGateway interface {
	// CreateOrder returns salesync.ErrDuplicateOrder when the source uuid was already used
	CreateOrder(ctx context.Context, req salesync.OrderRequest) (*salesync.CreatedOrder, error)
	UpdateOrder(ctx context.Context, id int64, update salesync.OrderUpdate) error
}

// CashierIdentity exposes the cashier this service is signed in as
type CashierIdentity interface {
	// CashierID returns "" when the identity is not known yet
	CashierID() string
}

// WebhookLog keeps recent webhook outcomes for diagnostics
type WebhookLog interface {
	Record(outcome salesync.WebhookOutcome)
}

// Order outcomes
const (
	OrderCreated   = "created"
	OrderDuplicate = "duplicate"
	OrderSkipped   = "skipped"
	OrderFailed    = "failed"
)

// IngestRecorder observes webhook ingestion. It is optional.
type IngestRecorder interface {
	RecordReceipt(ctx context.Context, state salesync.IngestState)
	RecordOrder(ctx context.Context, outcome string)
}
