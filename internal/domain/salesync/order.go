package salesync

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderedAtLayout is the CRM's local timestamp format (no zone or offset)
const OrderedAtLayout = "2006-01-02 15:04:05"

// MatchKind records which fallback key resolved a receipt line
type MatchKind string

const (
	MatchBySKU     MatchKind = "sku"
	MatchByBarcode MatchKind = "barcode"
	MatchByName    MatchKind = "name"
)

// ResolvedProduct is the CRM product/offer a receipt line maps to.
// OfferID is zero when the match came from a product name.
type ResolvedProduct struct {
	OfferID   int64
	ProductID int64
	SKU       string
	Name      string
	Price     decimal.Decimal
	MatchedBy MatchKind
}

// ResolvedLine pairs a receipt line with its CRM product
type ResolvedLine struct {
	Line    ReceiptLine
	Product ResolvedProduct
}

// Buyer is the CRM buyer attached to every mirrored order
type Buyer struct {
	FullName string
	Phone    string
	Email    string
}

// OrderProduct is one CRM order line
type OrderProduct struct {
	SKU      string
	Name     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderPayment is a payment record attached at creation
type OrderPayment struct {
	PaymentMethodID int64
	Amount          decimal.Decimal
	Description     string
}

// OrderRequest is the CRM order creation payload.
// SourceUUID is the idempotency key and always equals the receipt identifier.
type OrderRequest struct {
	SourceUUID     string
	SourceID       int64
	Buyer          Buyer
	OrderedAt      string
	Products       []OrderProduct
	Payments       []OrderPayment
	ManagerComment string
}

// OrderUpdate is a partial update; zero fields are left untouched
type OrderUpdate struct {
	StatusID int64
	ClientID int64
}

// IsEmpty reports whether the update carries no change
func (u OrderUpdate) IsEmpty() bool {
	return u.StatusID == 0 && u.ClientID == 0
}

// CreatedOrder is the CRM's answer to a successful creation
type CreatedOrder struct {
	ID int64
}

// FormatOrderedAt converts a receipt timestamp into the CRM's local format by
// keeping the wall clock of the receipt and dropping the offset. Unparseable
// timestamps fall back to now in the same format.
func FormatOrderedAt(createdAt string, now time.Time) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t.Format(OrderedAtLayout)
		}
	}
	return now.Format(OrderedAtLayout)
}
