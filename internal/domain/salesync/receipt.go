package salesync

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ReceiptTypeSell is the only actionable receipt type
const ReceiptTypeSell = "SELL"

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// Receipt is a POS sale record as delivered by the webhook
type Receipt struct {
	ID         string          `json:"id"`
	FiscalCode string          `json:"fiscal_code,omitempty"`
	Type       string          `json:"type,omitempty"`
	TotalSum   int64           `json:"total_sum"`
	CreatedAt  string          `json:"created_at,omitempty"`
	OrderID    json.RawMessage `json:"order_id,omitempty"`
	CashierID  string          `json:"cashier_id,omitempty"`
	Shift      *ReceiptShift   `json:"shift,omitempty"`
	Goods      []ReceiptLine   `json:"goods"`
}

// ReceiptShift carries the cashier that opened the shift
type ReceiptShift struct {
	ID      string          `json:"id,omitempty"`
	Cashier *ReceiptCashier `json:"cashier,omitempty"`
}

// ReceiptCashier identifies a POS operator
type ReceiptCashier struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
}

// ReceiptLine is one sold item. Quantity is in thousandths of a unit.
type ReceiptLine struct {
	GoodID   string      `json:"good_id,omitempty"`
	Good     ReceiptGood `json:"good"`
	Quantity int64       `json:"quantity"`
	Sum      int64       `json:"sum,omitempty"`
}

// ReceiptGood is the good snapshot embedded in a receipt line. Price is in minor units.
type ReceiptGood struct {
	ID      string `json:"id,omitempty"`
	Code    string `json:"code,omitempty"`
	Barcode string `json:"barcode,omitempty"`
	Name    string `json:"name,omitempty"`
	Price   int64  `json:"price"`
}

// HasOriginOrder reports whether the receipt was produced for an existing order
func (r *Receipt) HasOriginOrder() bool {
	raw := bytes.TrimSpace(r.OrderID)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte(`""`))
}

// Cashier returns the cashier identity carried by the receipt, or "" when unknown
func (r *Receipt) Cashier() string {
	if id := strings.TrimSpace(r.CashierID); id != "" {
		return id
	}
	if r.Shift != nil && r.Shift.Cashier != nil {
		return strings.TrimSpace(r.Shift.Cashier.ID)
	}
	return ""
}

// Total returns the receipt total in major units
func (r *Receipt) Total() decimal.Decimal {
	return decimal.NewFromInt(r.TotalSum).Div(hundred)
}

// HasCatalogReference reports whether the line points at a POS catalog good,
// either by good id or by catalog code
func (l ReceiptLine) HasCatalogReference() bool {
	return strings.TrimSpace(l.GoodID) != "" ||
		strings.TrimSpace(l.Good.ID) != "" ||
		strings.TrimSpace(l.Good.Code) != ""
}

// Units returns the sold quantity in whole units
func (l ReceiptLine) Units() decimal.Decimal {
	return decimal.NewFromInt(l.Quantity).Div(thousand)
}

// UnitPrice returns the good price in major units
func (l ReceiptLine) UnitPrice() decimal.Decimal {
	return decimal.NewFromInt(l.Good.Price).Div(hundred)
}
