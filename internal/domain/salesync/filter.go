package salesync

import (
	"fmt"
	"strings"
)

// Ignore reasons reported by the default guards
const (
	ReasonNotReceipt       = "payload is not a receipt"
	ReasonOriginOrder      = "receipt originates from a CRM order"
	ReasonNoCatalogGoods   = "no line references a catalog good"
	ReasonCashierMismatch  = "receipt issued by another cashier"
	ReasonAlreadyIngested  = "receipt already ingested"
	reasonNotSellFormatted = "receipt type %s is not SELL"
)

// FilterInput is what every guard sees
type FilterInput struct {
	Envelope Envelope
	// SignedInCashierID is the cashier this service is signed in as; "" when unknown
	SignedInCashierID string
}

// Guard rejects an input by returning a reason and true
type Guard func(in FilterInput) (reason string, rejected bool)

// Decision is the filter outcome. A rejected event is ignored, never an error.
type Decision struct {
	Accepted bool
	Reason   string
}

// SaleFilter applies guards in order; the first rejection short-circuits
type SaleFilter struct {
	guards []Guard
}

// NewSaleFilter creates a filter with the given guards, or the default chain when none are given
func NewSaleFilter(guards ...Guard) *SaleFilter {
	if len(guards) == 0 {
		guards = DefaultGuards()
	}
	return &SaleFilter{guards: guards}
}

// DefaultGuards returns the guard chain for POS sale notifications
func DefaultGuards() []Guard {
	return []Guard{
		RequireReceipt,
		RequireSellType,
		RejectOriginOrder,
		RequireCatalogGoods,
		RejectForeignCashier,
	}
}

// Evaluate runs the guard chain
func (f *SaleFilter) Evaluate(in FilterInput) Decision {
	for _, guard := range f.guards {
		if reason, rejected := guard(in); rejected {
			return Decision{Accepted: false, Reason: reason}
		}
	}
	return Decision{Accepted: true}
}

// RequireReceipt rejects notifications without a recognizable receipt
func RequireReceipt(in FilterInput) (string, bool) {
	if !in.Envelope.IsReceipt() {
		return ReasonNotReceipt, true
	}
	return "", false
}

// RequireSellType rejects receipts whose type is present and not SELL
func RequireSellType(in FilterInput) (string, bool) {
	receiptType := strings.TrimSpace(in.Envelope.Receipt.Type)
	if receiptType != "" && !strings.EqualFold(receiptType, ReceiptTypeSell) {
		return fmt.Sprintf(reasonNotSellFormatted, receiptType), true
	}
	return "", false
}

// RejectOriginOrder rejects receipts fiscalized for an existing CRM order
func RejectOriginOrder(in FilterInput) (string, bool) {
	if in.Envelope.Receipt.HasOriginOrder() {
		return ReasonOriginOrder, true
	}
	return "", false
}

// RequireCatalogGoods rejects receipts whose every line lacks a catalog good.
// Receipts fiscalized by the CRM integration reference goods outside the catalog.
func RequireCatalogGoods(in FilterInput) (string, bool) {
	goods := in.Envelope.Receipt.Goods
	if len(goods) == 0 {
		return "", false
	}
	for _, line := range goods {
		if line.HasCatalogReference() {
			return "", false
		}
	}
	return ReasonNoCatalogGoods, true
}

// RejectForeignCashier rejects receipts issued by a different, known cashier
func RejectForeignCashier(in FilterInput) (string, bool) {
	receiptCashier := in.Envelope.Receipt.Cashier()
	if receiptCashier == "" || in.SignedInCashierID == "" {
		return "", false
	}
	if receiptCashier != in.SignedInCashierID {
		return ReasonCashierMismatch, true
	}
	return "", false
}
