package salesync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/salesync"
)

// OrderConfig holds the fixed order attributes taken from configuration
type OrderConfig struct {
	Buyer           salesync.Buyer
	SourceID        int64
	PaymentMethodID int64

	// FollowUp is applied once after FollowUpDelay; an empty update disables it
	FollowUp      salesync.OrderUpdate
	FollowUpDelay time.Duration
}

// OrderBuilder turns an accepted receipt into exactly one CRM order
type OrderBuilder struct {
	orders OrderGateway
	config OrderConfig
	logger *zap.Logger

	now   func() time.Time
	after func(d time.Duration, f func())
}

// NewOrderBuilder creates a new OrderBuilder
func NewOrderBuilder(orders OrderGateway, config OrderConfig, logger *zap.Logger) *OrderBuilder {
	return &OrderBuilder{
		orders: orders,
		config: config,
		logger: logger,
		now:    time.Now,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Build assembles the order request. It returns salesync.ErrNoResolvedLines
// when there is nothing to order.
func (b *OrderBuilder) Build(receipt *salesync.Receipt, lines []salesync.ResolvedLine) (salesync.OrderRequest, error) {
	if strings.TrimSpace(receipt.ID) == "" {
		return salesync.OrderRequest{}, salesync.ErrReceiptMissingID
	}
	if len(lines) == 0 {
		return salesync.OrderRequest{}, salesync.ErrNoResolvedLines
	}

	products := make([]salesync.OrderProduct, 0, len(lines))
	for _, rl := range lines {
		price := rl.Product.Price
		if rl.Line.Good.Price > 0 {
			price = rl.Line.UnitPrice()
		}
		name := strings.TrimSpace(rl.Product.Name)
		if name == "" {
			name = strings.TrimSpace(rl.Line.Good.Name)
		}
		products = append(products, salesync.OrderProduct{
			SKU:      rl.Product.SKU,
			Name:     name,
			Price:    price,
			Quantity: rl.Line.Units(),
		})
	}

	var payments []salesync.OrderPayment
	total := receipt.Total()
	if total.GreaterThan(decimal.Zero) && b.config.PaymentMethodID > 0 {
		payments = append(payments, salesync.OrderPayment{
			PaymentMethodID: b.config.PaymentMethodID,
			Amount:          total,
			Description:     "POS receipt " + receiptLabel(receipt),
		})
	}

	return salesync.OrderRequest{
		SourceUUID:     receipt.ID,
		SourceID:       b.config.SourceID,
		Buyer:          b.config.Buyer,
		OrderedAt:      salesync.FormatOrderedAt(receipt.CreatedAt, b.now()),
		Products:       products,
		Payments:       payments,
		ManagerComment: "POS receipt " + receiptLabel(receipt),
	}, nil
}

// Submit builds and creates the order. A duplicate source uuid counts as
// success. The returned outcome is one of the Order* constants.
func (b *OrderBuilder) Submit(ctx context.Context, receipt *salesync.Receipt, lines []salesync.ResolvedLine) (string, error) {
	req, err := b.Build(receipt, lines)
	if errors.Is(err, salesync.ErrNoResolvedLines) {
		b.logger.Warn("No receipt line resolved, order not created",
			zap.String("receipt_id", receipt.ID),
			zap.Int("lines", len(receipt.Goods)),
		)
		return OrderSkipped, err
	}
	if err != nil {
		return OrderFailed, err
	}

	created, err := b.orders.CreateOrder(ctx, req)
	if errors.Is(err, salesync.ErrDuplicateOrder) {
		b.logger.Info("CRM order already exists for receipt", zap.String("receipt_id", receipt.ID))
		return OrderDuplicate, nil
	}
	if err != nil {
		return OrderFailed, fmt.Errorf("create CRM order for receipt %s: %w", receipt.ID, err)
	}

	b.logger.Info("CRM order created",
		zap.String("receipt_id", receipt.ID),
		zap.Int64("order_id", created.ID),
		zap.Int("lines", len(req.Products)),
	)
	b.scheduleFollowUp(created.ID)
	return OrderCreated, nil
}

// scheduleFollowUp issues the configured status/client update once, after a
// fixed delay. A failure is logged and not retried.
func (b *OrderBuilder) scheduleFollowUp(orderID int64) {
	update := b.config.FollowUp
	if update.IsEmpty() || orderID == 0 {
		return
	}
	b.after(b.config.FollowUpDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := b.orders.UpdateOrder(ctx, orderID, update); err != nil {
			b.logger.Error("Delayed order update failed",
				zap.Int64("order_id", orderID),
				zap.Error(err),
			)
			return
		}
		b.logger.Info("Delayed order update applied",
			zap.Int64("order_id", orderID),
			zap.Int64("status_id", update.StatusID),
			zap.Int64("client_id", update.ClientID),
		)
	})
}

func receiptLabel(receipt *salesync.Receipt) string {
	if code := strings.TrimSpace(receipt.FiscalCode); code != "" {
		return code
	}
	return receipt.ID
}
