package salesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/salesync"
)

func testOrderConfig() OrderConfig {
	return OrderConfig{
		Buyer:           salesync.Buyer{FullName: "POS walk-in", Phone: "+380000000000"},
		SourceID:        4,
		PaymentMethodID: 2,
	}
}

func sellReceipt() *salesync.Receipt {
	return &salesync.Receipt{
		ID:         "r-1",
		FiscalCode: "FC-100",
		Type:       salesync.ReceiptTypeSell,
		TotalSum:   3998,
		CreatedAt:  "2024-04-30T12:00:01+03:00",
		Goods: []salesync.ReceiptLine{
			{Good: salesync.ReceiptGood{Code: "A1", Name: "Widget", Price: 1999}, Quantity: 2000},
		},
	}
}

func widgetLine(receipt *salesync.Receipt) []salesync.ResolvedLine {
	return []salesync.ResolvedLine{{
		Line: receipt.Goods[0],
		Product: salesync.ResolvedProduct{
			OfferID: 7, ProductID: 5, SKU: "A1", Name: "Widget",
			Price: decimal.RequireFromString("25"), MatchedBy: salesync.MatchBySKU,
		},
	}}
}

func TestOrderBuilder_Build(t *testing.T) {
	builder := NewOrderBuilder(new(MockOrderGateway), testOrderConfig(), zap.NewNop())
	receipt := sellReceipt()

	req, err := builder.Build(receipt, widgetLine(receipt))

	require.NoError(t, err)
	assert.Equal(t, "r-1", req.SourceUUID)
	assert.Equal(t, int64(4), req.SourceID)
	assert.Equal(t, "POS walk-in", req.Buyer.FullName)
	assert.Equal(t, "2024-04-30 12:00:01", req.OrderedAt)
	require.Len(t, req.Products, 1)
	assert.Equal(t, "A1", req.Products[0].SKU)
	assert.Equal(t, "2", req.Products[0].Quantity.String())
	assert.Equal(t, "19.99", req.Products[0].Price.String())
	require.Len(t, req.Payments, 1)
	assert.Equal(t, int64(2), req.Payments[0].PaymentMethodID)
	assert.Equal(t, "39.98", req.Payments[0].Amount.String())
	assert.Contains(t, req.ManagerComment, "FC-100")
}

func TestOrderBuilder_BuildPriceFallsBackToCRM(t *testing.T) {
	builder := NewOrderBuilder(new(MockOrderGateway), testOrderConfig(), zap.NewNop())
	receipt := sellReceipt()
	receipt.Goods[0].Good.Price = 0
	receipt.TotalSum = 0

	req, err := builder.Build(receipt, widgetLine(receipt))

	require.NoError(t, err)
	assert.Equal(t, "25", req.Products[0].Price.String())
	assert.Empty(t, req.Payments)
}

func TestOrderBuilder_BuildWithoutLines(t *testing.T) {
	builder := NewOrderBuilder(new(MockOrderGateway), testOrderConfig(), zap.NewNop())

	_, err := builder.Build(sellReceipt(), nil)

	assert.ErrorIs(t, err, salesync.ErrNoResolvedLines)
}

func TestOrderBuilder_SubmitSkipsWithoutLines(t *testing.T) {
	orders := new(MockOrderGateway)
	builder := NewOrderBuilder(orders, testOrderConfig(), zap.NewNop())

	outcome, err := builder.Submit(context.Background(), sellReceipt(), nil)

	assert.Equal(t, OrderSkipped, outcome)
	assert.ErrorIs(t, err, salesync.ErrNoResolvedLines)
	orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderBuilder_SubmitDuplicateIsSuccess(t *testing.T) {
	orders := new(MockOrderGateway)
	orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, salesync.ErrDuplicateOrder)
	cfg := testOrderConfig()
	cfg.FollowUp = salesync.OrderUpdate{StatusID: 3}
	builder := NewOrderBuilder(orders, cfg, zap.NewNop())
	scheduled := 0
	builder.after = func(time.Duration, func()) { scheduled++ }
	receipt := sellReceipt()

	outcome, err := builder.Submit(context.Background(), receipt, widgetLine(receipt))

	require.NoError(t, err)
	assert.Equal(t, OrderDuplicate, outcome)
	assert.Zero(t, scheduled)
}

func TestOrderBuilder_SubmitFailure(t *testing.T) {
	orders := new(MockOrderGateway)
	orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("crm: service unavailable"))
	builder := NewOrderBuilder(orders, testOrderConfig(), zap.NewNop())
	receipt := sellReceipt()

	outcome, err := builder.Submit(context.Background(), receipt, widgetLine(receipt))

	assert.Equal(t, OrderFailed, outcome)
	assert.ErrorContains(t, err, "r-1")
}

func TestOrderBuilder_DelayedFollowUp(t *testing.T) {
	orders := new(MockOrderGateway)
	orders.On("CreateOrder", mock.Anything, mock.Anything).Return(&salesync.CreatedOrder{ID: 91}, nil)
	update := salesync.OrderUpdate{StatusID: 3, ClientID: 12}
	orders.On("UpdateOrder", mock.Anything, int64(91), update).Return(errors.New("boom")).Once()

	cfg := testOrderConfig()
	cfg.FollowUp = update
	cfg.FollowUpDelay = 5 * time.Second
	builder := NewOrderBuilder(orders, cfg, zap.NewNop())

	var delay time.Duration
	var pending func()
	builder.after = func(d time.Duration, f func()) {
		delay = d
		pending = f
	}
	receipt := sellReceipt()

	outcome, err := builder.Submit(context.Background(), receipt, widgetLine(receipt))
	require.NoError(t, err)
	assert.Equal(t, OrderCreated, outcome)

	require.NotNil(t, pending)
	assert.Equal(t, 5*time.Second, delay)
	orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything, mock.Anything)

	// a failing follow-up is attempted once and not retried
	pending()
	orders.AssertNumberOfCalls(t, "UpdateOrder", 1)
}

func TestOrderBuilder_NoFollowUpWhenUnconfigured(t *testing.T) {
	orders := new(MockOrderGateway)
	orders.On("CreateOrder", mock.Anything, mock.Anything).Return(&salesync.CreatedOrder{ID: 91}, nil)
	builder := NewOrderBuilder(orders, testOrderConfig(), zap.NewNop())
	builder.after = func(time.Duration, func()) { t.Fatal("follow-up must not be scheduled") }
	receipt := sellReceipt()

	_, err := builder.Submit(context.Background(), receipt, widgetLine(receipt))

	require.NoError(t, err)
}
