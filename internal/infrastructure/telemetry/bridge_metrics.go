package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/erp/posbridge/internal/domain/salesync"
)

// BridgeMetrics records catalog sync and webhook ingestion counters. It is the
// RunRecorder of the reconciler and the IngestRecorder of the sale pipeline.
type BridgeMetrics struct {
	catalogUnits *Counter
	runDuration  *Histogram
	receipts     *Counter
	orders       *Counter
}

// NewBridgeMetrics creates the bridge instruments on meter
func NewBridgeMetrics(meter metric.Meter) (*BridgeMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	units, err := NewCounter(meter,
		"posbridge.catalog.units",
		"Catalog units processed by reconciliation, by outcome",
		"{unit}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "posbridge.catalog.run.duration",
		Description: "Catalog reconciliation run duration",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	receipts, err := NewCounter(meter,
		"posbridge.webhook.receipts",
		"POS webhook deliveries, by final ingestion state",
		"{receipt}",
	)
	if err != nil {
		return nil, err
	}

	orders, err := NewCounter(meter,
		"posbridge.crm.orders",
		"CRM order submissions, by outcome",
		"{order}",
	)
	if err != nil {
		return nil, err
	}

	return &BridgeMetrics{
		catalogUnits: units,
		runDuration:  duration,
		receipts:     receipts,
		orders:       orders,
	}, nil
}

// RecordUnit counts one reconciled unit
func (m *BridgeMetrics) RecordUnit(ctx context.Context, outcome string) {
	m.catalogUnits.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordRun records the duration of a finished or aborted run
func (m *BridgeMetrics) RecordRun(ctx context.Context, duration time.Duration, aborted bool) {
	m.runDuration.RecordDuration(ctx, duration, AttrAborted.String(strconv.FormatBool(aborted)))
}

// RecordReceipt counts a webhook delivery by the state it ended in
func (m *BridgeMetrics) RecordReceipt(ctx context.Context, state salesync.IngestState) {
	m.receipts.Inc(ctx, AttrState.String(string(state)))
}

// RecordOrder counts one CRM order submission
func (m *BridgeMetrics) RecordOrder(ctx context.Context, outcome string) {
	m.orders.Inc(ctx, AttrOutcome.String(outcome))
}
