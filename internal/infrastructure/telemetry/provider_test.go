package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/erp/posbridge/internal/infrastructure/telemetry"
)

func TestProviders_DisabledAreNoops(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{CollectorEndpoint: "localhost:14317", ServiceName: "posbridge-test"}
	log := zaptest.NewLogger(t)

	tp, err := telemetry.NewTracerProvider(ctx, cfg, log)
	require.NoError(t, err)
	mp, err := telemetry.NewMeterProvider(ctx, cfg, log)
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		1:   "AlwaysOnSampler",
		2:   "AlwaysOnSampler",
		0:   "AlwaysOffSampler",
		-1:  "AlwaysOffSampler",
		0.5: "TraceIDRatioBased{0.5}",
	}
	for ratio, want := range cases {
		desc := telemetry.Sampler(ratio).Description()
		assert.Contains(t, desc, "ParentBased")
		assert.Contains(t, desc, want, "ratio %v", ratio)
	}
}

func TestStartServiceSpan_RecordsNameAttributesAndError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := telemetry.StartServiceSpan(context.Background(), "sale_ingest", "process",
		telemetry.SpanAttrReceiptID.String("r-1"),
	)
	span.SetAttributes(telemetry.SpanAttrLines.Int(2))
	telemetry.RecordError(span, errors.New("crm unavailable"))
	telemetry.RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sale_ingest.process", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "crm unavailable", ended[0].Status().Description)
	assert.Len(t, ended[0].Attributes(), 2)
	assert.Len(t, ended[0].Events(), 1)
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "test.count", "count", "{item}")
	require.NoError(t, err)
	counter.Inc(ctx)
	counter.Add(ctx, 4)

	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "test.duration",
		Unit:       "s",
		Boundaries: []float64{1, 2},
	})
	require.NoError(t, err)
	hist.RecordDuration(ctx, 1500*time.Millisecond)

	metrics := collect(t, reader)

	sum, ok := metrics["test.count"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)

	h, ok := metrics["test.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.InDelta(t, 1.5, h.DataPoints[0].Sum, 0.0001)
	assert.Equal(t, []float64{1, 2}, h.DataPoints[0].Bounds)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}
