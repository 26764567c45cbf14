package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName scopes the bridge's own spans
const TracerName = "posbridge"

// Span attribute keys
const (
	SpanAttrReceiptID = attribute.Key("posbridge.receipt.id")
	SpanAttrUnits     = attribute.Key("posbridge.catalog.units")
	SpanAttrLines     = attribute.Key("posbridge.receipt.lines")
)

// StartServiceSpan starts an internal span named "<component>.<step>",
// e.g. "catalog_sync.run". The caller ends the span.
func StartServiceSpan(ctx context.Context, component, step string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, component+"."+step,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError attaches err to span and marks the span failed. Nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
