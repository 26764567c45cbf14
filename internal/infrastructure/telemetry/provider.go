// Package telemetry wires OpenTelemetry tracing and metrics for the bridge.
// Both providers export over OTLP/gRPC to the same collector and fall back to
// the global no-op implementations when telemetry is disabled.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is stamped on exported telemetry. Set with -ldflags at build time.
var ServiceVersion = "dev"

const (
	defaultExportInterval = time.Minute
	shutdownTimeout       = 10 * time.Second
)

// Config is shared by the tracer and meter providers
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	// SamplingRatio applies to root spans only; child spans follow their parent.
	SamplingRatio float64
	// ExportInterval defaults to one minute.
	ExportInterval time.Duration
}

func (c Config) exportInterval() time.Duration {
	if c.ExportInterval <= 0 {
		return defaultExportInterval
	}
	return c.ExportInterval
}

func (c Config) resource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(c.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	return res, nil
}

// shutdownFunc is the common shape of the SDK providers' Shutdown
type shutdownFunc func(context.Context) error

// shutdown bounds an SDK shutdown and logs the outcome under the given signal name
func shutdown(ctx context.Context, log *zap.Logger, signal string, fn shutdownFunc) error {
	if fn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		log.Error("Telemetry provider shutdown failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("telemetry: shutdown %s provider: %w", signal, err)
	}
	log.Info("Telemetry provider stopped", zap.String("signal", signal))
	return nil
}
