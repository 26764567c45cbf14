package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	"github.com/erp/posbridge/internal/infrastructure/telemetry"
)

// Instrument names of the HTTP server metrics
const (
	metricRequests       = "http.server.requests"
	metricDuration       = "http.server.request.duration"
	metricBodySize       = "http.server.request.body.size"
	metricActiveRequests = "http.server.active_requests"
)

// POS webhook bodies are a few kilobytes; the body limit caps them at 1 MiB by default.
var bodySizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576}

// HTTPMetrics records request count, latency, body size and in-flight requests
// on a meter of mp. It passes requests through when mp is nil or disabled.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}
	return httpMetrics(mp.Meter("http.server"))
}

// httpMetrics builds the middleware on meter. Instrument registration errors
// disable collection rather than the route.
func httpMetrics(meter metric.Meter) gin.HandlerFunc {
	requests, err := telemetry.NewCounter(meter, metricRequests, "HTTP requests served", "{request}")
	if err != nil {
		return passThrough
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        metricDuration,
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return passThrough
	}
	bodySize, err := meter.Int64Histogram(metricBodySize,
		metric.WithDescription("Declared HTTP request body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(bodySizeBuckets...),
	)
	if err != nil {
		return passThrough
	}
	active, err := meter.Int64UpDownCounter(metricActiveRequests,
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		active.Add(ctx, 1)
		defer active.Add(ctx, -1)

		c.Next()

		// The matched pattern keeps label cardinality bounded.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		path := telemetry.AttrHTTPRoute.String(route)

		requests.Inc(ctx, method, path, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		duration.RecordDuration(ctx, time.Since(start), method, path)
		if n := c.Request.ContentLength; n > 0 {
			bodySize.Record(ctx, n, metric.WithAttributes(method, path))
		}
	}
}
