package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/infrastructure/telemetry"
)

// meteredRouter serves the webhook route behind httpMetrics on a manual reader
func meteredRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(httpMetrics(mp.Meter("http.server")))
	router.POST("/api/v1/webhooks/pos", func(c *gin.Context) {
		if c.Query("bad") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})
	return router, reader
}

func collected(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func serve(router *gin.Engine, method, path, body string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w.Code
}

func TestHTTPMetrics_PassThroughWhenDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	disabled, err := telemetry.NewMeterProvider(context.Background(), telemetry.Config{}, zap.NewNop())
	require.NoError(t, err)

	for _, mp := range []*telemetry.MeterProvider{nil, disabled} {
		router := gin.New()
		router.Use(HTTPMetrics(mp))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", ""))
	}
}

func TestHTTPMetrics_RequestsByStatus(t *testing.T) {
	router, reader := meteredRouter(t)

	serve(router, http.MethodPost, "/api/v1/webhooks/pos", "{}")
	serve(router, http.MethodPost, "/api/v1/webhooks/pos", "{}")
	serve(router, http.MethodPost, "/api/v1/webhooks/pos?bad=1", "{}")

	sum, ok := collected(t, reader)[metricRequests].(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := map[int64]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		assert.Equal(t, "/api/v1/webhooks/pos", route.AsString())
		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
		byStatus[status.AsInt64()] += dp.Value
	}
	assert.Equal(t, map[int64]int64{http.StatusOK: 2, http.StatusBadRequest: 1}, byStatus)
}

func TestHTTPMetrics_DurationBodySizeAndActive(t *testing.T) {
	router, reader := meteredRouter(t)

	serve(router, http.MethodPost, "/api/v1/webhooks/pos", strings.Repeat("x", 300))
	data := collected(t, reader)

	duration, ok := data[metricDuration].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	assert.Equal(t, uint64(1), duration.DataPoints[0].Count)

	size, ok := data[metricBodySize].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, size.DataPoints, 1)
	assert.Equal(t, int64(300), size.DataPoints[0].Sum)

	active, ok := data[metricActiveRequests].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	router, reader := meteredRouter(t)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/nope/123", ""))

	sum, ok := collected(t, reader)[metricRequests].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "unmatched", route.AsString())
}
