package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs a recording tracer provider for the duration of the test
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

// receive answers the webhook route with status behind the tracing chain
func receive(t *testing.T, enabled bool, status int) []sdktrace.ReadOnlySpan {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := recordSpans(t)

	router := gin.New()
	router.Use(RequestID(), Tracing("posbridge", enabled), SpanStatus())
	router.POST("/api/v1/webhooks/pos", func(c *gin.Context) { c.Status(status) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/pos", nil)
	req.Header.Set(RequestIDHeader, "req-trace")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, status, w.Code)
	return recorder.Ended()
}

func TestTracing_Disabled(t *testing.T) {
	assert.Empty(t, receive(t, false, http.StatusOK))
}

func TestTracing_SpanPerRouteWithRequestID(t *testing.T) {
	spans := receive(t, true, http.StatusOK)

	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/v1/webhooks/pos", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("request_id", "req-trace"))
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestSpanStatus_FailsSpanOnClientAndServerErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			spans := receive(t, true, status)

			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
		})
	}
}

func TestSpanStatus_WithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SpanStatus())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() { router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil)) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
