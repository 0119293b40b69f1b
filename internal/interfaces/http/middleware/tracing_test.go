package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := map[string]string{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTestRouter(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingWithConfig_ReportAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(DefaultTracingConfig()), TracingAttributeInjector(), SpanErrorMarker())
	router.GET("/api/v1/reports/sellout/:type", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sellout/price-band", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)

	span := findSpan(t, sr, "GET /api/v1/reports/sellout/:type")
	attrs := spanAttrs(span)
	assert.Equal(t, "req-42", attrs["request_id"])
	assert.Equal(t, "price-band", attrs["report.type"])
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{name: "bad request", status: http.StatusBadRequest, wantMsg: "Client Error"},
		{name: "not found", status: http.StatusNotFound, wantMsg: "Not Found"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantMsg: "Too Many Requests"},
		// otelgin also marks 5xx itself and may replace the description
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			router := gin.New()
			router.Use(TracingWithConfig(DefaultTracingConfig()), SpanErrorMarker())
			router.GET("/fail", func(c *gin.Context) { c.Status(tt.status) })

			serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))

			span := findSpan(t, sr, "GET /fail")
			assert.Equal(t, codes.Error, span.Status().Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, span.Status().Description)
			}
		})
	}
}

func TestSpanErrorMarker_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker())
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
