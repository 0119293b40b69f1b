package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// httpMetrics holds the HTTP server instruments.
type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// CSV responses for wide reports can run to megabytes
	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304},
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics returns a Gin middleware that records
//   - http_server_request_total by method, route and status code
//   - http_server_request_duration_seconds by method and route
//   - http_server_response_size_bytes by method and route
//   - http_server_active_requests
//
// A nil meter, or an instrument that fails to register, yields a pass-through middleware.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(ctx, -1)
		base := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		m.requestTotal.Inc(ctx, append(base, telemetry.AttrHTTPStatus.Int(c.Writer.Status()))...)
		m.requestDuration.RecordDuration(ctx, time.Since(start), base...)
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, float64(size), base...)
		}
	}
}

// routePattern returns the matched route ("/api/v1/reports/sellout/:type")
// rather than the raw path to keep cardinality bounded.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
