package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "sellout-backend",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig returns the otelgin server middleware. Span names follow
// "HTTP METHOD route"; chain TracingAttributeInjector after it to add the
// request ID and report type.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request attributes to the current span.
// Place it after Tracing and RequestID.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if reportType := c.Param("type"); reportType != "" {
		span.SetAttributes(attribute.String("report.type", reportType))
	}
}

// SpanErrorMarker marks the span as failed for 4xx/5xx responses.
// Place it after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		message := "Client Error"
		switch {
		case statusCode >= http.StatusInternalServerError:
			message = "Internal Server Error"
		case statusCode == http.StatusNotFound:
			message = "Not Found"
		case statusCode == http.StatusTooManyRequests:
			message = "Too Many Requests"
		}
		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}
