package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of application spans
const TracerName = "sellout-backend"

// SpanOption configures a span at start
type SpanOption func(*spanOptions)

type spanOptions struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span
func WithAttribute(key string, value any) SpanOption {
	return func(o *spanOptions) {
		o.attributes = append(o.attributes, toAttribute(key, value))
	}
}

// WithSpanKind sets the span kind
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(o *spanOptions) {
		o.kind = kind
	}
}

// StartSpan starts a span from the global tracer provider.
// The caller must end the returned span.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	o := &spanOptions{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(o)
	}

	startOpts := []trace.SpanStartOption{trace.WithSpanKind(o.kind)}
	if len(o.attributes) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(o.attributes...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, startOpts...)
}

// StartServiceSpan starts a span named {service}.{method}, e.g. "sellout_report.generate"
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes adds alternating key/value pairs to a span. Non-string keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	span.SetAttributes(attrs...)
}

// RecordError records err on the span and marks it failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace id of the span in ctx, or ""
func GetTraceID(ctx context.Context) string {
	id := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}

// GetSpanID returns the span id of the span in ctx, or ""
func GetSpanID(ctx context.Context) string {
	id := trace.SpanFromContext(ctx).SpanContext().SpanID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
