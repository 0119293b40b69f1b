package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	reportKey    contextKey = "report_type"
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID and returns the context with an enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	l := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, l), l
}

// WithReportType tags every log entry of a report generation with its type
func WithReportType(ctx context.Context, reportType string) context.Context {
	return context.WithValue(ctx, reportKey, reportType)
}

// GetRequestID returns the request ID stored in ctx
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetReportType returns the report type stored in ctx
func GetReportType(ctx context.Context) string {
	rt, _ := ctx.Value(reportKey).(string)
	return rt
}

// WithTraceContext adds trace_id and span_id from the active span, if any
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// ContextLogger injects trace, request and report fields into every entry.
//
//	logger.L(ctx).Info("report generated", zap.Int("rows", n))
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger using the logger stored in ctx
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger returns a ContextLogger using logger instead of the one in ctx
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger}
}

func (cl *ContextLogger) enriched() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	l = WithTraceContext(cl.ctx, l)
	if id := GetRequestID(cl.ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if rt := GetReportType(cl.ctx); rt != "" {
		l = l.With(zap.String("report_type", rt))
	}
	return l
}

// With creates a child ContextLogger with additional fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	base := cl.logger
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{ctx: cl.ctx, logger: base.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.enriched().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.enriched().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.enriched().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.enriched().Error(msg, fields...) }

// Zap returns the enriched underlying logger
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enriched()
}
