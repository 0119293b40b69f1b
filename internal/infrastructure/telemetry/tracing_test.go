package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "sellout_report", "generate",
		telemetry.WithAttribute("report.type", "price-band"),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	assert.NotEmpty(t, telemetry.GetSpanID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sellout_report.generate", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes() {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "price-band", attrs["report.type"])
}

func TestSetAttributesAndRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "pipeline.load")
	telemetry.SetAttributes(span,
		"report.rows", 12,
		"report.empty", false,
		42, "skipped",
		"dangling",
	)
	telemetry.RecordError(span, errors.New("feed unavailable"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Attributes(), 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "feed unavailable", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), telemetry.Sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), telemetry.Sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), telemetry.Sampler(0.25).Description())
}

func TestSetup_Disabled(t *testing.T) {
	p, err := telemetry.Setup(context.Background(), telemetry.Config{}, zapNop())
	require.NoError(t, err)
	assert.False(t, p.TracingEnabled())
	assert.False(t, p.LogsEnabled())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}
