// Package telemetry wires OpenTelemetry tracing, metrics and log export.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Config holds telemetry configuration
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	ServiceVersion    string
	SamplingRatio     float64
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
}

// Providers owns the SDK providers registered as OpenTelemetry globals.
// A provider is nil when its signal is disabled.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	logs   *sdklog.LoggerProvider
	logger *zap.Logger
}

// Setup creates the enabled providers and installs them globally. With
// telemetry disabled it returns empty Providers and the globals stay no-op.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{logger: logger}
	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.setupTracing(ctx, cfg, res); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled {
		if err := p.setupMetrics(ctx, cfg, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}
	if cfg.LogsEnabled {
		if err := p.setupLogs(ctx, cfg, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("logs", cfg.LogsEnabled),
	)
	return p, nil
}

func (p *Providers) setupTracing(ctx context.Context, cfg Config, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	p.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(Sampler(cfg.SamplingRatio))),
	)
	otel.SetTracerProvider(p.tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func (p *Providers) setupMetrics(ctx context.Context, cfg Config, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	p.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(p.meter)
	return nil
}

func (p *Providers) setupLogs(ctx context.Context, cfg Config, res *resource.Resource) error {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	p.logs = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(p.logs)
	return nil
}

// Sampler maps a ratio onto a trace sampler
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(ratio)
	}
}

// Meter returns a meter from the configured provider, or the global one
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p == nil || p.meter == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.meter.Meter(name, opts...)
}

// TracingEnabled reports whether spans are exported
func (p *Providers) TracingEnabled() bool {
	return p != nil && p.tracer != nil
}

// Shutdown flushes and stops every provider
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if p.logs != nil {
		if err := p.logs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown logger provider: %w", err))
		}
	}
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.logger.Error("Error shutting down telemetry", zap.Error(err))
		return err
	}
	return nil
}
