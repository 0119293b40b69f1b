package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound query variables in span statements
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns tracing disabled with a 200ms slow query threshold
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

type queryStartKey struct{}

// DBTracingPlugin registers otelgorm plus a slow query marker on a GORM connection
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a DBTracingPlugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the plugin. It does nothing when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// Sales reads only go through Query and Raw
	if err := db.Callback().Query().Before("gorm:query").Register("sellout:query_start", p.before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("sellout:query_end", p.after); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("sellout:raw_start", p.before); err != nil {
		return err
	}
	if err := db.Callback().Raw().After("gorm:raw").Register("sellout:raw_end", p.after); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		p.logger.Warn("Slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.String("trace_id", GetTraceID(ctx)),
		)
	}
}
