package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sellout/backend/internal/infrastructure/config"
	applogger "github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the read connection the report repositories share
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger  *zap.Logger
	tracing *telemetry.DBTracingPlugin
	slow    time.Duration
}

// WithZapLogger routes GORM statement logging through zap
func WithZapLogger(logger *zap.Logger, slowThreshold time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
		o.slow = slowThreshold
	}
}

// WithTracing installs the OpenTelemetry GORM plugin
func WithTracing(plugin *telemetry.DBTracingPlugin) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = plugin
	}
}

// NewDatabase connects to PostgreSQL and applies the pool settings
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	var o databaseOptions
	for _, opt := range opts {
		opt(&o)
	}

	gormCfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if o.logger != nil {
		gormOpts := []applogger.GormLoggerOption{}
		if o.slow > 0 {
			gormOpts = append(gormOpts, applogger.WithSlowThreshold(o.slow))
		}
		gormCfg.Logger = applogger.NewGormLogger(o.logger, applogger.MapGormLogLevel(cfg.LogLevel), gormOpts...)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if o.tracing != nil {
		if err := o.tracing.Register(db); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}
	return &Database{DB: db}, nil
}

// SQLDB returns the underlying connection pool
func (d *Database) SQLDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
