package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold above which a statement is logged at warn
const DefaultSlowQuery = 200 * time.Millisecond

// sourceTables are the tables a report reads, in the order they are matched
var sourceTables = []string{"sales_logs", "distributor_feed", "products", "dealers", "employees"}

// GormLogger writes GORM statements to zap. Statements against the sell-out
// tables carry a "source" field naming the table they read.
type GormLogger struct {
	log       *zap.Logger
	level     gormlogger.LogLevel
	slow      time.Duration
	quietMiss bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow statement threshold; zero turns slow logging off
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slow = threshold
	}
}

// WithIgnoreRecordNotFoundError controls whether ErrRecordNotFound is logged
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.quietMiss = ignore
	}
}

// NewGormLogger creates a GORM logger writing to a "gorm" child of log
func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		log:       log.Named("gorm"),
		level:     level,
		slow:      DefaultSlowQuery,
		quietMiss: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, data...), contextFields(ctx)...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, data...), contextFields(ctx)...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, data...), contextFields(ctx)...)
	}
}

// Trace implements gormlogger.Interface. Failed statements go to error,
// statements slower than the threshold to warn, everything else to debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && l.quietMiss && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := append(contextFields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)
	if table := SourceTable(sql); table != "" {
		fields = append(fields, zap.String("source", table))
	}

	switch {
	case err != nil && l.level >= gormlogger.Error:
		l.log.Error("Query failed", append(fields, zap.Error(err))...)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		l.log.Warn("Slow query", append(fields, zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		l.log.Debug("Query", fields...)
	}
}

// SourceTable returns the first sell-out table named in sql, or "" when the
// statement touches none of them
func SourceTable(sql string) string {
	lower := strings.ToLower(sql)
	for _, table := range sourceTables {
		if strings.Contains(lower, table) {
			return table
		}
	}
	return ""
}

func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if rt := GetReportType(ctx); rt != "" {
		fields = append(fields, zap.String("report_type", rt))
	}
	return fields
}

// MapGormLogLevel maps an application log level to the GORM level.
// debug and info both surface statements, which GormLogger writes at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
