package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AttrDBPoolState labels connection pool gauges
var AttrDBPoolState = attribute.Key("db.pool.state")

// RegisterPoolMetrics observes the connection pool of sqlDB on every collection.
// Unregister the returned registration when the pool is closed.
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database pool connections by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for since the pool opened"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter db_pool_wait_total: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBPoolState.String("idle")))
		o.ObserveInt64(conns, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBPoolState.String("max")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, waits)
}
