package telemetry_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func zapNop() *zap.Logger {
	return zap.NewNop()
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumWhere(m metricdata.Metrics, key attribute.Key, value string) int64 {
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return -1
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(key); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestReportMetrics_Success(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := telemetry.NewReportMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.RecordReport(context.Background(), "price-band", 120*time.Millisecond, 9, sellout.Diagnostics{
		Normalized:           40,
		UnresolvedReferences: 2,
		MalformedNumerics:    1,
	}, nil)

	got := collect(t, reader)
	assert.Equal(t, int64(1), sumWhere(got["sellout_reports_total"], telemetry.AttrOutcome, "success"))
	assert.Equal(t, int64(40), sumWhere(got["sellout_records_normalized_total"], telemetry.AttrReportType, "price-band"))
	assert.Equal(t, int64(2), sumWhere(got["sellout_record_anomalies_total"], telemetry.AttrAnomaly, "unresolved_reference"))
	assert.Equal(t, int64(1), sumWhere(got["sellout_record_anomalies_total"], telemetry.AttrAnomaly, "malformed_numeric"))
	assert.Zero(t, sumWhere(got["sellout_record_anomalies_total"], telemetry.AttrAnomaly, "dropped"))

	hist, ok := got["sellout_report_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.12, hist.DataPoints[0].Sum, 1e-9)
}

func TestReportMetrics_Failure(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := telemetry.NewReportMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.RecordReport(context.Background(), "role-wise", time.Second, 0, sellout.Diagnostics{}, sellout.ErrInvalidRange)
	m.RecordReport(context.Background(), "role-wise", time.Second, 0, sellout.Diagnostics{}, errors.New("boom"))

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumWhere(got["sellout_reports_total"], telemetry.AttrOutcome, "error"))
	assert.Equal(t, int64(1), sumWhere(got["sellout_reports_total"], telemetry.AttrErrorCode, "INVALID_RANGE"))
	assert.Equal(t, int64(1), sumWhere(got["sellout_reports_total"], telemetry.AttrErrorCode, "INTERNAL"))
	_, recorded := got["sellout_report_rows"]
	assert.False(t, recorded)
}

func TestRegisterPoolMetrics(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func(db *sql.DB) { _ = db.Close() }(db)
	db.SetMaxOpenConns(7)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	reg, err := telemetry.RegisterPoolMetrics(provider.Meter("test"), db)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	got := collect(t, reader)
	gauge, ok := got["db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)

	byState := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrDBPoolState)
		byState[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(7), byState["max"])
	assert.Equal(t, int64(0), byState["in_use"])
}
