package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// setupTestMeter returns a meter provider backed by a manual reader.
func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

// findMetricByName collects and returns the named metric, or nil.
func findMetricByName(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func metricsRouter(mp *sdkmetric.MeterProvider) *gin.Engine {
	router := gin.New()
	router.Use(HTTPMetrics(mp.Meter("http.server"), zap.NewNop()))
	router.GET("/api/v1/reports/sellout/:type", func(c *gin.Context) {
		if c.Param("type") == "missing" {
			c.JSON(http.StatusNotFound, gin.H{"success": false})
			return
		}
		c.String(http.StatusOK, "Brand,Units\nSamsung,4\n")
	})
	return router
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := newTestRouter(HTTPMetrics(nil, nil))
	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_RequestCounterByRouteAndStatus(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := metricsRouter(mp)

	serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sellout/price-band", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sellout/role-wise", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sellout/missing", nil))

	m := findMetricByName(t, reader, "http_server_request_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := map[int64]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		assert.Equal(t, "/api/v1/reports/sellout/:type", route.AsString())
		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatus)
		byStatus[status.AsInt64()] += dp.Value
	}
	assert.Equal(t, int64(2), byStatus[http.StatusOK])
	assert.Equal(t, int64(1), byStatus[http.StatusNotFound])
}

func TestHTTPMetrics_DurationAndSize(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := metricsRouter(mp)
	serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sellout/price-band", nil))

	duration := findMetricByName(t, reader, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	size := findMetricByName(t, reader, "http_server_response_size_bytes")
	require.NotNil(t, size)
	sizeHist, ok := size.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, sizeHist.DataPoints, 1)
	assert.Equal(t, float64(len("Brand,Units\nSamsung,4\n")), sizeHist.DataPoints[0].Sum)
}

func TestHTTPMetrics_ActiveRequestsSettle(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := metricsRouter(mp)
	serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sellout/price-band", nil))

	m := findMetricByName(t, reader, "http_server_active_requests")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestRoutePattern_Unmatched(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := metricsRouter(mp)
	serve(router, httptest.NewRequest(http.MethodGet, "/nope", nil))

	m := findMetricByName(t, reader, "http_server_request_total")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
}
