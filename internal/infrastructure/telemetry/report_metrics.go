package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReportMetrics records one observation per generated report
type ReportMetrics struct {
	generated *Counter
	duration  *Histogram
	rows      *Histogram
	anomalies *Counter
	records   *Counter
}

// NewReportMetrics creates the report instruments on meter
func NewReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	generated, err := NewCounter(meter, "sellout_reports_total", "Reports generated, by type and outcome", "{report}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "sellout_report_duration_seconds",
		Description: "Time to generate a report",
		Unit:        "s",
		Boundaries:  ReportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	rows, err := NewHistogram(meter, HistogramOpts{
		Name:        "sellout_report_rows",
		Description: "Data rows per report before pagination",
		Unit:        "{row}",
		Boundaries:  []float64{0, 10, 50, 100, 500, 1000, 5000},
	})
	if err != nil {
		return nil, err
	}
	anomalies, err := NewCounter(meter, "sellout_record_anomalies_total", "Source records recovered locally, by anomaly", "{record}")
	if err != nil {
		return nil, err
	}
	records, err := NewCounter(meter, "sellout_records_normalized_total", "Source records normalized for reports", "{record}")
	if err != nil {
		return nil, err
	}
	return &ReportMetrics{
		generated: generated,
		duration:  duration,
		rows:      rows,
		anomalies: anomalies,
		records:   records,
	}, nil
}

// RecordReport implements the report service's recorder
func (m *ReportMetrics) RecordReport(ctx context.Context, reportType string, elapsed time.Duration, rows int, diag sellout.Diagnostics, err error) {
	typeAttr := AttrReportType.String(reportType)

	outcome := []attribute.KeyValue{typeAttr, AttrOutcome.String("success")}
	if err != nil {
		outcome = []attribute.KeyValue{typeAttr, AttrOutcome.String("error"), AttrErrorCode.String(errorCode(err))}
	}
	m.generated.Inc(ctx, outcome...)
	m.duration.RecordDuration(ctx, elapsed, typeAttr)
	if err != nil {
		return
	}

	m.rows.Record(ctx, float64(rows), typeAttr)
	m.records.Add(ctx, int64(diag.Normalized), typeAttr)
	for anomaly, n := range map[string]int{
		"unresolved_reference": diag.UnresolvedReferences,
		"malformed_numeric":    diag.MalformedNumerics,
		"unclassifiable_price": diag.UnclassifiablePrices,
		"dropped":              diag.Dropped,
	} {
		if n > 0 {
			m.anomalies.Add(ctx, int64(n), typeAttr, AttrAnomaly.String(anomaly))
		}
	}
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
