package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/domain/shared"
	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReportArchive stores exported report files
type ReportArchive interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// Recorder receives one observation per generated report
type Recorder interface {
	RecordReport(ctx context.Context, reportType string, elapsed time.Duration, rows int, diag sellout.Diagnostics, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordReport(context.Context, string, time.Duration, int, sellout.Diagnostics, error) {}

// ExportResult describes an archived CSV export
type ExportResult struct {
	Type        string    `json:"type"`
	StorageKey  string    `json:"storageKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Rows        int       `json:"rows"`
	Bytes       int       `json:"bytes"`
}

// SelloutService generates sell-out reports
type SelloutService struct {
	pipeline    *Pipeline
	resolver    *sellout.WindowResolver
	settings    Settings
	definitions map[string]Definition
	archive     ReportArchive
	exportTTL   time.Duration
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// SelloutServiceOption configures a SelloutService
type SelloutServiceOption func(*SelloutService)

// WithSettings overrides the default report settings
func WithSettings(settings Settings) SelloutServiceOption {
	return func(s *SelloutService) {
		s.settings = settings
	}
}

// WithArchive enables CSV exports to object storage
func WithArchive(archive ReportArchive, urlTTL time.Duration) SelloutServiceOption {
	return func(s *SelloutService) {
		s.archive = archive
		s.exportTTL = urlTTL
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) SelloutServiceOption {
	return func(s *SelloutService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) SelloutServiceOption {
	return func(s *SelloutService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSelloutService creates a SelloutService
func NewSelloutService(pipeline *Pipeline, resolver *sellout.WindowResolver, opts ...SelloutServiceOption) *SelloutService {
	s := &SelloutService{
		pipeline:    pipeline,
		resolver:    resolver,
		settings:    DefaultSettings(),
		definitions: builtinDefinitions(),
		exportTTL:   time.Hour,
		recorder:    noopRecorder{},
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.settings.SegmentPolicy == nil {
		s.settings.SegmentPolicy = sellout.InclusiveLadder
	}
	return s
}

// Types lists the available report types
func (s *SelloutService) Types() []string {
	out := make([]string, 0, len(s.definitions))
	for t := range s.definitions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Generate runs the pipeline for one report. Structural failures return an
// error and no partial report.
func (s *SelloutService) Generate(ctx context.Context, req Request) (result *Result, err error) {
	def, ok := s.definitions[req.Type]
	if !ok {
		return nil, sellout.ErrUnknownReport.WithMessage(fmt.Sprintf("unknown report type %q", req.Type))
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sellout_report", "generate",
		telemetry.WithAttribute("report.type", req.Type),
	)
	defer span.End()

	started := s.now()
	rows := 0
	var diag sellout.Diagnostics
	defer func() {
		s.recorder.RecordReport(ctx, req.Type, s.now().Sub(started), rows, diag, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	mode := req.Comparison
	if mode == "" {
		mode = def.Comparison
	}
	if mode == "" {
		mode = s.settings.DefaultComparison
	}
	windows, err := s.resolver.Resolve(req.StartDate, req.EndDate, mode)
	if err != nil {
		return nil, err
	}

	policy := def.Policy
	if policy == nil {
		policy = s.settings.SegmentPolicy
	}
	req = s.normalizeRequest(req, def)

	data, err := s.pipeline.Load(ctx, LoadSpec{
		Windows:        windows,
		Policy:         policy,
		Filter:         req.Filter,
		WithComparison: def.NeedsComparison,
	})
	if err != nil {
		return nil, err
	}
	diag = data.Diagnostics

	out := def.render(renderInput{data: data, req: req, settings: s.settings, policy: policy})
	if len(data.Current)+len(data.Comparison) == 0 {
		out.main.Empty = true
	}
	rows = out.main.TotalRecords

	telemetry.SetAttributes(span,
		"report.window", windows.Current.String(),
		"report.comparison_window", windows.Comparison.String(),
		"report.rows", rows,
		"report.empty", out.main.Empty,
	)
	s.logger.Debug("Sell-out report generated",
		zap.String("type", req.Type),
		zap.String("window", windows.Current.String()),
		zap.String("comparison_window", windows.Comparison.String()),
		zap.Int("rows", rows),
	)

	return &Result{
		Type:        req.Type,
		Report:      out.main,
		Summary:     out.summary,
		Windows:     windows,
		Diagnostics: data.Diagnostics,
		GeneratedAt: s.now(),
	}, nil
}

// RenderCSV generates a report and writes it as CSV
func (s *SelloutService) RenderCSV(ctx context.Context, req Request) ([]byte, *Result, error) {
	result, err := s.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result.Report); err != nil {
		return nil, nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), result, nil
}

// Export renders every row of a report as CSV, stores it in the archive and
// returns a download link
func (s *SelloutService) Export(ctx context.Context, req Request) (*ExportResult, error) {
	if s.archive == nil {
		return nil, shared.ErrInvalidState.WithMessage("report export storage is not configured")
	}

	req.Unpaginated = true
	body, result, err := s.RenderCSV(ctx, req)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s/%s.csv", req.Type, s.now().UTC().Format("2006/01/02"), uuid.New().String())
	if err := s.archive.Upload(ctx, key, body, "text/csv"); err != nil {
		return nil, fmt.Errorf("upload report export: %w", err)
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, s.exportTTL)
	if err != nil {
		return nil, fmt.Errorf("presign report export: %w", err)
	}

	s.logger.Info("Sell-out report exported",
		zap.String("type", req.Type),
		zap.String("storage_key", key),
		zap.Int("bytes", len(body)),
	)
	return &ExportResult{
		Type:        req.Type,
		StorageKey:  key,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
		Rows:        result.Report.TotalRecords,
		Bytes:       len(body),
	}, nil
}

func (s *SelloutService) normalizeRequest(req Request, def Definition) Request {
	if req.Selector == "" {
		req.Selector = sellout.SelectValue
	}
	if req.Layout == "" {
		req.Layout = LayoutKeyed
	}
	if req.Page < 1 || req.Unpaginated {
		req.Page = 1
	}
	if req.Unpaginated {
		req.Limit = 0
		return req
	}
	if req.Limit <= 0 && def.Paginated {
		req.Limit = s.settings.DefaultLimit
	}
	if s.settings.MaxLimit > 0 && req.Limit > s.settings.MaxLimit {
		req.Limit = s.settings.MaxLimit
	}
	return req
}
