// Package commands implements the reportctl subcommands.
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sellout/backend/internal/application/report"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/config"
	"github.com/sellout/backend/internal/infrastructure/persistence"
	"github.com/sellout/backend/internal/infrastructure/snapshot"
)

// SourceOptions selects where report data is read from and the
// deployment settings reports are computed with
type SourceOptions struct {
	DataDir    string
	UseDB      bool
	Timezone   string
	Brand      string
	FeedBrand  string
	Policy     string
	Comparison string
	Verbose    bool
}

// BindFlags registers the source flags on a flag set
func (o *SourceOptions) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.DataDir, "data", "d", ".", "snapshot directory holding products.csv, dealers.csv, employees.csv, sales_logs.csv and distributor_feed.csv")
	fs.BoolVar(&o.UseDB, "db", false, "read from the configured database instead of a snapshot directory")
	fs.StringVar(&o.Timezone, "tz", "", "timezone for report dates (default UTC, or report.timezone with --db)")
	fs.StringVar(&o.Brand, "brand", "", "distinguished brand (default Samsung)")
	fs.StringVar(&o.FeedBrand, "feed-brand", "", "brand assigned to distributor feed rows (default: the distinguished brand)")
	fs.StringVar(&o.Policy, "policy", "", "segment policy: inclusive or exclusive")
	fs.StringVar(&o.Comparison, "default-comparison", "", "default comparison mode: shift or calendar")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "log pipeline activity to stderr")
}

// source is an opened report service plus whatever must be released after use
type source struct {
	service  *report.SelloutService
	location *time.Location
	close    func() error
}

func (o *SourceOptions) open() (*source, error) {
	log := zap.NewNop()
	if o.Verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	if o.UseDB {
		return o.openDatabase(log)
	}

	snap, err := snapshot.Load(o.DataDir)
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation(o.Timezone, "UTC")
	if err != nil {
		return nil, err
	}
	settings, err := report.ParseSettings(o.Brand, o.Policy, o.Comparison, 0, 0)
	if err != nil {
		return nil, err
	}
	feedBrand := o.FeedBrand
	if feedBrand == "" {
		feedBrand = settings.DistinguishedBrand
	}

	loader := report.NewReferenceLoader(snap, nil, 0, log)
	pipeline := report.NewPipeline(snap, snap, loader, feedBrand, log)
	return &source{
		service:  newService(pipeline, loc, settings, log),
		location: loc,
		close: func() error {
			_ = log.Sync()
			return nil
		},
	}, nil
}

func (o *SourceOptions) openDatabase(log *zap.Logger) (*source, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := loadLocation(o.Timezone, cfg.Report.Timezone)
	if err != nil {
		return nil, err
	}
	settings, err := report.ParseSettings(
		firstNonEmpty(o.Brand, cfg.Report.DistinguishedBrand),
		firstNonEmpty(o.Policy, cfg.Report.SegmentPolicy),
		firstNonEmpty(o.Comparison, cfg.Report.DefaultComparison),
		cfg.Report.DefaultLimit,
		cfg.Report.MaxLimit,
	)
	if err != nil {
		return nil, err
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithZapLogger(log, cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	loader := report.NewReferenceLoader(persistence.NewGormReferenceRepository(db.DB), nil, 0, log)
	pipeline := report.NewPipeline(
		persistence.NewGormSaleLogRepository(db.DB),
		persistence.NewGormDistributorFeedRepository(db.DB),
		loader,
		firstNonEmpty(o.FeedBrand, cfg.Report.FeedBrand),
		log,
	)
	return &source{
		service:  newService(pipeline, loc, settings, log),
		location: loc,
		close: func() error {
			_ = log.Sync()
			return db.Close()
		},
	}, nil
}

func newService(pipeline *report.Pipeline, loc *time.Location, settings report.Settings, log *zap.Logger) *report.SelloutService {
	return report.NewSelloutService(pipeline, sellout.NewWindowResolver(loc),
		report.WithSettings(settings),
		report.WithLogger(log),
	)
}

func loadLocation(name, fallback string) (*time.Location, error) {
	name = firstNonEmpty(name, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// withSource opens the configured source, runs fn and releases the source
func (o *SourceOptions) withSource(fn func(*source) error) (err error) {
	src, err := o.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(src)
}
