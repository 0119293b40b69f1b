package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/application/report"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/cache"
	"github.com/sellout/backend/internal/infrastructure/config"
	"github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/infrastructure/persistence"
	"github.com/sellout/backend/internal/infrastructure/scheduler"
	"github.com/sellout/backend/internal/infrastructure/storage"
	"github.com/sellout/backend/internal/infrastructure/telemetry"
	"github.com/sellout/backend/internal/interfaces/http/handler"
	"github.com/sellout/backend/internal/interfaces/http/middleware"
	"github.com/sellout/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Sell-out Reporting API
//	@version		1.0
//	@description	Sell-out sales aggregation and reporting over the internal sales log and the distributor feed

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			baseLog.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	log := telemetry.BridgeLogger(baseLog, providers, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting sell-out backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithZapLogger(log, cfg.Telemetry.DBSlowQueryThresh),
		persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	meter := providers.Meter("github.com/sellout/backend")
	if sqlDB, err := db.SQLDB(); err == nil {
		if reg, err := telemetry.RegisterPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		} else {
			defer func() { _ = reg.Unregister() }()
		}
	}

	salesLogRepo := persistence.NewGormSaleLogRepository(db.DB)
	feedRepo := persistence.NewGormDistributorFeedRepository(db.DB)
	referenceRepo := persistence.NewGormReferenceRepository(db.DB)

	refCache, err := cache.NewReferenceCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to initialize reference cache", zap.Error(err))
	}
	var refCacheForLoader report.ReferenceCache
	if refCache != nil {
		refCacheForLoader = refCache
		defer func() { _ = refCache.Close() }()
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatal("Invalid report timezone", zap.Error(err))
	}
	settings, err := report.ParseSettings(
		cfg.Report.DistinguishedBrand,
		cfg.Report.SegmentPolicy,
		cfg.Report.DefaultComparison,
		cfg.Report.DefaultLimit,
		cfg.Report.MaxLimit,
	)
	if err != nil {
		log.Fatal("Invalid report settings", zap.Error(err))
	}

	loader := report.NewReferenceLoader(referenceRepo, refCacheForLoader, cfg.Report.ReferenceCacheTTL, log)
	pipeline := report.NewPipeline(salesLogRepo, feedRepo, loader, cfg.Report.FeedBrand, log)

	if refCacheForLoader != nil && cfg.Report.ReferenceRefreshInterval > 0 {
		refresher, err := newReferenceRefresher(loader, cfg.Report.ReferenceRefreshInterval, log)
		if err != nil {
			log.Fatal("Invalid reference refresh configuration", zap.Error(err))
		}
		refresher.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = refresher.Stop(stopCtx)
		}()
	}

	serviceOpts := []report.SelloutServiceOption{
		report.WithSettings(settings),
		report.WithLogger(log),
	}
	if metrics, err := telemetry.NewReportMetrics(meter); err != nil {
		log.Warn("Failed to create report metrics", zap.Error(err))
	} else {
		serviceOpts = append(serviceOpts, report.WithRecorder(metrics))
	}
	archive, memArchive := newReportArchive(ctx, cfg, log)
	if archive != nil {
		serviceOpts = append(serviceOpts, report.WithArchive(archive, cfg.Storage.PresignExpiration))
	}
	reportService := report.NewSelloutService(pipeline, sellout.NewWindowResolver(loc), serviceOpts...)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineOptions{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.TracingEnabled(),
		},
		Meter:  meter,
		Logger: log,
	})

	var downloads *handler.ExportDownloadHandler
	if memArchive != nil {
		downloads = handler.NewExportDownloadHandler(memArchive)
	}

	exportLimiter := router.NewExportLimiter(cfg.HTTP)
	if exportLimiter != nil {
		defer exportLimiter.Close()
	}
	routes := router.Mount(engine, router.Handlers{
		Health:        handler.NewHealthHandler(db),
		Reports:       handler.NewSelloutReportHandler(reportService, loc),
		ExportLimiter: exportLimiter,
		Downloads:     downloads,
	})
	log.Debug("Routes mounted", zap.Strings("routes", routes))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newReferenceRefresher keeps the cached reference snapshot warm so report
// requests rarely reach the reference tables
func newReferenceRefresher(loader *report.ReferenceLoader, interval time.Duration, log *zap.Logger) (*scheduler.Scheduler, error) {
	cfg := scheduler.DefaultConfig()
	cfg.Interval = interval
	s, err := scheduler.New(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := s.Register(scheduler.TaskFunc("reference-refresh", loader.Refresh)); err != nil {
		return nil, err
	}
	return s, nil
}

// newReportArchive returns the export archive. With object storage disabled
// exports are kept in process and served under /exports. A storage backend
// that cannot be reached disables exports.
func newReportArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) (report.ReportArchive, *storage.MemoryReportArchive) {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, keeping report exports in memory")
		mem := storage.NewMemoryReportArchive("http://localhost:" + cfg.App.Port + "/exports")
		return mem, mem
	}

	archive, err := storage.NewS3ReportArchive(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Error("Invalid report export storage configuration", zap.Error(err))
		return nil, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(checkCtx); err != nil {
		log.Error("Report export bucket unavailable", zap.String("bucket", archive.Bucket()), zap.Error(err))
		return nil, nil
	}

	log.Info("Report export storage ready", zap.String("bucket", archive.Bucket()))
	return archive, nil
}
