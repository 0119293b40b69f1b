package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/infrastructure/config"
	"github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/interfaces/http/dto"
	"github.com/sellout/backend/internal/interfaces/http/handler"
	"github.com/sellout/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineOptions configures the middleware stack
type EngineOptions struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter records HTTP metrics; nil disables them
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewEngine creates a gin engine with the middleware stack applied in order:
// request ID, logging, panic recovery, tracing, metrics, CORS, security
// headers, body limit and request timeout.
func NewEngine(opts EngineOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()
	engine := gin.New()

	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(opts.Meter, log))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.Secure())

	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}
	if opts.HTTP.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(opts.HTTP.RequestTimeout))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine
}

// Handlers are the endpoints mounted on the engine
type Handlers struct {
	Health  *handler.HealthHandler
	Reports *handler.SelloutReportHandler
	// ExportLimiter throttles export requests per client; nil disables throttling
	ExportLimiter *middleware.RateLimiter
	// Downloads serves in-process exports under /exports; nil when exports go to object storage
	Downloads *handler.ExportDownloadHandler
}

// Mount registers the health endpoint and the versioned API, returning the
// mounted routes
func Mount(engine *gin.Engine, h Handlers) []string {
	var mounted []string
	if h.Health != nil {
		engine.GET("/health", h.Health.Check)
		mounted = append(mounted, "GET /health")
	}
	if h.Downloads != nil {
		engine.GET("/exports/*key", h.Downloads.Download)
		mounted = append(mounted, "GET /exports/*key")
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(NewSelloutRoutes(h.Reports, h.ExportLimiter))
	return append(mounted, r.Setup()...)
}

// NewExportLimiter builds the export rate limiter from config. It returns nil
// when the limit is negative.
func NewExportLimiter(cfg config.HTTPConfig) *middleware.RateLimiter {
	if cfg.ExportRateLimit < 0 {
		return nil
	}
	window := cfg.ExportRateWindow
	if window <= 0 {
		window = time.Minute
	}
	return middleware.NewRateLimiter(cfg.ExportRateLimit, window)
}
