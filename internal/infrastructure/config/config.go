package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // report timezones resolve without a system zoneinfo

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Report    ReportConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	RequestTimeout   time.Duration
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// ExportRateLimit caps export requests per client per ExportRateWindow; negative disables it
	ExportRateLimit  int
	ExportRateWindow time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// StorageConfig holds object storage settings for report exports
type StorageConfig struct {
	Enabled           bool
	Endpoint          string // empty means AWS
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// CacheConfig selects the reference cache backend
type CacheConfig struct {
	Backend string // redis, memory, none
}

// ReportConfig holds the report engine parameters
type ReportConfig struct {
	DistinguishedBrand string
	FeedBrand          string
	DefaultComparison  string // shift, calendar
	SegmentPolicy      string // inclusive, exclusive
	Timezone           string
	DefaultLimit       int
	MaxLimit           int
	ReferenceCacheTTL  time.Duration

	// ReferenceRefreshInterval reloads the cached reference snapshot in the
	// background; zero disables it
	ReferenceRefreshInterval time.Duration
}

// Location loads the configured report timezone
func (r ReportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SELLOUT_ prefix (e.g., SELLOUT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path searches the
// default locations and tolerates a missing file.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./backend")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SELLOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			ExportRateLimit:  v.GetInt("http.export_rate_limit"),
			ExportRateWindow: v.GetDuration("http.export_rate_window"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Cache: CacheConfig{
			Backend: v.GetString("cache.backend"),
		},
		Report: ReportConfig{
			DistinguishedBrand: v.GetString("report.distinguished_brand"),
			FeedBrand:          v.GetString("report.feed_brand"),
			DefaultComparison:  v.GetString("report.default_comparison"),
			SegmentPolicy:      v.GetString("report.segment_policy"),
			Timezone:           v.GetString("report.timezone"),
			DefaultLimit:       v.GetInt("report.default_limit"),
			MaxLimit:           v.GetInt("report.max_limit"),
			ReferenceCacheTTL:  v.GetDuration("report.reference_cache_ttl"),

			ReferenceRefreshInterval: v.GetDuration("report.reference_refresh_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sellout-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "sellout"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.HTTP.ExportRateLimit == 0 {
		cfg.HTTP.ExportRateLimit = 30
	}
	if cfg.HTTP.ExportRateWindow == 0 {
		cfg.HTTP.ExportRateWindow = time.Minute
	}
	// No default CORS origins: cross-origin access must be configured explicitly.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = time.Hour
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Report.DistinguishedBrand == "" {
		cfg.Report.DistinguishedBrand = "Samsung"
	}
	if cfg.Report.FeedBrand == "" {
		cfg.Report.FeedBrand = cfg.Report.DistinguishedBrand
	}
	if cfg.Report.DefaultComparison == "" {
		cfg.Report.DefaultComparison = "shift"
	}
	if cfg.Report.SegmentPolicy == "" {
		cfg.Report.SegmentPolicy = "inclusive"
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	if cfg.Report.DefaultLimit == 0 {
		cfg.Report.DefaultLimit = 100
	}
	if cfg.Report.MaxLimit == 0 {
		cfg.Report.MaxLimit = 1000
	}
	if cfg.Report.ReferenceCacheTTL == 0 {
		cfg.Report.ReferenceCacheTTL = 5 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.HTTP.ExportRateWindow < 0 {
		return fmt.Errorf("http.export_rate_window cannot be negative")
	}

	switch c.Cache.Backend {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("cache.backend must be one of redis, memory, none, got %q", c.Cache.Backend)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	switch c.Report.DefaultComparison {
	case "shift", "calendar":
	default:
		return fmt.Errorf("report.default_comparison must be shift or calendar, got %q", c.Report.DefaultComparison)
	}
	switch c.Report.SegmentPolicy {
	case "inclusive", "exclusive":
	default:
		return fmt.Errorf("report.segment_policy must be inclusive or exclusive, got %q", c.Report.SegmentPolicy)
	}
	if _, err := c.Report.Location(); err != nil {
		return fmt.Errorf("report.timezone %q: %w", c.Report.Timezone, err)
	}
	if c.Report.DefaultLimit <= 0 || c.Report.MaxLimit < c.Report.DefaultLimit {
		return fmt.Errorf("report.default_limit (%d) must be positive and not exceed report.max_limit (%d)",
			c.Report.DefaultLimit, c.Report.MaxLimit)
	}
	if c.Report.ReferenceCacheTTL < 0 {
		return fmt.Errorf("report.reference_cache_ttl cannot be negative")
	}
	if c.Report.ReferenceRefreshInterval < 0 {
		return fmt.Errorf("report.reference_refresh_interval cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
