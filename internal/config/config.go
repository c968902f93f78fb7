package config

import (
	"fmt"
	"time"

	"github.com/utafrali/catalogadmin/internal/persistence"
	"github.com/utafrali/catalogadmin/pkg/database"
	pkgconfig "github.com/utafrali/catalogadmin/pkg/config"
	pkgkafka "github.com/utafrali/catalogadmin/pkg/kafka"
	"github.com/utafrali/catalogadmin/pkg/tracing"
)

// Config holds all configuration for the catalog admin dashboard.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"catalog-admin"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort        int           `env:"ADMIN_HTTP_PORT" envDefault:"8010"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`

	// Auth
	JWTSecret string `env:"JWT_SECRET,required"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"catalog_secret"`
	PostgresDB   string `env:"CATALOG_DB_NAME" envDefault:"catalog_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Redis (view-mode persistence)
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"catalog-admin:"`
	RedisTimeout   time.Duration `env:"REDIS_TIMEOUT" envDefault:"500ms"`
	PreferenceTTL  time.Duration `env:"PREFERENCE_TTL" envDefault:"720h"`

	// Circuit breaker around Redis
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Dashboard
	PageSize           int           `env:"DASHBOARD_PAGE_SIZE" envDefault:"20"`
	TopProductsLimit   int           `env:"DASHBOARD_TOP_LIMIT" envDefault:"5"`
	SessionIdleTimeout time.Duration `env:"DASHBOARD_SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog admin config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.Environment != "development" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes outside development")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("DASHBOARD_PAGE_SIZE must be between 1 and 100, got %d", c.PageSize)
	}
	if c.TopProductsLimit < 1 || c.TopProductsLimit > 50 {
		return fmt.Errorf("DASHBOARD_TOP_LIMIT must be between 1 and 50, got %d", c.TopProductsLimit)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("DASHBOARD_SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the client settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:         c.RedisAddr,
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  c.RedisTimeout,
		WriteTimeout: c.RedisTimeout,
	}
}

// Persistence returns the preference store settings.
func (c *Config) Persistence() persistence.RedisConfig {
	return persistence.RedisConfig{
		KeyPrefix: c.RedisKeyPrefix,
		TTL:       c.PreferenceTTL,
		Timeout:   c.RedisTimeout,
		Breaker: persistence.BreakerConfig{
			Name:         "redis",
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      c.BreakerTimeout,
			FailureRatio: c.BreakerFailureRatio,
			MinRequests:  c.BreakerMinRequests,
		},
	}
}

// Kafka returns the producer settings.
func (c *Config) Kafka() pkgkafka.ProducerConfig {
	return pkgkafka.ProducerConfig{
		Brokers:      c.KafkaBrokers,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

// Tracing returns the tracer provider settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		Enabled:        c.OTELEnabled,
		ServiceName:    c.ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
	}
}
