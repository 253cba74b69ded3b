package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Product catalog
	CatalogBaseURL    string        `env:"CATALOG_BASE_URL" envDefault:"https://fakestoreapi.com"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	CatalogMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	CatalogRPS        float64       `env:"CATALOG_RPS" envDefault:"10"`
	CatalogBurst      int           `env:"CATALOG_BURST" envDefault:"20"`

	// Client storage
	StorageDriver   string `env:"STORAGE_DRIVER" envDefault:"memory"`
	StorageTTLHours int    `env:"STORAGE_TTL_HOURS" envDefault:"720"`

	// In-memory fallback for writes the backend rejected
	ShadowLimit int           `env:"STORAGE_SHADOW_LIMIT" envDefault:"10000"`
	ShadowTTL   time.Duration `env:"STORAGE_SHADOW_TTL" envDefault:"1h"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	PurgeIntervalMins     int   `env:"STORAGE_PURGE_INTERVAL_MINUTES" envDefault:"60"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka relay, disabled when empty
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, redis, postgres, got %q", c.StorageDriver)
	}
	if c.CatalogBaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL is required")
	}
	if c.CatalogRPS < 0 {
		return fmt.Errorf("CATALOG_RPS must not be negative, got %f", c.CatalogRPS)
	}
	if c.CatalogRPS > 0 && c.CatalogBurst < 1 {
		return fmt.Errorf("CATALOG_BURST must be at least 1 when CATALOG_RPS is set, got %d", c.CatalogBurst)
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative, got %d", c.CatalogMaxRetries)
	}
	if c.StorageTTLHours < 0 {
		return fmt.Errorf("STORAGE_TTL_HOURS must not be negative, got %d", c.StorageTTLHours)
	}
	if c.ShadowLimit < 1 {
		return fmt.Errorf("STORAGE_SHADOW_LIMIT must be at least 1, got %d", c.ShadowLimit)
	}
	if c.ShadowTTL <= 0 {
		return fmt.Errorf("STORAGE_SHADOW_TTL must be positive, got %s", c.ShadowTTL)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// StorageTTL is how long client state lives after its last write. Zero keeps
// it forever.
func (c *Config) StorageTTL() time.Duration {
	return time.Duration(c.StorageTTLHours) * time.Hour
}

// RelayEnabled reports whether signals are forwarded to Kafka.
func (c *Config) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Postgres returns the pool configuration for the postgres driver.
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

// Redis returns the client configuration for the redis driver.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Addr = c.RedisAddr
	cfg.Password = c.RedisPass
	cfg.DB = c.RedisDB
	return cfg
}
