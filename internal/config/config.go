package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// API tiers
const (
	TierFree       = "free"
	TierBasic      = "basic"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr   string
	AdminToken   string // Bearer token for /admin routes
	RateLimitMax int    // API requests per minute per IP
	RedisURL     string // Optional shared limiter storage

	// Database
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string
	SQLitePath     string

	// Logging
	LogLevel  string
	LogFormat string // "console" or "json"

	// Polling
	PollInterval         time.Duration
	PollOnStart          bool
	IndexRefreshInterval time.Duration
	BatchSize            int

	// X API
	APITier          string
	XAPIBaseURL      string
	XBearerToken     string // App-only token used for search
	XUserAccessToken string // User-context token used for direct messages
	XRequestTimeout  time.Duration
	DMRatePerSec     float64

	// Seed
	SeedFile  string
	SeedWatch bool

	// Features
	MetricsEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:          getEnv("ENV", "development"),
		ServerAddr:   getEnv("SERVER_ADDR", ":3000"),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),
		RateLimitMax: getEnvInt("RATE_LIMIT_MAX", 100),
		RedisURL:     getEnv("REDIS_URL", ""),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/tweetwatch?sslmode=disable"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/tweetwatch.db"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		PollInterval:         getEnvDuration("POLL_INTERVAL", 5*time.Minute),
		PollOnStart:          getEnvBool("POLL_ON_START", true),
		IndexRefreshInterval: getEnvDuration("INDEX_REFRESH_INTERVAL", 30*time.Minute),
		BatchSize:            getEnvInt("BATCH_SIZE", 100),

		APITier:          strings.ToLower(getEnv("API_TIER", TierFree)),
		XAPIBaseURL:      strings.TrimRight(getEnv("X_API_BASE_URL", "https://api.x.com"), "/"),
		XBearerToken:     getEnv("X_BEARER_TOKEN", ""),
		XUserAccessToken: getEnv("X_USER_ACCESS_TOKEN", ""),
		XRequestTimeout:  getEnvDuration("X_REQUEST_TIMEOUT", 10*time.Second),
		DMRatePerSec:     getEnvFloat("DM_RATE_PER_SEC", 1),

		SeedFile:  getEnv("SEED_FILE", "config.yaml"),
		SeedWatch: getEnvBool("SEED_WATCH", false),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// Validate checks the loaded values for obvious mistakes.
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval))
	}
	if c.IndexRefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("INDEX_REFRESH_INTERVAL must be positive, got %s", c.IndexRefreshInterval))
	}
	if c.XRequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("X_REQUEST_TIMEOUT must be positive, got %s", c.XRequestTimeout))
	}
	if c.DMRatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("DM_RATE_PER_SEC must be positive, got %g", c.DMRatePerSec))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax))
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if !c.IsDev() && c.AdminToken == "" {
		errs = append(errs, errors.New("ADMIN_TOKEN is required outside development"))
	}
	return errors.Join(errs...)
}

// EffectiveBatchSize clamps BatchSize to the range the search endpoint accepts.
func (c *Config) EffectiveBatchSize() int {
	return ClampBatchSize(c.BatchSize)
}

// ClampBatchSize limits n to 10..100.
func ClampBatchSize(n int) int {
	switch {
	case n < 10:
		return 10
	case n > 100:
		return 100
	}
	return n
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// RealSends reports whether the configured tier delivers direct messages.
func (c *Config) RealSends() bool {
	switch c.APITier {
	case TierBasic, TierPro, TierEnterprise:
		return true
	}
	return false
}
