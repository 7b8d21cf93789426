// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Sync     SyncConfig
	Server   ServerConfig
	Rate     RateConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds settings for the full-catalog CSV import.
type ImportConfig struct {
	// CSVPath is the operator-supplied catalog feed location (default: products.csv)
	CSVPath string `env:"IMPORT_CSV_PATH" default:"products.csv"`
}

// SyncConfig holds settings for the external API sync.
type SyncConfig struct {
	// APIURL is the remote product collection endpoint. Only the sync and
	// serve paths need it; a CSV-only deployment can leave it unset.
	APIURL string `env:"SYNC_API_URL" envAlt:"EXTERNAL_PRODUCTS_URL"`

	// Timeout bounds the single collection fetch (default: 30s)
	Timeout time.Duration `env:"SYNC_API_TIMEOUT" default:"30s"`

	// FallbackCurrency is tagged onto API records that carry no currency (default: USD)
	FallbackCurrency string `env:"SYNC_FALLBACK_CURRENCY" default:"USD"`
}

// ServerConfig holds settings for the operational HTTP server.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0,
	// sync triggers can run long)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers may be trusted (default: none)
	TrustedProxies string `env:"SERVER_TRUSTED_PROXIES"`
}

// RateConfig holds request rate limiting for the ops endpoints.
type RateConfig struct {
	// Enabled turns per-IP rate limiting on (default: false)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"false"`

	// PerMinute is the request budget per client IP per minute (default: 100)
	PerMinute int `env:"RATE_LIMIT_PER_MINUTE" default:"100"`
}

// SecurityConfig holds access control settings for the ops endpoints.
type SecurityConfig struct {
	// APIKeys is a comma-separated list of accepted X-API-Key values for
	// the /api routes (default: none, auth disabled)
	APIKeys string `env:"API_KEYS"`
}

// Keys splits the configured API keys, dropping empty entries.
func (c *SecurityConfig) Keys() []string {
	var keys []string
	for _, k := range strings.Split(c.APIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// RequireSyncAPI verifies the settings only the API-facing commands need.
// Checked per command so a CSV-only import can run without SYNC_API_URL.
func (c *Config) RequireSyncAPI() error {
	if c.Sync.APIURL == "" {
		return errors.New("SYNC_API_URL is required to reach the remote product API")
	}
	return nil
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
