// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Decode   DecodeConfig
	Table    TableConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// Source kinds.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// SourceConfig selects where the document comes from.
type SourceConfig struct {
	// Kind is "http" or "postgres" (default: http)
	Kind string `env:"SOURCE_KIND" default:"http"`

	// URL is a CSV URL or a Google Sheets link. When empty the export URL
	// is built from SheetID and SheetGID.
	URL string `env:"SOURCE_URL" envAlt:"CSV_URL"`

	// SheetID is the Google Sheets document ID
	SheetID string `env:"SOURCE_SHEET_ID" default:"13fiUy_1cAZAAZBA37Tpxe2wG75Ep4JdCtUTXfnH9itY"`

	// SheetGID selects the tab (default: 898476419)
	SheetGID string `env:"SOURCE_SHEET_GID" default:"898476419"`

	// Timeout bounds one fetch (default: 30s)
	Timeout time.Duration `env:"SOURCE_TIMEOUT" default:"30s"`

	// MaxBytes caps the document size (default: 10MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"10485760"`

	// DatabaseURL is the PostgreSQL connection string for Kind=postgres
	DatabaseURL string `env:"SOURCE_DATABASE_URL" envAlt:"DATABASE_URL"`

	// Query is the SELECT whose result is shown for Kind=postgres
	Query string `env:"SOURCE_QUERY"`

	// DBMaxConns is the pool size for Kind=postgres (default: 4)
	DBMaxConns int `env:"SOURCE_DB_MAX_CONNS" default:"4"`

	// DBMaxConnLifetime is the maximum lifetime of a pooled connection (default: 1h)
	DBMaxConnLifetime time.Duration `env:"SOURCE_DB_MAX_CONN_LIFETIME" default:"1h"`
}

// DecodeConfig holds CSV decoding settings.
type DecodeConfig struct {
	// Quote is the quote character (default: ")
	Quote string `env:"DECODE_QUOTE" default:"\""`

	// Delimiter is the field separator; "tab" or \t select a tab (default: ,)
	Delimiter string `env:"DECODE_DELIMITER" default:","`

	// Headers replaces the header line when set; the first line is then data
	Headers []string `env:"DECODE_HEADERS"`

	// Lenient recovers from malformed quoting with warnings instead of failing
	Lenient bool `env:"DECODE_LENIENT" default:"false"`

	// Missing is what short lines get for absent fields: null or omit (default: null)
	Missing string `env:"DECODE_MISSING" default:"null"`
}

// TableConfig holds presentation settings.
type TableConfig struct {
	// Title is the page heading (default: Alumni)
	Title string `env:"TABLE_TITLE" default:"Alumni"`

	// Locale is a BCP 47 tag for sorting and the page language (default: pt-BR)
	Locale string `env:"TABLE_LOCALE" default:"pt-BR"`

	// RowsPerPage is the default page size (default: 15)
	RowsPerPage int `env:"TABLE_ROWS_PER_PAGE" default:"15"`

	// LinkLabel is the column rendered as a link (default: Nome)
	LinkLabel string `env:"TABLE_LINK_LABEL" default:"Nome"`

	// LinkTarget is the column holding the link URL (default: Lattes)
	LinkTarget string `env:"TABLE_LINK_TARGET" default:"Lattes"`

	// RefreshInterval reloads the document periodically; 0 disables (default: 0s)
	RefreshInterval time.Duration `env:"TABLE_REFRESH_INTERVAL" default:"0s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ReloadLimit is requests per minute for the reload endpoint (default: 6)
	ReloadLimit int `env:"RATE_LIMIT_RELOAD" default:"6"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs or addresses
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
