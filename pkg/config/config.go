// Package config provides unified configuration for warden.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (AUTH_TYPE, SESSION_*, API_*, WARDEN_*)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/warden/pkg/auth"
)

// Config holds all configuration for warden.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`

	// envErrs collects environment values that could not be parsed.
	envErrs []error
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: "0.0.0.0"
	Port            int           `yaml:"port"`             // default: 5000
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// AuthConfig holds authentication strategy settings.
type AuthConfig struct {
	// Type is one of none, auth, basic_auth, session_auth,
	// session_exp_auth, session_db_auth. Default: "none".
	Type string `yaml:"type"`

	// SessionName is the session cookie name. Default: "_my_session_id".
	SessionName string `yaml:"session_name"`

	// SessionDuration is the session lifetime in whole seconds, kept raw
	// so invalid values can be reported and defaulted at startup.
	SessionDuration string `yaml:"session_duration"`

	// ExcludedPaths are reachable without authentication.
	ExcludedPaths []string `yaml:"excluded_paths"`

	// LoginRateLimit caps login attempts per email per minute. Default: 0
	// (disabled).
	LoginRateLimit int `yaml:"login_rate_limit"`
}

// StorageConfig selects the record store for users and durable sessions.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "file", "memory", "postgres" or "redis", default: "file"
	Dir      string         `yaml:"dir"`  // for file store, default: "."
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
	Prefix       string `yaml:"prefix"` // default: "warden"
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// ObservabilityConfig holds monitoring settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Type:          string(auth.KindNone),
			SessionName:   "_my_session_id",
			ExcludedPaths: append([]string(nil), auth.DefaultExcludedPaths...),
		},
		Storage: StorageConfig{
			Type: "file",
			Dir:  ".",
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
			Redis: RedisConfig{
				Prefix: "warden",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
