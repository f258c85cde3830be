package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/session"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	kind, err := auth.ParseKind(c.Auth.Type)
	if err != nil {
		errs = append(errs, fmt.Errorf("auth.type: %w", err))
	}
	if kind.IsSession() && c.Auth.SessionName == "" {
		errs = append(errs, fmt.Errorf("auth.session_name is required when auth.type is %q", kind))
	}

	if c.Auth.LoginRateLimit < 0 {
		errs = append(errs, fmt.Errorf("auth.login_rate_limit must not be negative, got %d", c.Auth.LoginRateLimit))
	}

	switch c.Storage.Type {
	case "file", "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("storage.redis.addr is required when storage.type is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"file\", \"memory\", \"postgres\" or \"redis\", got %q", c.Storage.Type))
	}

	switch c.Logging.Format {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// AuthKind returns the validated strategy kind.
func (c *Config) AuthKind() auth.Kind {
	kind, err := auth.ParseKind(c.Auth.Type)
	if err != nil {
		return auth.KindNone
	}
	return kind
}

// SessionDuration parses auth.session_duration. defaulted reports that the
// raw value was missing or invalid and "never expires" was used instead.
func (c *Config) SessionDuration() (d time.Duration, defaulted bool) {
	return session.ParseDuration(c.Auth.SessionDuration)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
