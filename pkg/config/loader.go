package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, WARDEN_CONFIG env, ./config.yaml, /etc/warden/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. WARDEN_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/warden/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("WARDEN_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/warden/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// unprefixed names are the ones the API has always been deployed with.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("SESSION_NAME"); v != "" {
		cfg.Auth.SessionName = v
	}
	if v, ok := os.LookupEnv("SESSION_DURATION"); ok {
		cfg.Auth.SessionDuration = v
	}
	if v := os.Getenv("WARDEN_EXCLUDED_PATHS"); v != "" {
		cfg.Auth.ExcludedPaths = splitList(v)
	}
	if v := os.Getenv("WARDEN_LOGIN_RATE_LIMIT"); v != "" {
		cfg.Auth.LoginRateLimit = envInt(cfg, "WARDEN_LOGIN_RATE_LIMIT", v, cfg.Auth.LoginRateLimit)
	}

	if v := os.Getenv("API_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		cfg.Server.Port = envInt(cfg, "API_PORT", v, cfg.Server.Port)
	}

	if v := os.Getenv("WARDEN_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("WARDEN_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("WARDEN_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("WARDEN_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("WARDEN_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}

	if v := os.Getenv("WARDEN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// envInt parses an integer variable, recording a validation error and
// keeping fallback when v is not a number.
func envInt(cfg *Config, name, v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		cfg.envErrs = append(cfg.envErrs, fmt.Errorf("%s: invalid integer %q", name, v))
		return fallback
	}
	return n
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields when those are empty. File content is whitespace-trimmed.
func resolveFileReferences(cfg *Config) error {
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	if cfg.Storage.Redis.PasswordFile != "" && cfg.Storage.Redis.Password == "" {
		val, err := readSecretFile(cfg.Storage.Redis.PasswordFile)
		if err != nil {
			return fmt.Errorf("storage.redis.password_file: %w", err)
		}
		cfg.Storage.Redis.Password = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
