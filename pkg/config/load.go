package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	cfg.Events.Enabled = DefaultEventsEnabled
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GANYMEDE_SECTION_FIELD (e.g., GANYMEDE_DISPATCH_MAX_TIMEOUT) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Unparseable values are ignored; the file value stands.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GANYMEDE_POOL_PROXY_FILE"); v != "" {
		cfg.Pool.ProxyFile = v
	}
	if v := os.Getenv("GANYMEDE_POOL_WATCH_PROXY_FILE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pool.WatchProxyFile = b
		}
	}

	if v := os.Getenv("GANYMEDE_HEALTH_CHECK_URL"); v != "" {
		cfg.Health.CheckURL = v
	}
	if v := os.Getenv("GANYMEDE_HEALTH_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Health.CheckInterval = d
		}
	}

	if v := os.Getenv("GANYMEDE_DISPATCH_ON_ERROR_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.OnErrorRetries = n
		}
	}
	if v := os.Getenv("GANYMEDE_DISPATCH_ON_TIMEOUT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.OnTimeoutRetries = n
		}
	}
	if v := os.Getenv("GANYMEDE_DISPATCH_MAX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dispatch.MaxTimeout = d
		}
	}
	if v := os.Getenv("GANYMEDE_DISPATCH_CHANGE_PROXY_LOOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.ChangeProxyLoop = n
		}
	}

	if v := os.Getenv("GANYMEDE_EVENTS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Events.Enabled = b
		}
	}
	if v := os.Getenv("GANYMEDE_EVENTS_BACKEND"); v != "" {
		cfg.Events.Backend = v
	}
	if v := os.Getenv("GANYMEDE_EVENTS_SQLITE_PATH"); v != "" {
		cfg.Events.SQLitePath = v
	}

	if v := os.Getenv("GANYMEDE_LOGGING_LEVEL"); v != "" {
		cfg.Telemetry.Logging.Level = v
	}
	if v := os.Getenv("GANYMEDE_LOGGING_FORMAT"); v != "" {
		cfg.Telemetry.Logging.Format = v
	}
	if v := os.Getenv("GANYMEDE_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
