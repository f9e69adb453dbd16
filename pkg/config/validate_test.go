package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate() returned error for default config: %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty check URL",
			mutate:    func(c *Config) { c.Health.CheckURL = "" },
			wantField: "health.check_url",
		},
		{
			name:      "malformed check URL",
			mutate:    func(c *Config) { c.Health.CheckURL = "not a url" },
			wantField: "health.check_url",
		},
		{
			name:      "zero check interval",
			mutate:    func(c *Config) { c.Health.CheckInterval = 0 },
			wantField: "health.check_interval",
		},
		{
			name:      "negative check interval",
			mutate:    func(c *Config) { c.Health.CheckInterval = -time.Second },
			wantField: "health.check_interval",
		},
		{
			name:      "negative error retries",
			mutate:    func(c *Config) { c.Dispatch.OnErrorRetries = -1 },
			wantField: "dispatch.on_error_retries",
		},
		{
			name:      "negative timeout retries",
			mutate:    func(c *Config) { c.Dispatch.OnTimeoutRetries = -2 },
			wantField: "dispatch.on_timeout_retries",
		},
		{
			name:      "negative max timeout",
			mutate:    func(c *Config) { c.Dispatch.MaxTimeout = -time.Second },
			wantField: "dispatch.max_timeout",
		},
		{
			name:      "zero change proxy loop",
			mutate:    func(c *Config) { c.Dispatch.ChangeProxyLoop = 0 },
			wantField: "dispatch.change_proxy_loop",
		},
		{
			name:      "unknown events backend",
			mutate:    func(c *Config) { c.Events.Backend = "postgres" },
			wantField: "events.backend",
		},
		{
			name: "sqlite backend without path",
			mutate: func(c *Config) {
				c.Events.Backend = "sqlite"
				c.Events.SQLitePath = ""
			},
			wantField: "events.sqlite_path",
		},
		{
			name:      "invalid retention schedule",
			mutate:    func(c *Config) { c.Events.Retention.Schedule = "not cron" },
			wantField: "events.retention.schedule",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "loud" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() returned %T, want ValidationError", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidationError missing field %q, got: %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledEventsSkipsBackendChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Events.Enabled = false
	cfg.Events.Backend = "postgres"

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() returned error for disabled events: %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Health.CheckInterval = -time.Second
	cfg.Dispatch.MaxTimeout = -time.Second
	cfg.Dispatch.ChangeProxyLoop = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() returned nil, want error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() returned %T, want ValidationError", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("got %d field errors, want 3: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(verr.Error(), "3 errors") {
		t.Errorf("Error() = %q, want mention of 3 errors", verr.Error())
	}
}
