package config

import "time"

// Default values for configuration fields.
const (
	// Health defaults
	DefaultHealthCheckURL      = "http://www.gstatic.com/generate_204"
	DefaultHealthCheckInterval = 30 * time.Second

	// Dispatch defaults
	DefaultOnErrorRetries   = 0
	DefaultOnTimeoutRetries = 0
	DefaultMaxTimeout       = 10 * time.Second
	DefaultChangeProxyLoop  = 1

	// Events defaults
	DefaultEventsEnabled     = true
	DefaultEventsBackend     = "memory"
	DefaultEventsSQLitePath  = "data/events.db"
	DefaultEventsAsyncBuffer = 1000
	DefaultRetentionMaxAge   = 168 * time.Hour
	DefaultRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsNamespace = "ganymede"
	DefaultMetricsSubsystem = "pool"
)

// DefaultConfig returns a fully populated configuration with all default
// values applied. This is the configuration used when the manager is
// constructed without an explicit Config.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Events.Enabled = DefaultEventsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued configuration
// fields. It is called automatically by LoadConfig; callers constructing a
// Config programmatically should call it before Validate.
func ApplyDefaults(cfg *Config) {
	// Health defaults
	if cfg.Health.CheckURL == "" {
		cfg.Health.CheckURL = DefaultHealthCheckURL
	}
	if cfg.Health.CheckInterval == 0 {
		cfg.Health.CheckInterval = DefaultHealthCheckInterval
	}

	// Dispatch defaults
	if cfg.Dispatch.MaxTimeout == 0 {
		cfg.Dispatch.MaxTimeout = DefaultMaxTimeout
	}
	if cfg.Dispatch.ChangeProxyLoop == 0 {
		cfg.Dispatch.ChangeProxyLoop = DefaultChangeProxyLoop
	}

	// Events defaults
	if cfg.Events.Backend == "" {
		cfg.Events.Backend = DefaultEventsBackend
	}
	if cfg.Events.SQLitePath == "" {
		cfg.Events.SQLitePath = DefaultEventsSQLitePath
	}
	if cfg.Events.AsyncBuffer == 0 {
		cfg.Events.AsyncBuffer = DefaultEventsAsyncBuffer
	}
	if cfg.Events.Retention.MaxAge == 0 {
		cfg.Events.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Events.Retention.Schedule == "" {
		cfg.Events.Retention.Schedule = DefaultRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}
