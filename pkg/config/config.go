package config

import "time"

// Config is the root configuration structure for Ganymede. It contains all
// configuration sections for the proxy pool, health monitoring, dispatch
// behavior, the event journal, and telemetry.
type Config struct {
	// Pool contains configuration for the proxy record store, including the
	// optional proxy-list file source.
	Pool PoolConfig `yaml:"pool"`

	// Health contains configuration for the background health monitor that
	// probes every configured proxy and publishes the live set.
	Health HealthConfig `yaml:"health"`

	// Dispatch contains configuration for the request dispatcher, including
	// retry budgets and the per-attempt deadline.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Events contains configuration for the event journal that records proxy
	// selection, failure, and health-check events.
	Events EventsConfig `yaml:"events"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PoolConfig contains configuration for the proxy record store.
type PoolConfig struct {
	// ProxyFile is an optional path to a proxy-list file. Each line has the
	// form "host:port" or "host:port:username:password". Lines starting with
	// "#" are ignored. Proxies from the file are merged with any descriptors
	// passed to the manager at construction.
	ProxyFile string `yaml:"proxy_file"`

	// WatchProxyFile enables watching ProxyFile for changes. Descriptors
	// appended to the file are added to the pool and probed on the next
	// health-check tick. Entries are never removed, only marked dead.
	// Default: false
	WatchProxyFile bool `yaml:"watch_proxy_file"`
}

// HealthConfig contains configuration for the health monitor.
type HealthConfig struct {
	// CheckURL is the target used for health probes. Each probe issues a
	// minimal tunneled request to this URL through the proxy under test.
	// Default: "http://www.gstatic.com/generate_204"
	CheckURL string `yaml:"check_url"`

	// CheckInterval is the interval between health-check ticks. The first
	// tick runs immediately at start, not after one interval.
	// Default: 30s
	CheckInterval time.Duration `yaml:"check_interval"`
}

// DispatchConfig contains configuration for the request dispatcher.
type DispatchConfig struct {
	// OnErrorRetries is the number of additional attempts against the same
	// proxy after a transport, tunnel, or authentication error before
	// rotating away from it. Zero means rotate immediately.
	// Default: 0
	OnErrorRetries int `yaml:"on_error_retries"`

	// OnTimeoutRetries is the number of additional attempts against the same
	// proxy after a timeout before rotating away from it. Zero means rotate
	// immediately.
	// Default: 0
	OnTimeoutRetries int `yaml:"on_timeout_retries"`

	// MaxTimeout is the deadline applied to each individual attempt, both
	// for dispatched requests and health probes. Requests may override it
	// per call.
	// Default: 10s
	MaxTimeout time.Duration `yaml:"max_timeout"`

	// ChangeProxyLoop is the maximum number of full rotations through the
	// live set for one logical request before giving up with an
	// AllProxiesFailedError.
	// Default: 1
	ChangeProxyLoop int `yaml:"change_proxy_loop"`
}

// Event journal storage backends.
const (
	EventsBackendMemory = "memory"
	EventsBackendSQLite = "sqlite"
)

// EventsConfig contains configuration for the event journal.
type EventsConfig struct {
	// Enabled enables event recording. When false a no-op sink is installed
	// and no events are journaled or logged.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the journal storage backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the SQLite database file. Only used when
	// Backend is "sqlite".
	// Default: "data/events.db"
	SQLitePath string `yaml:"sqlite_path"`

	// AsyncBuffer is the size of the async write channel between the
	// recorder and the storage backend.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// Retention contains configuration for scheduled pruning of old events.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains configuration for event journal pruning.
type RetentionConfig struct {
	// MaxAge is the maximum age of journaled events. Events older than this
	// are deleted by the scheduled pruner. Zero disables age-based pruning.
	// Default: 168h (7 days)
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a cron expression controlling when pruning runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json" or "text").
	// Default: "json"
	Format string `yaml:"format"`

	// Disabled silences all event logging from the manager. Equivalent to
	// installing a no-op event sink; dispatch behavior is unaffected.
	// Default: false
	Disabled bool `yaml:"disabled"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled enables metric collection.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "pool"
	Subsystem string `yaml:"subsystem"`
}
