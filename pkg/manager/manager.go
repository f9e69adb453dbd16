package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/dispatch"
	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/events/retention"
	"mercator-hq/ganymede/pkg/events/storage"
	"mercator-hq/ganymede/pkg/health"
	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/pool/source"
	"mercator-hq/ganymede/pkg/rotation"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/tunnel"
)

// Manager owns the proxy pool and its background health monitor, and is
// the public entry point for dispatching requests through the pool.
//
// A Manager is safe for concurrent use. Construction validates the
// configuration and starts the health monitor; the first dispatch or
// LiveProxies call suspends until the first health pass has published a
// live set.
type Manager struct {
	cfg        *config.Config
	store      *pool.Store
	monitor    *health.Monitor
	dispatcher *dispatch.Dispatcher
	watcher    *source.Watcher
	recorder   *events.Recorder
	scheduler  *retention.Scheduler
	logger     *slog.Logger

	stopOnce sync.Once
}

// LiveProxy is one entry of the live-proxy snapshot returned by
// LiveProxies.
type LiveProxy struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	LatencyMs int64  `json:"latency_ms"`

	// Dispatches and FailedDispatches count attempt sequences routed
	// through the proxy since startup.
	Dispatches       int64 `json:"dispatches"`
	FailedDispatches int64 `json:"failed_dispatches"`
}

// New creates a manager over the given proxy descriptors, validates the
// configuration, and starts the health monitor. A nil cfg selects all
// defaults. Descriptors from the configured proxy-list file are merged
// with the given list; duplicates are dropped.
func New(descriptors []pool.Descriptor, cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		config.ApplyDefaults(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	options := applyOptions(opts)

	if cfg.Pool.ProxyFile != "" {
		fromFile, err := source.LoadFile(cfg.Pool.ProxyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load proxy file: %w", err)
		}
		descriptors = append(descriptors, fromFile...)
	}

	m := &Manager{
		cfg:    cfg,
		store:  pool.NewStore(descriptors),
		logger: slog.Default().With("component", "manager"),
	}

	sink, err := m.buildSink(options)
	if err != nil {
		return nil, err
	}

	collector := options.metrics
	if collector == nil && cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	client := tunnel.NewClient(cfg.Dispatch.MaxTimeout)

	probe := options.probe
	if probe == nil {
		probe = health.NewHTTPProbe(client, cfg.Health.CheckURL)
	}
	m.monitor = health.NewMonitor(m.store, probe, health.MonitorConfig{
		Interval: cfg.Health.CheckInterval,
		Timeout:  cfg.Dispatch.MaxTimeout,
		Sink:     sink,
		Metrics:  collector,
	})

	var exchanger dispatch.Exchanger = client
	if options.exchanger != nil {
		exchanger = options.exchanger
	}
	selector := rotation.NewSelector(m.store)
	m.dispatcher = dispatch.NewDispatcher(m.store, selector, exchanger, cfg.Dispatch, dispatch.Options{
		Sink:    sink,
		Metrics: collector,
		Tokens:  options.tokens,
	})

	if cfg.Pool.ProxyFile != "" && cfg.Pool.WatchProxyFile {
		watcher, err := source.NewWatcher(cfg.Pool.ProxyFile, m.store)
		if err != nil {
			m.closeSink()
			return nil, fmt.Errorf("failed to watch proxy file: %w", err)
		}
		m.watcher = watcher
		m.watcher.Start()
	}

	m.monitor.Run()

	m.logger.Info("manager started",
		"proxies", m.store.Len(),
		"check_interval", cfg.Health.CheckInterval,
	)
	return m, nil
}

// buildSink assembles the event sink chain from the configuration and
// options. Logging disabled plus events disabled yields a pure no-op.
func (m *Manager) buildSink(options *managerOptions) (events.Sink, error) {
	if options.sink != nil {
		return options.sink, nil
	}

	var sinks []events.Sink
	if !m.cfg.Telemetry.Logging.Disabled {
		sinks = append(sinks, events.NewSlogSink(nil))
	}

	if m.cfg.Events.Enabled {
		backend, err := m.buildStorage()
		if err != nil {
			return nil, err
		}
		m.recorder = events.NewRecorder(backend, &events.RecorderConfig{
			AsyncBuffer: m.cfg.Events.AsyncBuffer,
		})
		sinks = append(sinks, m.recorder)

		if m.cfg.Events.Retention.Schedule != "" {
			pruner := retention.NewPruner(backend, m.cfg.Events.Retention.MaxAge)
			m.scheduler = retention.NewScheduler(pruner, m.cfg.Events.Retention.Schedule)
			if err := m.scheduler.Start(context.Background()); err != nil {
				m.recorder.Stop()
				return nil, err
			}
		}
	}

	switch len(sinks) {
	case 0:
		return events.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return events.MultiSink(sinks), nil
	}
}

// closeSink stops the recorder and retention-scheduler goroutines started
// by buildSink. New calls it when construction fails after the sink is up,
// so a failed manager leaves no background goroutines behind.
func (m *Manager) closeSink() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	if m.recorder != nil {
		m.recorder.Stop()
	}
}

func (m *Manager) buildStorage() (events.Storage, error) {
	switch m.cfg.Events.Backend {
	case config.EventsBackendSQLite:
		backend, err := storage.NewSQLiteStorage(storage.SQLiteConfig{Path: m.cfg.Events.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("failed to open event journal: %w", err)
		}
		return backend, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}

// Request dispatches a request through the proxy pool. The target is
// either a URL string combined with opts, or a complete
// *tunnel.Description (in which case opts must be nil).
//
// The call suspends until the first health pass completes. A completed
// exchange is returned regardless of HTTP status; an error means the pool
// itself failed (no live proxies, or every rotation exhausted).
func (m *Manager) Request(ctx context.Context, target any, opts *RequestOptions) (*tunnel.Response, error) {
	desc, err := resolveDescription(target, opts)
	if err != nil {
		return nil, err
	}
	return m.dispatcher.Dispatch(ctx, desc)
}

// LiveProxies returns a snapshot of the current live set, sorted by
// latency ascending. It suspends until the first health pass has
// completed, so the returned list reflects at least one full probe pass.
func (m *Manager) LiveProxies(ctx context.Context) ([]LiveProxy, error) {
	if err := m.store.WaitFirstPublish(ctx); err != nil {
		return nil, err
	}

	set := m.store.CurrentLiveSet()
	out := make([]LiveProxy, 0, set.Len())
	for _, member := range set.Members() {
		desc := member.Entry.Descriptor()
		total, failed := member.Entry.DispatchStats()
		out = append(out, LiveProxy{
			Host:             desc.Host,
			Port:             desc.Port,
			LatencyMs:        member.Latency.Milliseconds(),
			Dispatches:       total,
			FailedDispatches: failed,
		})
	}
	return out, nil
}

// Events queries the journaled events. It returns an empty slice when
// event recording is disabled.
func (m *Manager) Events(ctx context.Context, q *events.Query) ([]*events.Event, error) {
	if m.recorder == nil {
		return nil, nil
	}
	return m.recorder.Query(ctx, q)
}

// Stop halts the health monitor, the proxy-file watcher, the retention
// scheduler, and the event recorder. In-flight dispatches are left to
// complete or time out naturally. It is safe to call multiple times.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.monitor.Stop()
		if m.watcher != nil {
			m.watcher.Stop()
		}
		m.closeSink()
		m.logger.Info("manager stopped")
	})
}
