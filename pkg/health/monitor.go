package health

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Monitor periodically probes every proxy in the store and publishes a new
// live set after each full pass. The first pass starts immediately when Run
// is called; subsequent passes run on the configured interval.
type Monitor struct {
	store    *pool.Store
	probe    ProbeFunc
	interval time.Duration
	timeout  time.Duration
	sink     events.Sink
	metrics  *metrics.Collector
	logger   *slog.Logger

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Interval is the time between health passes.
	Interval time.Duration

	// Timeout bounds each individual probe.
	Timeout time.Duration

	// Sink receives probe and tick events. Nil selects events.NopSink.
	Sink events.Sink

	// Metrics is the optional metrics collector.
	Metrics *metrics.Collector
}

// NewMonitor creates a monitor over the store using the given probe.
func NewMonitor(store *pool.Store, probe ProbeFunc, cfg MonitorConfig) *Monitor {
	sink := cfg.Sink
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Monitor{
		store:    store,
		probe:    probe,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		sink:     sink,
		metrics:  cfg.Metrics,
		logger:   slog.Default().With("component", "health"),
	}
}

// Run starts the monitor loop in a new goroutine and returns immediately.
// The first health pass begins at once, so the first live set is published
// as soon as every initial probe settles.
func (m *Monitor) Run() {
	m.mu.Lock()
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	m.stopCh = stopCh
	m.doneCh = doneCh
	m.stopped = false
	m.mu.Unlock()

	go func() {
		defer close(doneCh)

		m.pass(stopCh)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				m.pass(stopCh)
			}
		}
	}()
}

// Stop halts the monitor and waits for any in-progress pass to finish. No
// live set is published after Stop returns. It is safe to call multiple
// times; calling Stop before Run is a no-op and does not prevent stopping
// the monitor after a later Run.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopCh == nil || m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// pass probes every entry concurrently, waits for all probes to settle,
// and publishes the resulting live set.
func (m *Monitor) pass(stopCh chan struct{}) {
	entries := m.store.Entries()

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func(e *pool.Entry) {
			defer wg.Done()
			m.probeEntry(e)
		}(entry)
	}
	wg.Wait()

	// A stop that arrived while probes were in flight wins over the
	// publish, so a stopped monitor never replaces the live set.
	select {
	case <-stopCh:
		return
	default:
	}

	var members []pool.Member
	for _, entry := range entries {
		if !entry.Alive() {
			continue
		}
		latency, _ := entry.Latency()
		members = append(members, pool.Member{Entry: entry, Latency: latency})
	}
	set := pool.NewLiveSet(members)
	m.store.PublishLiveSet(set)

	m.metrics.UpdatePoolSize(len(entries))
	m.metrics.UpdateLiveProxies(set.Len())
	m.sink.Record(events.KindHealthTick, map[string]string{
		"live":  strconv.Itoa(set.Len()),
		"total": strconv.Itoa(len(entries)),
	})
	m.logger.Debug("health pass complete",
		"live", set.Len(),
		"total", len(entries),
	)
}

func (m *Monitor) probeEntry(entry *pool.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	latency, err := m.probe(ctx, entry.Descriptor())
	m.store.UpdateProbe(entry, latency, err)
	m.metrics.RecordProbe(err == nil, latency)

	details := map[string]string{
		"proxy": entry.Address(),
		"alive": strconv.FormatBool(err == nil),
	}
	if err != nil {
		details["error"] = err.Error()
		m.logger.Debug("probe failed", "proxy", entry.Address(), "error", err)
	} else {
		details["latency_ms"] = strconv.FormatInt(latency.Milliseconds(), 10)
	}
	m.sink.Record(events.KindProbeResult, details)
}
