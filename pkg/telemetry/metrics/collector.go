package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector manages all Prometheus metrics for the proxy pool. It registers
// the metric instances once at construction and provides typed recording
// methods for the dispatch, health, and pool components.
//
// All recording methods are safe to call on a nil *Collector, so callers
// can hold an optional collector without guarding every call site.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Dispatch metrics
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	dispatchAttempts prometheus.Histogram
	attemptsTotal    *prometheus.CounterVec
	rotationsTotal   prometheus.Counter

	// Health metrics
	probesTotal  *prometheus.CounterVec
	probeLatency prometheus.Histogram

	// Pool metrics
	poolSize    prometheus.Gauge
	liveProxies prometheus.Gauge
}

// Dispatch status label values.
const (
	StatusSuccess       = "success"
	StatusExhausted     = "exhausted"
	StatusNoLiveProxies = "no_live_proxies"
)

// Attempt outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// NewCollector creates a collector registered against the given Prometheus
// registry. If registry is nil a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		dispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatches_total",
				Help:      "Total number of dispatched requests by final status",
			},
			[]string{"status"},
		),

		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_duration_seconds",
				Help:      "End-to-end duration of dispatched requests, including retries and rotation",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		dispatchAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_attempts",
				Help:      "Number of proxy attempts consumed per dispatched request",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "attempts_total",
				Help:      "Total number of individual proxy attempts by outcome",
			},
			[]string{"outcome"},
		),

		rotationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rotations_total",
				Help:      "Total number of times the dispatcher rotated to the next proxy",
			},
		),

		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probes_total",
				Help:      "Total number of health probes by result",
			},
			[]string{"result"},
		),

		probeLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probe_latency_seconds",
				Help:      "Latency of successful health probes",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),

		poolSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "proxies",
				Help:      "Number of proxies registered in the pool",
			},
		),

		liveProxies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "live_proxies",
				Help:      "Number of proxies in the current live set",
			},
		),
	}

	registry.MustRegister(
		c.dispatchesTotal,
		c.dispatchDuration,
		c.dispatchAttempts,
		c.attemptsTotal,
		c.rotationsTotal,
		c.probesTotal,
		c.probeLatency,
		c.poolSize,
		c.liveProxies,
	)

	return c
}

// RecordDispatch records a completed dispatch: its final status, total
// duration, and the number of proxy attempts it consumed.
func (c *Collector) RecordDispatch(status string, duration time.Duration, attempts int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.dispatchesTotal.WithLabelValues(status).Inc()
	c.dispatchDuration.Observe(duration.Seconds())
	if attempts > 0 {
		c.dispatchAttempts.Observe(float64(attempts))
	}
}

// RecordAttempt records one individual proxy attempt.
func (c *Collector) RecordAttempt(outcome string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.attemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordRotation records the dispatcher rotating to the next live proxy.
func (c *Collector) RecordRotation() {
	if c == nil || !c.config.Enabled {
		return
	}
	c.rotationsTotal.Inc()
}

// RecordProbe records one health probe. Latency is only observed for
// successful probes.
func (c *Collector) RecordProbe(alive bool, latency time.Duration) {
	if c == nil || !c.config.Enabled {
		return
	}
	if alive {
		c.probesTotal.WithLabelValues("alive").Inc()
		c.probeLatency.Observe(latency.Seconds())
		return
	}
	c.probesTotal.WithLabelValues("dead").Inc()
}

// UpdatePoolSize updates the registered proxy count gauge.
func (c *Collector) UpdatePoolSize(n int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.poolSize.Set(float64(n))
}

// UpdateLiveProxies updates the live set size gauge.
func (c *Collector) UpdateLiveProxies(n int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.liveProxies.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector. It
// returns nil on a nil collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
