package metrics

import (
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "pool",
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	c := NewCollector(nil, nil)
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}
	if c.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("namespace = %q, want %q", c.config.Namespace, config.DefaultMetricsNamespace)
	}
	if c.Registry() == nil {
		t.Error("Registry() returned nil")
	}
}

func TestCollector_RecordDispatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordDispatch(StatusSuccess, 150*time.Millisecond, 2)
	c.RecordDispatch(StatusSuccess, 80*time.Millisecond, 1)
	c.RecordDispatch(StatusExhausted, 3*time.Second, 6)

	if got := testutil.ToFloat64(c.dispatchesTotal.WithLabelValues(StatusSuccess)); got != 2 {
		t.Errorf("dispatches_total{status=success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.dispatchesTotal.WithLabelValues(StatusExhausted)); got != 1 {
		t.Errorf("dispatches_total{status=exhausted} = %v, want 1", got)
	}
}

func TestCollector_RecordAttemptAndRotation(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordAttempt(OutcomeSuccess)
	c.RecordAttempt(OutcomeTimeout)
	c.RecordAttempt(OutcomeTimeout)
	c.RecordRotation()

	if got := testutil.ToFloat64(c.attemptsTotal.WithLabelValues(OutcomeTimeout)); got != 2 {
		t.Errorf("attempts_total{outcome=timeout} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.rotationsTotal); got != 1 {
		t.Errorf("rotations_total = %v, want 1", got)
	}
}

func TestCollector_RecordProbe(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordProbe(true, 200*time.Millisecond)
	c.RecordProbe(false, 0)
	c.RecordProbe(false, 0)

	if got := testutil.ToFloat64(c.probesTotal.WithLabelValues("alive")); got != 1 {
		t.Errorf("probes_total{result=alive} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.probesTotal.WithLabelValues("dead")); got != 2 {
		t.Errorf("probes_total{result=dead} = %v, want 2", got)
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.UpdatePoolSize(10)
	c.UpdateLiveProxies(7)

	if got := testutil.ToFloat64(c.poolSize); got != 10 {
		t.Errorf("proxies gauge = %v, want 10", got)
	}
	if got := testutil.ToFloat64(c.liveProxies); got != 7 {
		t.Errorf("live_proxies gauge = %v, want 7", got)
	}

	c.UpdateLiveProxies(0)
	if got := testutil.ToFloat64(c.liveProxies); got != 0 {
		t.Errorf("live_proxies gauge = %v after update, want 0", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.RecordDispatch(StatusSuccess, time.Second, 1)
	c.RecordAttempt(OutcomeError)
	c.RecordRotation()
	c.RecordProbe(true, time.Millisecond)
	c.UpdatePoolSize(1)
	c.UpdateLiveProxies(1)

	if c.Registry() != nil {
		t.Error("nil collector Registry() != nil")
	}
}

func TestCollector_DisabledRecordsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordDispatch(StatusSuccess, time.Second, 1)
	c.RecordProbe(true, time.Millisecond)

	if got := testutil.ToFloat64(c.dispatchesTotal.WithLabelValues(StatusSuccess)); got != 0 {
		t.Errorf("disabled collector recorded dispatches_total = %v, want 0", got)
	}
}

func TestCollector_MetricNames(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)
	c.RecordDispatch(StatusSuccess, time.Second, 1)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, " ")
	for _, want := range []string{"test_pool_dispatches_total", "test_pool_dispatch_duration_seconds"} {
		if !strings.Contains(joined, want) {
			t.Errorf("gathered metrics %v missing %q", names, want)
		}
	}
}
