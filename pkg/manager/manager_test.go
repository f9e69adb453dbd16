package manager

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/dispatch"
	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/tunnel"
)

// fakeExchanger succeeds for every proxy and records how many exchanges
// happened.
type fakeExchanger struct {
	count atomic.Int64
}

func (f *fakeExchanger) Exchange(ctx context.Context, proxy pool.Descriptor, desc *tunnel.Description) (*tunnel.Response, error) {
	f.count.Add(1)
	return &tunnel.Response{StatusCode: 200, Proxy: proxy.Address()}, nil
}

// aliveProbe marks every proxy alive with a latency derived from its port,
// so live-set ordering is deterministic.
func aliveProbe(ctx context.Context, proxy pool.Descriptor) (time.Duration, error) {
	return time.Duration(proxy.Port-1079) * 10 * time.Millisecond, nil
}

func deadProbe(ctx context.Context, proxy pool.Descriptor) (time.Duration, error) {
	return 0, errors.New("unreachable")
}

func testDescriptors(n int) []pool.Descriptor {
	out := make([]pool.Descriptor, n)
	for i := range out {
		out[i] = pool.Descriptor{Host: "10.0.0.1", Port: 1080 + i}
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Health.CheckInterval = 50 * time.Millisecond
	cfg.Telemetry.Logging.Disabled = true
	cfg.Events.Enabled = false
	return cfg
}

func newTestManager(t *testing.T, n int, opts ...Option) (*Manager, *fakeExchanger) {
	t.Helper()
	exchanger := &fakeExchanger{}
	opts = append([]Option{WithProbe(aliveProbe), WithExchanger(exchanger)}, opts...)
	m, err := New(testDescriptors(n), testConfig(), opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(m.Stop)
	return m, exchanger
}

func TestManager_RequestWithURL(t *testing.T) {
	m, exchanger := newTestManager(t, 2)

	resp, err := m.Request(context.Background(), "http://example.com/data", nil)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if exchanger.count.Load() != 1 {
		t.Errorf("exchanges = %d, want 1", exchanger.count.Load())
	}
}

func TestManager_RequestWithOptions(t *testing.T) {
	m, _ := newTestManager(t, 1)

	resp, err := m.Request(context.Background(), "http://example.com/data", &RequestOptions{
		Method: "POST",
		JSON:   map[string]string{"k": "v"},
		Header: map[string]string{"X-Token": "abc"},
	})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if resp == nil {
		t.Fatal("Request() returned nil response")
	}
}

func TestManager_RequestWithDescription(t *testing.T) {
	m, _ := newTestManager(t, 1)

	resp, err := m.Request(context.Background(), &tunnel.Description{URL: "http://example.com"}, nil)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if resp == nil {
		t.Fatal("Request() returned nil response")
	}

	// A full description plus options is ambiguous.
	if _, err := m.Request(context.Background(), &tunnel.Description{URL: "http://example.com"}, &RequestOptions{Method: "POST"}); err == nil {
		t.Error("Request() with description and options succeeded, want error")
	}
}

func TestManager_RequestTargetValidation(t *testing.T) {
	m, _ := newTestManager(t, 1)

	if _, err := m.Request(context.Background(), "", nil); err == nil {
		t.Error("Request() with empty URL succeeded, want error")
	}
	if _, err := m.Request(context.Background(), 42, nil); err == nil {
		t.Error("Request() with unsupported target type succeeded, want error")
	}
	var nilDesc *tunnel.Description
	if _, err := m.Request(context.Background(), nilDesc, nil); err == nil {
		t.Error("Request() with nil description succeeded, want error")
	}
}

func TestManager_LiveProxiesSortedSnapshot(t *testing.T) {
	m, _ := newTestManager(t, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	live, err := m.LiveProxies(ctx)
	if err != nil {
		t.Fatalf("LiveProxies() error: %v", err)
	}
	if len(live) != 3 {
		t.Fatalf("LiveProxies() returned %d entries, want 3", len(live))
	}

	for i := 1; i < len(live); i++ {
		if live[i-1].LatencyMs > live[i].LatencyMs {
			t.Errorf("live list not sorted by latency: %v", live)
		}
	}
	for _, p := range live {
		if p.LatencyMs < 0 {
			t.Errorf("proxy %s:%d has negative latency", p.Host, p.Port)
		}
	}

	// The returned slice is a copy; mutating it must not affect later reads.
	live[0].Host = "mutated"
	again, err := m.LiveProxies(ctx)
	if err != nil {
		t.Fatalf("LiveProxies() error: %v", err)
	}
	if again[0].Host == "mutated" {
		t.Error("LiveProxies() returned a shared reference, want a snapshot copy")
	}
}

func TestManager_LiveProxiesCarryDispatchStats(t *testing.T) {
	m, _ := newTestManager(t, 1)

	if _, err := m.Request(context.Background(), "http://example.com", nil); err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	live, err := m.LiveProxies(ctx)
	if err != nil {
		t.Fatalf("LiveProxies() error: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("LiveProxies() returned %d entries, want 1", len(live))
	}
	if live[0].Dispatches != 1 || live[0].FailedDispatches != 0 {
		t.Errorf("dispatch stats = (%d, %d), want (1, 0)",
			live[0].Dispatches, live[0].FailedDispatches)
	}
}

func TestManager_AllProxiesDead(t *testing.T) {
	exchanger := &fakeExchanger{}
	m, err := New(testDescriptors(2), testConfig(), WithProbe(deadProbe), WithExchanger(exchanger))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	live, err := m.LiveProxies(ctx)
	if err != nil {
		t.Fatalf("LiveProxies() error: %v", err)
	}
	if len(live) != 0 {
		t.Errorf("LiveProxies() = %v, want empty", live)
	}

	if _, err := m.Request(ctx, "http://example.com", nil); !errors.Is(err, dispatch.ErrNoLiveProxies) {
		t.Errorf("Request() error = %v, want ErrNoLiveProxies", err)
	}
	if exchanger.count.Load() != 0 {
		t.Errorf("exchanges = %d, want 0 with no live proxies", exchanger.count.Load())
	}
}

func TestManager_EmptyPool(t *testing.T) {
	m, exchanger := newTestManager(t, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	live, err := m.LiveProxies(ctx)
	if err != nil {
		t.Fatalf("LiveProxies() error: %v", err)
	}
	if len(live) != 0 {
		t.Errorf("LiveProxies() = %v, want empty", live)
	}

	if _, err := m.Request(ctx, "http://example.com", nil); !errors.Is(err, dispatch.ErrNoLiveProxies) {
		t.Errorf("Request() error = %v, want ErrNoLiveProxies", err)
	}
	if exchanger.count.Load() != 0 {
		t.Errorf("exchanges = %d, want 0", exchanger.count.Load())
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t, 1)
	m.Stop()
	m.Stop()
}

func TestManager_InvalidConfigFailsFast(t *testing.T) {
	cfg := testConfig()
	cfg.Dispatch.MaxTimeout = -time.Second

	if _, err := New(testDescriptors(1), cfg, WithProbe(aliveProbe)); err == nil {
		t.Fatal("New() with negative timeout succeeded, want validation error")
	}
}

func TestManager_EventStorageFailureFailsConstruction(t *testing.T) {
	cfg := testConfig()
	cfg.Events.Enabled = true
	cfg.Events.Backend = config.EventsBackendSQLite
	cfg.Events.SQLitePath = filepath.Join(t.TempDir(), "missing", "events.db")

	if _, err := New(testDescriptors(1), cfg, WithProbe(aliveProbe)); err == nil {
		t.Fatal("New() with an unopenable event journal succeeded, want error")
	}
}

func TestManager_EventSinkReceivesDispatchEvents(t *testing.T) {
	var mu sync.Mutex
	kinds := make(map[events.Kind]int)
	sink := sinkFunc(func(kind events.Kind, details map[string]string) {
		mu.Lock()
		kinds[kind]++
		mu.Unlock()
	})

	m, _ := newTestManager(t, 1, WithEventSink(sink))

	if _, err := m.Request(context.Background(), "http://example.com", nil); err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if kinds[events.KindProxySelected] == 0 {
		t.Error("no proxy_selected event recorded")
	}
	if kinds[events.KindHealthTick] == 0 {
		t.Error("no health_tick event recorded")
	}
}

type sinkFunc func(events.Kind, map[string]string)

func (f sinkFunc) Record(kind events.Kind, details map[string]string) { f(kind, details) }

func TestManager_CorrelationTokenSource(t *testing.T) {
	var calls atomic.Int64
	m, _ := newTestManager(t, 1, WithTokenSource(func() string {
		calls.Add(1)
		return "fixed-token"
	}))

	if _, err := m.Request(context.Background(), "http://example.com", nil); err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("token source called %d times, want 1", calls.Load())
	}
}

func TestManager_EventJournalQuery(t *testing.T) {
	cfg := testConfig()
	cfg.Events.Enabled = true

	exchanger := &fakeExchanger{}
	m, err := New(testDescriptors(1), cfg, WithProbe(aliveProbe), WithExchanger(exchanger))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Stop()

	if _, err := m.Request(context.Background(), "http://example.com", nil); err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	// The recorder writes asynchronously.
	deadline := time.After(2 * time.Second)
	for {
		got, err := m.Events(context.Background(), &events.Query{Kind: events.KindProxySelected})
		if err != nil {
			t.Fatalf("Events() error: %v", err)
		}
		if len(got) > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("proxy_selected event never journaled")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
