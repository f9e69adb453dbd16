package events_test

import (
	"context"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/events/storage"
)

func TestRecorder_JournalsEvents(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := events.NewRecorder(store, nil)

	rec.Record(events.KindProxySelected, map[string]string{"proxy": "10.0.0.1:1080"})
	rec.Record(events.KindProxyFailed, map[string]string{"proxy": "10.0.0.1:1080"})
	rec.Stop()

	got, err := store.Query(context.Background(), &events.Query{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("journaled %d events, want 2", len(got))
	}

	byKind, err := store.Query(context.Background(), &events.Query{Kind: events.KindProxyFailed})
	if err != nil {
		t.Fatalf("Query(kind) error: %v", err)
	}
	if len(byKind) != 1 || byKind[0].Details["proxy"] != "10.0.0.1:1080" {
		t.Errorf("Query(kind) = %+v, want one proxy_failed event", byKind)
	}
	if byKind[0].ID == "" {
		t.Error("journaled event has empty ID")
	}
}

func TestRecorder_StopIsIdempotent(t *testing.T) {
	rec := events.NewRecorder(storage.NewMemoryStorage(), nil)
	rec.Stop()
	rec.Stop()

	// Recording after stop is a no-op, not a panic.
	rec.Record(events.KindHealthTick, nil)
}

func TestRecorder_DropsWhenBufferFull(t *testing.T) {
	rec := events.NewRecorder(&blockedStorage{release: make(chan struct{})}, &events.RecorderConfig{
		AsyncBuffer:  1,
		WriteTimeout: 50 * time.Millisecond,
	})
	defer rec.Stop()

	for i := 0; i < 50; i++ {
		rec.Record(events.KindProbeResult, nil)
	}

	if rec.Dropped() == 0 {
		t.Error("Dropped() = 0, want > 0 when the buffer is saturated")
	}
}

// blockedStorage blocks every write until its context expires, keeping the
// recorder's buffer full.
type blockedStorage struct {
	release chan struct{}
}

func (b *blockedStorage) Store(ctx context.Context, ev *events.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.release:
		return nil
	}
}

func (b *blockedStorage) Query(context.Context, *events.Query) ([]*events.Event, error) {
	return nil, nil
}

func (b *blockedStorage) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (b *blockedStorage) Close() error { return nil }

func TestNopSinkAndSlogSink(t *testing.T) {
	var sink events.Sink = events.NopSink{}
	sink.Record(events.KindProxySelected, map[string]string{"proxy": "x"})

	sink = events.NewSlogSink(nil)
	sink.Record(events.KindProxySelected, map[string]string{"proxy": "x"})
}
