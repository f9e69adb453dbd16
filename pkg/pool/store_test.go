package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testDescriptors() []Descriptor {
	return []Descriptor{
		{Host: "10.0.0.1", Port: 1080},
		{Host: "10.0.0.2", Port: 1080, Username: "user", Password: "pass"},
		{Host: "10.0.0.3", Port: 9050},
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore(testDescriptors())

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	entries := s.Entries()
	for i, e := range entries {
		if e.Alive() {
			t.Errorf("entry %d alive before first probe", i)
		}
		if _, ok := e.Latency(); ok {
			t.Errorf("entry %d has defined latency before first probe", i)
		}
		if !e.LastCheckedAt().IsZero() {
			t.Errorf("entry %d has non-zero LastCheckedAt before first probe", i)
		}
	}

	if got := entries[1].Descriptor().Username; got != "user" {
		t.Errorf("entry 1 username = %q, want %q", got, "user")
	}
	if got := entries[2].Address(); got != "10.0.0.3:9050" {
		t.Errorf("entry 2 address = %q, want %q", got, "10.0.0.3:9050")
	}
}

func TestStore_UpdateProbe(t *testing.T) {
	s := NewStore(testDescriptors())
	e := s.Entries()[0]

	s.UpdateProbe(e, 42*time.Millisecond, nil)

	if !e.Alive() {
		t.Error("entry not alive after successful probe")
	}
	lat, ok := e.Latency()
	if !ok || lat != 42*time.Millisecond {
		t.Errorf("Latency() = %v, %v, want 42ms, true", lat, ok)
	}
	if e.LastCheckedAt().IsZero() {
		t.Error("LastCheckedAt not set")
	}
	if e.LastProbeError() != nil {
		t.Errorf("LastProbeError() = %v, want nil", e.LastProbeError())
	}

	probeErr := errors.New("connection refused")
	s.UpdateProbe(e, 0, probeErr)

	if e.Alive() {
		t.Error("entry alive after failed probe")
	}
	if _, ok := e.Latency(); ok {
		t.Error("dead entry reports a defined latency")
	}
	if !errors.Is(e.LastProbeError(), probeErr) {
		t.Errorf("LastProbeError() = %v, want %v", e.LastProbeError(), probeErr)
	}
}

func TestStore_RecordDispatchOutcome(t *testing.T) {
	s := NewStore(testDescriptors())
	e := s.Entries()[0]

	s.RecordDispatchOutcome(e, false)
	s.RecordDispatchOutcome(e, false)
	if got := e.ConsecutiveFailures(); got != 2 {
		t.Errorf("ConsecutiveFailures() = %d, want 2", got)
	}

	s.RecordDispatchOutcome(e, true)
	if got := e.ConsecutiveFailures(); got != 0 {
		t.Errorf("ConsecutiveFailures() after success = %d, want 0", got)
	}

	total, failed := e.DispatchStats()
	if total != 3 || failed != 2 {
		t.Errorf("DispatchStats() = %d, %d, want 3, 2", total, failed)
	}
}

func TestStore_ProbeSuccessResetsFailureStreak(t *testing.T) {
	s := NewStore(testDescriptors())
	e := s.Entries()[0]

	s.RecordDispatchOutcome(e, false)
	s.UpdateProbe(e, 10*time.Millisecond, nil)

	if got := e.ConsecutiveFailures(); got != 0 {
		t.Errorf("ConsecutiveFailures() after successful probe = %d, want 0", got)
	}
}

func TestStore_Add(t *testing.T) {
	s := NewStore(testDescriptors())

	// Identical descriptor is deduplicated.
	if _, added := s.Add(Descriptor{Host: "10.0.0.1", Port: 1080}); added {
		t.Error("Add() reported added=true for existing descriptor")
	}

	// Same address with different credentials is an independent entry.
	if _, added := s.Add(Descriptor{Host: "10.0.0.1", Port: 1080, Username: "u", Password: "p"}); !added {
		t.Error("Add() reported added=false for new credentials")
	}

	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestStore_PublishLiveSet(t *testing.T) {
	s := NewStore(testDescriptors())

	if s.CurrentLiveSet() != nil {
		t.Fatal("CurrentLiveSet() non-nil before first publish")
	}

	entries := s.Entries()
	set := NewLiveSet([]Member{
		{Entry: entries[0], Latency: 30 * time.Millisecond},
		{Entry: entries[1], Latency: 10 * time.Millisecond},
	})
	s.PublishLiveSet(set)

	got := s.CurrentLiveSet()
	if got == nil || got.Len() != 2 {
		t.Fatalf("CurrentLiveSet() = %v, want set of 2", got)
	}
	// Sorted by latency ascending.
	if got.At(0).Entry != entries[1] {
		t.Errorf("fastest entry not first in live set")
	}
}

func TestStore_WaitFirstPublish(t *testing.T) {
	s := NewStore(testDescriptors())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.WaitFirstPublish(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitFirstPublish() before publish = %v, want deadline exceeded", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- s.WaitFirstPublish(context.Background())
	}()

	s.PublishLiveSet(NewLiveSet(nil))
	wg.Wait()
	if err := <-errCh; err != nil {
		t.Fatalf("WaitFirstPublish() after publish = %v, want nil", err)
	}

	// Subsequent calls return immediately, publish is idempotent.
	s.PublishLiveSet(NewLiveSet(nil))
	if err := s.WaitFirstPublish(context.Background()); err != nil {
		t.Fatalf("WaitFirstPublish() second call = %v, want nil", err)
	}
}

func TestLiveSet_Ordering(t *testing.T) {
	s := NewStore([]Descriptor{
		{Host: "a", Port: 1}, {Host: "b", Port: 2}, {Host: "c", Port: 3},
	})
	entries := s.Entries()

	// b and c tie on latency; configuration order breaks the tie.
	set := NewLiveSet([]Member{
		{Entry: entries[2], Latency: 5 * time.Millisecond},
		{Entry: entries[1], Latency: 5 * time.Millisecond},
		{Entry: entries[0], Latency: 50 * time.Millisecond},
	})

	want := []*Entry{entries[1], entries[2], entries[0]}
	for i, m := range set.Members() {
		if m.Entry != want[i] {
			t.Errorf("position %d = %s, want %s", i, m.Entry, want[i])
		}
	}
}

func TestLiveSet_MembersIsACopy(t *testing.T) {
	s := NewStore(testDescriptors())
	entries := s.Entries()
	set := NewLiveSet([]Member{{Entry: entries[0], Latency: time.Millisecond}})

	members := set.Members()
	members[0] = Member{}

	if set.At(0).Entry != entries[0] {
		t.Error("mutating Members() affected the snapshot")
	}
}
