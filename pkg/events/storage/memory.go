package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/events"
)

// MemoryStorage implements events.Storage using an in-memory slice. It is
// the default backend and is also used throughout the tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*events.Event
	closed  bool
}

// NewMemoryStorage creates an in-memory journal backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store persists one event.
func (s *MemoryStorage) Store(ctx context.Context, ev *events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutation cannot affect the journal.
	evCopy := *ev
	s.records = append(s.records, &evCopy)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStorage) Query(ctx context.Context, q *events.Query) ([]*events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*events.Event
	for _, ev := range s.records {
		if q != nil && q.Kind != "" && ev.Kind != q.Kind {
			continue
		}
		if q != nil && !q.Since.IsZero() && ev.Time.Before(q.Since) {
			continue
		}
		evCopy := *ev
		out = append(out, &evCopy)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.After(out[j].Time)
	})

	if q != nil && q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Prune deletes events recorded before the cutoff.
func (s *MemoryStorage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, ev := range s.records {
		if ev.Time.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	s.records = kept
	return deleted, nil
}

// Close implements events.Storage.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
