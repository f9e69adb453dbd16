package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Store is the proxy record store: the full configured proxy list plus the
// currently published live set. It is the only shared mutable state between
// the health monitor and foreground dispatches.
//
// Entries are identified by position; duplicate (host, port) pairs are
// tolerated and treated as independent entries, since their credentials may
// differ.
type Store struct {
	mu      sync.RWMutex
	entries []*Entry

	live atomic.Pointer[LiveSet]

	// firstPublish is closed when the first live set (possibly empty) is
	// published. Calls that depend on the live set block on it so that they
	// never observe a spuriously empty pool before the first health pass.
	firstPublish chan struct{}
	publishOnce  sync.Once
}

// NewStore creates a record store from the configured descriptors.
func NewStore(descriptors []Descriptor) *Store {
	s := &Store{
		firstPublish: make(chan struct{}),
	}
	for _, d := range descriptors {
		s.entries = append(s.entries, &Entry{desc: d, order: len(s.entries)})
	}
	return s
}

// Entries returns the full configured list in stable order. The slice is a
// copy; the entries themselves are shared.
func (s *Store) Entries() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of configured entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Add appends a new entry for the descriptor and returns it. Descriptors
// identical to an existing entry (same address and credentials) are skipped
// and the existing entry is returned with added=false. New entries start
// dead and are picked up by the next health-check tick.
func (s *Store) Add(d Descriptor) (e *Entry, added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries {
		if existing.desc == d {
			return existing, false
		}
	}

	e = &Entry{desc: d, order: len(s.entries)}
	s.entries = append(s.entries, e)
	return e, true
}

// UpdateProbe records the outcome of one health probe against an entry.
// A nil err marks the entry alive with the measured latency; any error marks
// it dead and preserves the error for diagnostics.
func (s *Store) UpdateProbe(e *Entry, latency time.Duration, err error) {
	e.recordProbe(latency, err)
}

// RecordDispatchOutcome updates the per-entry dispatch counters: failures
// increment the consecutive failure streak, any success resets it.
func (s *Store) RecordDispatchOutcome(e *Entry, success bool) {
	e.recordDispatch(success)
}

// PublishLiveSet atomically replaces the currently visible live set. The
// first publication also releases any callers blocked in WaitFirstPublish.
func (s *Store) PublishLiveSet(set *LiveSet) {
	s.live.Store(set)
	s.publishOnce.Do(func() {
		close(s.firstPublish)
	})
}

// CurrentLiveSet returns the latest published snapshot without blocking.
// It returns nil if no health pass has completed yet.
func (s *Store) CurrentLiveSet() *LiveSet {
	return s.live.Load()
}

// WaitFirstPublish blocks until the first live set has been published or the
// context is done. It returns immediately once any snapshot exists.
func (s *Store) WaitFirstPublish(ctx context.Context) error {
	select {
	case <-s.firstPublish:
		return nil
	default:
	}
	select {
	case <-s.firstPublish:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
