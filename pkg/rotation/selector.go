package rotation

import (
	"errors"
	"sync"

	"mercator-hq/ganymede/pkg/pool"
)

// ErrEmptyLiveSet is returned by Current when the latest published live set
// has no members.
var ErrEmptyLiveSet = errors.New("live set is empty")

// Selector walks the live set round-robin. It always reads the latest
// published snapshot: when the health monitor replaces the set between
// calls, the cursor is revalidated against the new snapshot rather than
// pinning the old one.
//
// A Selector is safe for concurrent use; all callers share one cursor, so
// load spreads across the live proxies.
type Selector struct {
	store *pool.Store

	mu     sync.Mutex
	seen   *pool.LiveSet
	cursor int
}

// NewSelector creates a selector over the store's published live sets.
func NewSelector(store *pool.Store) *Selector {
	return &Selector{store: store}
}

// Current returns the member under the cursor in the latest live set. When
// the snapshot changed size since the last call, or the cursor overruns the
// new set, the cursor resets to the front; a same-size republish carries
// the cursor forward so periodic health passes do not re-bias rotation
// toward the fastest proxy. Returns ErrEmptyLiveSet when no proxy is live.
func (s *Selector) Current() (pool.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.store.CurrentLiveSet()
	if set == nil || set.IsEmpty() {
		s.seen = set
		s.cursor = 0
		return pool.Member{}, ErrEmptyLiveSet
	}

	s.revalidate(set)
	return set.At(s.cursor), nil
}

// Advance moves the cursor to the next member, wrapping at the end of the
// set. The next Current call observes the new position.
func (s *Selector) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.store.CurrentLiveSet()
	if set == nil || set.IsEmpty() {
		s.seen = set
		s.cursor = 0
		return
	}
	s.revalidate(set)
	s.cursor = (s.cursor + 1) % set.Len()
}

// revalidate reconciles the cursor with the latest snapshot. The cursor
// resets only when the set changed size or the cursor ran off the end.
// Callers must hold s.mu; set must be non-empty.
func (s *Selector) revalidate(set *pool.LiveSet) {
	if set != s.seen {
		if s.seen == nil || s.seen.Len() != set.Len() {
			s.cursor = 0
		}
		s.seen = set
	}
	if s.cursor >= set.Len() {
		s.cursor = 0
	}
}

// Len returns the size of the latest published live set.
func (s *Selector) Len() int {
	set := s.store.CurrentLiveSet()
	if set == nil {
		return 0
	}
	return set.Len()
}
