package pool

import (
	"sort"
	"time"
)

// Member is one live proxy inside a LiveSet, together with the latency
// measured by the probe that admitted it. The latency is captured at publish
// time so that readers of a snapshot never observe values from a later tick.
type Member struct {
	Entry   *Entry
	Latency time.Duration
}

// LiveSet is an immutable, time-stamped snapshot of the proxies that passed
// the most recent health pass, ordered ascending by probe latency with ties
// broken by original configuration order. Snapshots are published atomically
// and replaced wholesale; readers never observe a partially updated set.
type LiveSet struct {
	// PublishedAt is the time the health monitor published this snapshot.
	PublishedAt time.Time

	members []Member
}

// NewLiveSet builds a snapshot from the given members, sorting them by
// latency ascending with configuration order as the stable tie-break.
func NewLiveSet(members []Member) *LiveSet {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Latency != sorted[j].Latency {
			return sorted[i].Latency < sorted[j].Latency
		}
		return sorted[i].Entry.order < sorted[j].Entry.order
	})

	return &LiveSet{
		PublishedAt: time.Now(),
		members:     sorted,
	}
}

// Len returns the number of live proxies in the snapshot.
func (s *LiveSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// IsEmpty reports whether the snapshot contains no live proxies.
func (s *LiveSet) IsEmpty() bool {
	return s.Len() == 0
}

// At returns the member at position i.
func (s *LiveSet) At(i int) Member {
	return s.members[i]
}

// Members returns a copy of the snapshot contents. Mutating the returned
// slice does not affect the snapshot.
func (s *LiveSet) Members() []Member {
	if s == nil {
		return nil
	}
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}
