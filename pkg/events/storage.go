package events

import (
	"context"
	"time"
)

// Query filters journal reads.
type Query struct {
	// Kind restricts results to one event kind. Empty matches all kinds.
	Kind Kind

	// Since restricts results to events at or after the given time.
	// The zero time matches all events.
	Since time.Time

	// Limit caps the number of returned events. Zero means no limit.
	Limit int
}

// Storage persists journal events. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store persists one event.
	Store(ctx context.Context, ev *Event) error

	// Query returns events matching the query, newest first.
	Query(ctx context.Context, q *Query) ([]*Event, error)

	// Prune deletes events recorded before the cutoff and returns the
	// number deleted.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases the backend's resources.
	Close() error
}
