package events

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event recorded by the manager.
type Kind string

// Event kinds emitted by the pool.
const (
	// KindProxySelected is recorded when the dispatcher selects a proxy for
	// an attempt.
	KindProxySelected Kind = "proxy_selected"

	// KindProxyFailed is recorded when a proxy exhausts its per-proxy retry
	// budget and the dispatcher rotates away from it.
	KindProxyFailed Kind = "proxy_failed"

	// KindDispatchExhausted is recorded when a logical request gives up
	// after the configured number of full rotations.
	KindDispatchExhausted Kind = "dispatch_exhausted"

	// KindProbeResult is recorded for each individual health probe outcome.
	KindProbeResult Kind = "probe_result"

	// KindHealthTick is recorded when a health-check pass completes and a
	// new live set has been published.
	KindHealthTick Kind = "health_tick"
)

// Event is one record in the event journal.
type Event struct {
	// ID is a unique identifier for the event.
	ID string `json:"id"`

	// Time is when the event was recorded.
	Time time.Time `json:"time"`

	// Kind classifies the event.
	Kind Kind `json:"kind"`

	// Details carries event-specific key/value context, such as the proxy
	// address, correlation token, or live-set size.
	Details map[string]string `json:"details,omitempty"`
}

// NewEvent creates an event with a fresh ID and the current time.
func NewEvent(kind Kind, details map[string]string) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Kind:    kind,
		Details: details,
	}
}

// Sink receives observability events from the manager. Implementations must
// be safe for concurrent use and must not block the caller; a no-op sink is
// substitutable with no behavior change.
type Sink interface {
	Record(kind Kind, details map[string]string)
}

// NopSink discards all events. It is installed when event recording is
// disabled.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(Kind, map[string]string) {}

// SlogSink logs every event through a structured logger without journaling
// it anywhere.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink that logs events at debug level. A nil logger
// uses slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("component", "events")}
}

// Record implements Sink.
func (s *SlogSink) Record(kind Kind, details map[string]string) {
	attrs := make([]any, 0, 2*len(details)+2)
	attrs = append(attrs, "kind", string(kind))
	for k, v := range details {
		attrs = append(attrs, k, v)
	}
	s.logger.Debug("pool event", attrs...)
}

// MultiSink fans one event out to every sink in order.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(kind Kind, details map[string]string) {
	for _, sink := range m {
		sink.Record(kind, details)
	}
}
