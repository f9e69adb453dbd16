package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// recorder defaults.
const (
	defaultAsyncBuffer  = 1000
	defaultWriteTimeout = 5 * time.Second
)

// Recorder is a Sink that journals events asynchronously to a storage
// backend. Record never blocks the dispatch path: events are enqueued on a
// buffered channel and written by a background worker; when the buffer is
// full the event is dropped and counted.
type Recorder struct {
	storage      Storage
	logger       *slog.Logger
	writeTimeout time.Duration

	eventCh  chan *Event
	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}

	mu      sync.Mutex
	dropped int64
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the channel between Record and the storage
	// worker. Default: 1000.
	AsyncBuffer int

	// WriteTimeout bounds each storage write. Default: 5s.
	WriteTimeout time.Duration
}

// NewRecorder creates a recorder draining into storage and starts its
// background worker.
func NewRecorder(storage Storage, cfg *RecorderConfig) *Recorder {
	buffer := defaultAsyncBuffer
	writeTimeout := defaultWriteTimeout
	if cfg != nil {
		if cfg.AsyncBuffer > 0 {
			buffer = cfg.AsyncBuffer
		}
		if cfg.WriteTimeout > 0 {
			writeTimeout = cfg.WriteTimeout
		}
	}

	r := &Recorder{
		storage:      storage,
		logger:       slog.Default().With("component", "events.recorder"),
		writeTimeout: writeTimeout,
		eventCh:      make(chan *Event, buffer),
		done:         make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record implements Sink. It enqueues the event and returns immediately.
func (r *Recorder) Record(kind Kind, details map[string]string) {
	select {
	case <-r.done:
		return
	default:
	}

	select {
	case r.eventCh <- NewEvent(kind, details):
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		if dropped%1000 == 1 {
			r.logger.Warn("event buffer full, dropping events", "dropped_total", dropped)
		}
	}
}

// Query reads journaled events back from the storage backend.
func (r *Recorder) Query(ctx context.Context, q *Query) ([]*Event, error) {
	return r.storage.Query(ctx, q)
}

// Dropped returns the number of events dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Stop drains pending events, stops the worker, and closes the storage
// backend. It is safe to call multiple times.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		if err := r.storage.Close(); err != nil {
			r.logger.Warn("failed to close event storage", "error", err)
		}
	})
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.done:
			// Drain whatever was enqueued before the stop.
			for {
				select {
				case ev := <-r.eventCh:
					r.write(ev)
				default:
					return
				}
			}
		case ev := <-r.eventCh:
			r.write(ev)
		}
	}
}

func (r *Recorder) write(ev *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, ev); err != nil {
		r.logger.Warn("failed to journal event",
			"kind", ev.Kind,
			"event_id", ev.ID,
			"error", err,
		)
	}
}
