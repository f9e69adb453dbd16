package source

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/ganymede/pkg/pool"
)

// defaultDebounce is how long the watcher waits after the last write event
// before re-reading the file, so editors that write in several chunks do not
// trigger reload storms.
const defaultDebounce = 100 * time.Millisecond

// Watcher watches a proxy-list file and feeds newly appearing descriptors
// into the record store. Descriptors already present in the store are
// skipped; entries are never removed, matching the pool's append-only
// lifecycle.
type Watcher struct {
	path     string
	store    *pool.Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	// OnAdd, if set, is invoked for every entry added from the file.
	// Without it, new entries simply wait for the next health tick.
	OnAdd func(*pool.Entry)

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the proxy-list file at path, feeding new
// descriptors into store. Call Start to begin watching.
func NewWatcher(path string, store *pool.Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Watch the directory rather than the file itself so that atomic
	// rename-over-save (the common editor pattern) keeps working.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	return &Watcher{
		path:     path,
		store:    store,
		watcher:  fsw,
		debounce: defaultDebounce,
		logger:   slog.Default().With("component", "pool.source"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.run()
}

// Stop stops the watcher. It is safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		<-w.doneCh
	})
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	w.logger.Info("proxy list watcher started", "path", w.path)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("proxy list watcher error", "error", err)
		}
	}
}

// scheduleReload debounces bursts of file events into a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	descriptors, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("failed to reload proxy list", "path", w.path, "error", err)
		return
	}

	added := 0
	for _, d := range descriptors {
		entry, ok := w.store.Add(d)
		if !ok {
			continue
		}
		added++
		if w.OnAdd != nil {
			w.OnAdd(entry)
		}
	}

	if added > 0 {
		w.logger.Info("proxy list reloaded",
			"path", w.path,
			"new_proxies", added,
			"total", w.store.Len(),
		)
	}
}
