package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/events"
)

// Pruner deletes journal events older than the configured age.
type Pruner struct {
	storage events.Storage
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewPruner creates a pruner over the given storage. A maxAge of zero
// disables pruning.
func NewPruner(storage events.Storage, maxAge time.Duration) *Pruner {
	return &Pruner{
		storage: storage,
		maxAge:  maxAge,
		logger:  slog.Default().With("component", "events.retention"),
	}
}

// Prune deletes events older than the retention age and returns the number
// deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.maxAge <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-p.maxAge)
	deleted, err := p.storage.Prune(ctx, cutoff)
	if err != nil {
		p.logger.Error("event pruning failed", "error", err)
		return 0, err
	}

	if deleted > 0 {
		p.logger.Info("pruned journal events",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}
