package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/api/fallback"
)

// Pruner deletes fallback entries older than the retention period.
type Pruner struct {
	cache     *fallback.Cache
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(cache *fallback.Cache, retention time.Duration, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		cache:     cache,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// PruneOnce removes entries stored more than the retention period ago.
func (p *Pruner) PruneOnce(ctx context.Context) (int, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	n, err := p.cache.Prune(ctx, p.now().Add(-p.retention))
	if err != nil {
		p.logger.Error("Failed to prune fallback cache", "error", err)
		return n, err
	}
	if n > 0 {
		p.logger.Info("Pruned fallback cache", "removed", n, "retention", p.retention)
	}
	return n, nil
}
