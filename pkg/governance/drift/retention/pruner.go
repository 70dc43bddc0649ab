package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/minerva/pkg/governance/drift"
)

// Config controls drift result retention.
type Config struct {
	// RetentionDays is how long drift results are kept. Zero disables
	// pruning entirely.
	RetentionDays int

	// PruneSchedule is a standard cron expression for scheduled pruning
	// (e.g. "0 3 * * *" for daily at 3 AM). Empty disables the scheduler.
	PruneSchedule string
}

// Pruner deletes drift results older than the retention window.
type Pruner struct {
	store  drift.Storage
	config *Config
	logger *slog.Logger
}

// NewPruner creates a pruner over the given drift store.
func NewPruner(store drift.Storage, config *Config) *Pruner {
	if config == nil {
		config = &Config{}
	}
	return &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "drift.retention"),
	}
}

// Prune deletes drift results older than the retention window and returns
// the number of records removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)

	deleted, err := p.store.PruneResults(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune drift results before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted > 0 {
		p.logger.Info("drift results pruned",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}
	return deleted, nil
}
