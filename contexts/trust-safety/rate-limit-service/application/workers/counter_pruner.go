package workers

import (
	"context"
	"log/slog"

	application "soapbox/contexts/trust-safety/rate-limit-service/application"
	"soapbox/contexts/trust-safety/rate-limit-service/ports"
)

// CounterPruner deletes rate-limit counters past their expiry. Pruning
// is housekeeping only: checks already scope reads to the current
// window, so a late prune never changes a decision.
type CounterPruner struct {
	Store  ports.CounterStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (p CounterPruner) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	deleted, err := p.Store.DeleteExpired(ctx, p.Clock.Now().UTC())
	if err != nil {
		logger.Error("counter prune failed",
			"event", "rate_limit_prune_failed",
			"module", "trust-safety/rate-limit-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if deleted > 0 {
		logger.Info("expired counters pruned",
			"event", "rate_limit_pruned",
			"module", "trust-safety/rate-limit-service",
			"layer", "worker",
			"deleted_count", deleted,
		)
	}
	return nil
}
