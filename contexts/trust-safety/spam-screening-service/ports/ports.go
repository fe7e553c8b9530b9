package ports

import (
	"context"
	"time"
)

// ReputationChecker consults an external content-reputation API.
// Best-effort: callers swallow errors and carry on without the signal.
type ReputationChecker interface {
	CheckEmail(ctx context.Context, email string) (flagged bool, err error)
}

// RateGate is the scorer's view of the rate limiter. Check-only — the
// intake path owns recording attempts.
type RateGate interface {
	Allow(ctx context.Context, identity string) bool
}

type Clock interface {
	Now() time.Time
}
