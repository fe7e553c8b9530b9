package ports

import (
	"context"
	"time"

	"soapbox/contexts/trust-safety/rate-limit-service/domain/entities"
)

// CounterStore persists fixed-window attempt counters. Increment must
// be a single conditional write (insert-or-update with server-side
// arithmetic): two concurrent calls for the same key must both be
// counted.
type CounterStore interface {
	Increment(ctx context.Context, key entities.CounterKey, expiresAt time.Time) (int, error)
	Count(ctx context.Context, key entities.CounterKey) (int, error)
	DeleteIdentity(ctx context.Context, environment, purpose, identity string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Clock interface {
	Now() time.Time
}
