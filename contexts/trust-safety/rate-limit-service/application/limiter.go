package application

import (
	"context"
	"log/slog"
	"time"

	"soapbox/contexts/trust-safety/rate-limit-service/domain/entities"
	"soapbox/contexts/trust-safety/rate-limit-service/ports"
)

// expiryBuffer keeps counters around slightly past their window so a
// check racing the pruner never resurrects a fresh counter at zero.
const expiryBuffer = 60 * time.Second

// Limiter is a fixed-window rate limiter over a shared transactional
// store. All requests inside the same window share one counter
// regardless of arrival order.
type Limiter struct {
	Store       ports.CounterStore
	Clock       ports.Clock
	Environment string
	Logger      *slog.Logger
}

// Check reports whether another attempt is allowed in the current
// window. It never errors: storage failures fail open.
func (l Limiter) Check(ctx context.Context, purpose, identity string, maxAttempts int, window time.Duration) entities.Decision {
	logger := ResolveLogger(l.Logger)
	now := l.Clock.Now().UTC()
	key := l.key(purpose, identity, now, window)

	count, err := l.Store.Count(ctx, key)
	if err != nil {
		logger.Warn("rate limit check failed open",
			"event", "rate_limit_fail_open",
			"module", "trust-safety/rate-limit-service",
			"layer", "application",
			"purpose", purpose,
			"error", err.Error(),
		)
		return entities.Decision{Allowed: true, Remaining: maxAttempts, ResetIn: resetIn(now, key, window)}
	}

	remaining := maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return entities.Decision{
		Allowed:   count < maxAttempts,
		Remaining: remaining,
		ResetIn:   resetIn(now, key, window),
	}
}

// Record counts one attempt in the current window. The store performs
// a single atomic insert-or-increment; failures are logged and
// swallowed.
func (l Limiter) Record(ctx context.Context, purpose, identity string, window time.Duration) {
	logger := ResolveLogger(l.Logger)
	now := l.Clock.Now().UTC()
	key := l.key(purpose, identity, now, window)
	expiresAt := time.Unix(key.WindowStart, 0).UTC().Add(window + expiryBuffer)

	if _, err := l.Store.Increment(ctx, key, expiresAt); err != nil {
		logger.Warn("rate limit record failed open",
			"event", "rate_limit_fail_open",
			"module", "trust-safety/rate-limit-service",
			"layer", "application",
			"purpose", purpose,
			"error", err.Error(),
		)
	}
}

// Reset clears every stored window for the identity and purpose. Rows
// are keyed explicitly, so this is deterministic rather than a guess
// over common window sizes.
func (l Limiter) Reset(ctx context.Context, purpose, identity string) error {
	return l.Store.DeleteIdentity(ctx, l.Environment, purpose, identity)
}

func (l Limiter) key(purpose, identity string, now time.Time, window time.Duration) entities.CounterKey {
	windowSecs := int64(window / time.Second)
	if windowSecs <= 0 {
		windowSecs = 1
	}
	return entities.CounterKey{
		Environment: l.Environment,
		Purpose:     purpose,
		Identity:    identity,
		WindowStart: now.Unix() / windowSecs * windowSecs,
	}
}

func resetIn(now time.Time, key entities.CounterKey, window time.Duration) time.Duration {
	windowEnd := time.Unix(key.WindowStart, 0).UTC().Add(window)
	reset := windowEnd.Sub(now)
	if reset < 0 {
		return 0
	}
	return reset
}
