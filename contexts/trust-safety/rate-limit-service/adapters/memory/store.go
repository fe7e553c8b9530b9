package memory

import (
	"context"
	"sync"
	"time"

	"soapbox/contexts/trust-safety/rate-limit-service/domain/entities"
)

type counterEntry struct {
	attempts  int
	expiresAt time.Time
}

// Store mirrors the postgres counter semantics for tests: increments
// are atomic under the store lock.
type Store struct {
	mu       sync.Mutex
	counters map[entities.CounterKey]counterEntry

	// FailWith, when set, makes every call error so fail-open paths
	// can be exercised.
	FailWith error
}

func NewStore() *Store {
	return &Store{counters: make(map[entities.CounterKey]counterEntry)}
}

func (s *Store) Increment(_ context.Context, key entities.CounterKey, expiresAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return 0, s.FailWith
	}
	entry := s.counters[key]
	entry.attempts++
	entry.expiresAt = expiresAt
	s.counters[key] = entry
	return entry.attempts, nil
}

func (s *Store) Count(_ context.Context, key entities.CounterKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return 0, s.FailWith
	}
	return s.counters[key].attempts, nil
}

func (s *Store) DeleteIdentity(_ context.Context, environment, purpose, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	for key := range s.counters {
		if key.Environment == environment && key.Purpose == purpose && key.Identity == identity {
			delete(s.counters, key)
		}
	}
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return 0, s.FailWith
	}
	var deleted int64
	for key, entry := range s.counters {
		if !entry.expiresAt.After(now) {
			delete(s.counters, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
