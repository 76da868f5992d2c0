package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ech/backend/internal/domain/shared"
)

// expired entries are swept on write at most this often
const sweepInterval = 5 * time.Minute

type storedEntry struct {
	resp    shared.StoredResponse
	expires time.Time
}

// InMemoryIdempotencyStore keeps replayable responses in process memory.
// Retries only reach the same response when they hit the same instance.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	responses map[string]storedEntry
	lastSweep time.Time
	locker    *InMemoryLocker
	now       func() time.Time
}

// NewInMemoryIdempotencyStore creates an empty store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		responses: map[string]storedEntry{},
		locker:    NewInMemoryLocker(),
		now:       time.Now,
	}
}

// Acquire locks key, waiting up to ttl for a concurrent holder
func (s *InMemoryIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	release, err := s.locker.Obtain(ctx, key, ttl, ttl)
	if errors.Is(err, ErrLockNotObtained) {
		return nil, shared.ErrIdempotencyKeyBusy
	}
	return release, err
}

// Load returns a copy of the response stored under key unless it expired
func (s *InMemoryIdempotencyStore) Load(_ context.Context, key string) (*shared.StoredResponse, bool, error) {
	s.mu.RLock()
	e, ok := s.responses[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expires) {
		return nil, false, nil
	}
	resp := e.resp
	resp.Body = slices.Clone(resp.Body)
	return &resp, true, nil
}

// Save stores a copy of resp under key for ttl
func (s *InMemoryIdempotencyStore) Save(_ context.Context, key string, resp shared.StoredResponse, ttl time.Duration) error {
	resp.Body = slices.Clone(resp.Body)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweepLocked(now)
	}
	s.responses[key] = storedEntry{resp: resp, expires: now.Add(ttl)}
	return nil
}

// sweepLocked drops the expired responses. s.mu must be held.
func (s *InMemoryIdempotencyStore) sweepLocked(now time.Time) {
	for key, e := range s.responses {
		if !now.Before(e.expires) {
			delete(s.responses, key)
		}
	}
	s.lastSweep = now
}

// Size returns the number of stored responses, expired ones included until
// the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.responses)
}

// Close forgets every stored response
func (s *InMemoryIdempotencyStore) Close() error {
	s.mu.Lock()
	clear(s.responses)
	s.mu.Unlock()
	return nil
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
