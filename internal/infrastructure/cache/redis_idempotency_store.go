package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "ech:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis so that a
// retry routed to another instance is still answered from the first result
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	locker    *RedisLocker
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store with an existing Redis client
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		locker:    NewRedisLocker(client, keyPrefix+"lock:"),
		keyPrefix: keyPrefix,
	}
}

// Acquire locks key, waiting up to ttl for a concurrent holder
func (s *RedisIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	release, err := s.locker.Obtain(ctx, key, ttl, ttl)
	if errors.Is(err, ErrLockNotObtained) {
		return nil, shared.ErrIdempotencyKeyBusy
	}
	return release, err
}

// Load returns the response stored under key
func (s *RedisIdempotencyStore) Load(ctx context.Context, key string) (*shared.StoredResponse, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load idempotent response: %w", err)
	}

	var resp shared.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode idempotent response: %w", err)
	}
	return &resp, true, nil
}

// Save stores resp under key for ttl
func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, resp shared.StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save idempotent response: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
