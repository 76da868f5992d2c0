package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore invalidates tokens before they expire. Logout revokes a
// single token by its JTI, deactivation or a password change revokes every
// token a user was issued up to now.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	// Revoked reports whether the token jti, issued to userID at issuedAt,
	// was revoked by either mechanism. An empty jti checks the user only.
	Revoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error)
}

// IsRevoked checks claims against store
func IsRevoked(ctx context.Context, store RevocationStore, claims *Claims) (bool, error) {
	return store.Revoked(ctx, claims.ID, claims.UserID, claims.IssuedAtTime())
}

const revokedKeyPrefix = "ech:auth:revoked:"

// RedisRevocationStore keeps revocations in Redis so every instance sees them
type RedisRevocationStore struct {
	client redis.UniversalClient
}

// NewRedisRevocationStore uses the shared client
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeUser records the revocation time, kept as long as a refresh token lives
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedKeyPrefix+"user:"+userID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// Revoked reads both keys in one round trip
func (s *RedisRevocationStore) Revoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	vals, err := s.client.MGet(ctx, revokedKeyPrefix+"jti:"+jti, revokedKeyPrefix+"user:"+userID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	if jti != "" && vals[0] != nil {
		return true, nil
	}
	raw, ok := vals[1].(string)
	if !ok {
		return false, nil
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation time %q: %w", raw, err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

// MemoryRevocationStore serves a single instance without Redis. Revocations
// do not survive a restart.
type MemoryRevocationStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // jti -> expiry
	users  map[string]time.Time // user id -> revocation time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		tokens: make(map[string]time.Time),
		users:  make(map[string]time.Time),
	}
}

func (s *MemoryRevocationStore) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = time.Now()
	return nil
}

func (s *MemoryRevocationStore) Revoked(_ context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.tokens[jti]; ok && jti != "" {
		if time.Now().Before(expiry) {
			return true, nil
		}
		delete(s.tokens, jti)
	}
	at, ok := s.users[userID]
	return ok && !issuedAt.After(at), nil
}

var (
	_ RevocationStore = (*RedisRevocationStore)(nil)
	_ RevocationStore = (*MemoryRevocationStore)(nil)
)
