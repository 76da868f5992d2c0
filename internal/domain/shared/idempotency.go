package shared

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyKeyBusy is returned by IdempotencyStore.Acquire when another
// request holding the same key is still running.
var ErrIdempotencyKeyBusy = errors.New("idempotency key is being processed")

// StoredResponse is the replayable outcome of a completed request
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers the response produced for a client supplied
// Idempotency-Key so that a retried financial request is answered without
// being applied twice.
type IdempotencyStore interface {
	// Acquire serialises requests sharing key. The returned release func must be called.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)

	// Load returns the stored response for key, if any
	Load(ctx context.Context, key string) (*StoredResponse, bool, error)

	// Save stores resp under key for ttl
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a response is replayed for the same key
	TTL time.Duration

	// LockTTL bounds how long a key stays locked if the holder dies
	LockTTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		LockTTL: 30 * time.Second,
		Enabled: true,
	}
}
