package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when a key stayed locked for the whole wait
var ErrLockNotObtained = errors.New("lock not obtained")

const lockRetryInterval = 50 * time.Millisecond

// Locker hands out named mutual exclusion locks
type Locker interface {
	// Obtain locks key for at most ttl, waiting up to wait for a holder to
	// release it. The returned release func must be called.
	Obtain(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

// RedisLocker implements Locker with redislock so that every server
// instance sees the same locks
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
}

// NewRedisLocker creates a locker on an existing client
func NewRedisLocker(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "ech:lock:"
	}
	return &RedisLocker{
		client:    redislock.New(client),
		keyPrefix: keyPrefix,
	}
}

func retryStrategy(wait time.Duration) redislock.RetryStrategy {
	if wait <= 0 {
		return redislock.NoRetry()
	}
	return redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), int(wait/lockRetryInterval)+1)
}

// Obtain implements Locker
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, l.keyPrefix+key, ttl, &redislock.Options{
		RetryStrategy: retryStrategy(wait),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %q: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled here
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = lock.Release(releaseCtx)
		})
	}, nil
}

type memLock struct {
	ch   chan struct{}
	refs int
}

// InMemoryLocker implements Locker for a single process. The ttl is not
// enforced since a holder cannot outlive the process.
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*memLock
}

// NewInMemoryLocker creates an empty locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{locks: make(map[string]*memLock)}
}

func (l *InMemoryLocker) ref(key string) *memLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	ml, ok := l.locks[key]
	if !ok {
		ml = &memLock{ch: make(chan struct{}, 1)}
		l.locks[key] = ml
	}
	ml.refs++
	return ml
}

func (l *InMemoryLocker) unref(key string, ml *memLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ml.refs--
	if ml.refs == 0 {
		delete(l.locks, key)
	}
}

// Obtain implements Locker
func (l *InMemoryLocker) Obtain(ctx context.Context, key string, _, wait time.Duration) (func(), error) {
	ml := l.ref(key)

	select {
	case ml.ch <- struct{}{}:
	default:
		if wait <= 0 {
			l.unref(key, ml)
			return nil, ErrLockNotObtained
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case ml.ch <- struct{}{}:
		case <-timer.C:
			l.unref(key, ml)
			return nil, ErrLockNotObtained
		case <-ctx.Done():
			l.unref(key, ml)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ml.ch
			l.unref(key, ml)
		})
	}, nil
}

// Held returns the number of keys currently locked or waited on
func (l *InMemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*InMemoryLocker)(nil)
)
