// Package cache holds the Redis backed stores shared by server instances:
// request idempotency and named locks. Each store has an in-memory
// counterpart used when Redis is disabled.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient opens a client for cfg and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Stores groups the stores built by Factory
type Stores struct {
	Idempotency shared.IdempotencyStore
	Locker      Locker
	// Redis is nil when running on in-memory stores
	Redis *redis.Client
}

// Close releases every store and the Redis connection
func (s *Stores) Close() error {
	if s.Idempotency != nil {
		_ = s.Idempotency.Close()
	}
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

// Factory creates stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores instead of failing startup. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemory builds process local stores
func (f *Factory) InMemory() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      NewInMemoryLocker(),
	}
}

// Create connects to Redis when enabled and builds the shared stores.
// In-memory stores do not coordinate across instances, so a multi
// instance deployment must run with Redis.
func (f *Factory) Create(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory stores")
		return f.InMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, err
		}
		f.logger.Warn("redis unavailable, falling back to in-memory stores",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return f.InMemory(), nil
	}

	f.logger.Info("using redis stores", zap.String("addr", f.redisConfig.Addr()))
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Locker:      NewRedisLocker(client, ""),
		Redis:       client,
	}, nil
}
