package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ech/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultBufferSize is the queue length used when none is configured
const DefaultBufferSize = 256

// ErrBusStopped is returned by Publish once Stop was called
var ErrBusStopped = fmt.Errorf("event bus stopped")

// envelope keeps the publisher's context values (request id, user) without
// its cancellation, the request is usually finished when the event is handled.
type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus implements EventBus with an in-process bounded queue.
// Publish never blocks: when the queue is full the event is dropped and a
// warning is logged. A single worker dispatches events in publish order.
type InMemoryEventBus struct {
	handlers *subscriptions
	logger   *zap.Logger
	queue    chan envelope
	running  atomic.Bool
	stopped  atomic.Bool
	dropped  atomic.Int64
	mu       sync.RWMutex
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, bufferSize int) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &InMemoryEventBus{
		handlers: &subscriptions{},
		logger:   logger.Named("event_bus"),
		queue:    make(chan envelope, bufferSize),
		done:     make(chan struct{}),
	}
}

// Publish enqueues events for asynchronous delivery
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped.Load() {
		return ErrBusStopped
	}

	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		default:
			b.dropped.Add(1)
			b.logger.Warn("event queue full, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Int("capacity", cap(b.queue)),
			)
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.handlers.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.handlers.remove(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start launches the dispatch worker. Events published before Start wait
// in the queue.
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	b.wg.Add(1)
	go b.run()
	b.logger.Info("event bus started",
		zap.Int("buffer_size", cap(b.queue)),
		zap.Int("handlers", b.handlers.len()),
	)
	return nil
}

// Stop refuses new events and waits for queued ones to be delivered, or
// for ctx to expire.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped.Swap(true) {
		b.mu.Unlock()
		return nil
	}
	close(b.queue)
	b.mu.Unlock()

	if !b.running.Load() {
		b.logger.Info("event bus stopped", zap.Int("undelivered", len(b.queue)))
		return nil
	}

	go func() {
		b.wg.Wait()
		close(b.done)
	}()
	select {
	case <-b.done:
		b.logger.Info("event bus stopped", zap.Int64("dropped", b.dropped.Load()))
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out", zap.Int("pending", len(b.queue)))
		return ctx.Err()
	}
}

// Dropped returns how many events were discarded because the queue was full
func (b *InMemoryEventBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *InMemoryEventBus) run() {
	defer b.wg.Done()
	for env := range b.queue {
		b.deliver(env)
	}
}

func (b *InMemoryEventBus) deliver(env envelope) {
	for _, handler := range b.handlers.handlersFor(env.event.EventType()) {
		if err := b.dispatchToHandler(env.ctx, handler, env.event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", env.event.EventType()),
				zap.String("event_id", env.event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
