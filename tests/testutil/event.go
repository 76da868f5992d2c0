package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// RecordingHandler keeps every event the bus delivers to it
type RecordingHandler struct {
	types []string

	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewRecordingHandler subscribes to types, or to every event when none given
func NewRecordingHandler(types ...string) *RecordingHandler {
	return &RecordingHandler{types: types}
}

func (h *RecordingHandler) EventTypes() []string { return h.types }

func (h *RecordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return nil
}

// Handled returns a copy of the events received so far
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.events...)
}

// WaitForEvents reports whether h received at least n events within timeout
func WaitForEvents(t *testing.T, h *RecordingHandler, n int, timeout time.Duration) bool {
	t.Helper()
	return assert.Eventually(t, func() bool { return len(h.Handled()) >= n }, timeout, 10*time.Millisecond)
}
