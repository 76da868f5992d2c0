package event

import (
	"slices"
	"sync"

	"github.com/ech/backend/internal/domain/shared"
)

// subscription binds a handler to the event types it receives. A nil types
// slice matches every event.
type subscription struct {
	handler shared.EventHandler
	types   []string
}

func (s subscription) matches(eventType string) bool {
	return s.types == nil || slices.Contains(s.types, eventType)
}

// subscriptions is the handler table of the bus. Handlers are returned in
// the order they subscribed, subscribing twice widens the event types.
type subscriptions struct {
	mu   sync.RWMutex
	list []subscription
}

func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(handler)
	if i < 0 {
		sub := subscription{handler: handler}
		if len(eventTypes) > 0 {
			sub.types = slices.Clone(eventTypes)
		}
		s.list = append(s.list, sub)
		return
	}
	switch {
	case s.list[i].types == nil:
	case len(eventTypes) == 0:
		s.list[i].types = nil
	default:
		for _, t := range eventTypes {
			if !slices.Contains(s.list[i].types, t) {
				s.list[i].types = append(s.list[i].types, t)
			}
		}
	}
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(handler); i >= 0 {
		s.list = slices.Delete(s.list, i, i+1)
	}
}

// handlersFor returns the handlers receiving eventType
func (s *subscriptions) handlersFor(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []shared.EventHandler
	for _, sub := range s.list {
		if sub.matches(eventType) {
			out = append(out, sub.handler)
		}
	}
	return out
}

func (s *subscriptions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *subscriptions) indexOf(handler shared.EventHandler) int {
	return slices.IndexFunc(s.list, func(sub subscription) bool { return sub.handler == handler })
}
