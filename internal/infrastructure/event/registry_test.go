package event

import (
	"context"
	"testing"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

type namedHandler struct{ name string }

func (h *namedHandler) Handle(context.Context, shared.DomainEvent) error { return nil }
func (h *namedHandler) EventTypes() []string                           { return nil }

func TestSubscriptions(t *testing.T) {
	cash := &namedHandler{"cash"}
	debts := &namedHandler{"debts"}
	audit := &namedHandler{"audit"}

	t.Run("matches by type in subscription order", func(t *testing.T) {
		var s subscriptions
		s.add(cash, "CashOperationRecorded", "CashBalanceAdjusted")
		s.add(audit)
		s.add(debts, "DebtSettled")

		assert.Equal(t, []shared.EventHandler{cash, audit}, s.handlersFor("CashOperationRecorded"))
		assert.Equal(t, []shared.EventHandler{audit, debts}, s.handlersFor("DebtSettled"))
		assert.Equal(t, []shared.EventHandler{audit}, s.handlersFor("RevenueReversed"))
		assert.Equal(t, 3, s.len())
	})

	t.Run("subscribing again widens the types", func(t *testing.T) {
		var s subscriptions
		s.add(cash, "CashOperationRecorded")
		s.add(cash, "CashBalanceAdjusted", "CashOperationRecorded")

		assert.Equal(t, 1, s.len())
		assert.Len(t, s.handlersFor("CashBalanceAdjusted"), 1)
		assert.Len(t, s.handlersFor("CashOperationRecorded"), 1)

		s.add(cash)
		assert.Len(t, s.handlersFor("DebtSettled"), 1)
		s.add(cash, "DebtCreated")
		assert.Len(t, s.handlersFor("UserCreated"), 1, "a wildcard stays a wildcard")
	})

	t.Run("an empty type list is a wildcard", func(t *testing.T) {
		var s subscriptions
		s.add(audit, []string{}...)
		assert.Len(t, s.handlersFor("ProjectCreated"), 1)
	})

	t.Run("remove", func(t *testing.T) {
		var s subscriptions
		s.add(cash, "CashOperationRecorded")
		s.add(debts, "CashOperationRecorded")
		s.add(audit)

		s.remove(cash)
		s.remove(audit)
		s.remove(&namedHandler{"unknown"})

		assert.Equal(t, []shared.EventHandler{debts}, s.handlersFor("CashOperationRecorded"))
		assert.Empty(t, s.handlersFor("DebtSettled"))
	})
}
