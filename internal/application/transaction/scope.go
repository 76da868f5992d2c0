// Package transaction defines the unit of work shared by the application services.
package transaction

import (
	"context"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/document"
	"github.com/ech/backend/internal/domain/identity"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
)

// Scope runs fn inside one storage transaction. If fn returns an error the
// transaction is rolled back. A conflict (serialization failure, deadlock,
// duplicate sequence number) rolls back and runs fn again from scratch, so
// fn must not carry state between attempts.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories exposes every repository bound to the same transaction.
//
// Lock order inside one transaction is account, debt, project, then the
// sequence counters. Keeping that order prevents deadlocks between writers.
type Repositories interface {
	Accounts() ledger.AccountRepository
	Operations() ledger.OperationRepository
	History() ledger.HistoryRepository
	Sequences() shared.Sequencer
	Debts() debt.Repository
	Projects() project.Repository
	Revenues() project.RevenueRepository
	DeliveryNotes() document.DeliveryNoteRepository
	PurchaseOrders() document.PurchaseOrderRepository
	MissionOrders() document.MissionOrderRepository
	Users() identity.UserRepository
}
