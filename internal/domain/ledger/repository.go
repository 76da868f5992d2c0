package ledger

import (
	"context"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AccountRepository persists the singleton cash account
type AccountRepository interface {
	// Ensure creates the account row if it does not exist yet
	Ensure(ctx context.Context) (*CashAccount, error)

	// Get reads the account without locking
	Get(ctx context.Context) (*CashAccount, error)

	// Lock reads the account with a row lock held until the surrounding
	// transaction ends, creating it on first use
	Lock(ctx context.Context) (*CashAccount, error)

	Save(ctx context.Context, account *CashAccount) error
}

// OperationFilter narrows operation listings
type OperationFilter struct {
	shared.Filter
	Type         OperationType
	ProjectID    *uuid.UUID
	DebtID       *uuid.UUID
	IncomeSource IncomeSource
	DateFrom     *time.Time
	DateTo       *time.Time
}

// Totals aggregates all cash movements
type Totals struct {
	Credits valueobject.Money
	Debits  valueobject.Money
}

// OperationRepository persists cash operations
type OperationRepository interface {
	Create(ctx context.Context, op *CashOperation) error

	// SetDebt stores the one-time debt backfill
	SetDebt(ctx context.Context, operationID, debtID uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*CashOperation, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*CashOperation, error)
	FindAll(ctx context.Context, filter OperationFilter) ([]CashOperation, int64, error)
	Recent(ctx context.Context, limit int) ([]CashOperation, error)
	Totals(ctx context.Context) (Totals, error)
	ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error)
}

// HistoryFilter holds every supported history query parameter
type HistoryFilter struct {
	shared.Filter
	ProjectID      *uuid.UUID
	UserID         *uuid.UUID
	Action         HistoryAction
	DateFrom       *time.Time
	DateTo         *time.Time
	AmountMin      *valueobject.Money
	AmountMax      *valueobject.Money
	OperationType  OperationType
	PaymentMode    valueobject.PaymentMode
	IncomeSource   IncomeSource
	Supplier       string
	Bank           string
	ChequeNumber   string
	ByCollaborator *bool
	DebtID         *uuid.UUID
	Reference      string
}

// NeedsOperationJoin reports whether the filter touches operation columns
func (f HistoryFilter) NeedsOperationJoin() bool {
	return f.OperationType != "" || f.PaymentMode != "" || f.IncomeSource != "" ||
		f.Supplier != "" || f.Bank != "" || f.ChequeNumber != "" ||
		f.ByCollaborator != nil || f.DebtID != nil || f.Search != ""
}

// HistoryRepository persists the audit trail. There is no update or delete.
type HistoryRepository interface {
	Create(ctx context.Context, entry *HistoryEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	FindByOperation(ctx context.Context, operationID uuid.UUID) (*HistoryEntry, error)
	FindAll(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int64, error)

	// References returns every reference number in creation order
	References(ctx context.Context) ([]string, error)
}
