package ledger

import (
	"fmt"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CashAccount is the single global cash register. Its balance only moves
// through ApplyCredit, ApplyDebit and Adjust, each of which returns the
// before/after snapshot that the caller persists alongside the movement.
type CashAccount struct {
	ID        uuid.UUID
	Balance   valueobject.Money
	UpdatedAt time.Time
	Version   int
}

// NewCashAccount creates an empty account
func NewCashAccount() *CashAccount {
	return &CashAccount{
		ID:        uuid.New(),
		Balance:   valueobject.Zero(),
		UpdatedAt: time.Now(),
		Version:   1,
	}
}

// Snapshot is the balance pair captured by one movement
type Snapshot struct {
	Before valueobject.Money
	After  valueobject.Money
}

// Delta returns After - Before
func (s Snapshot) Delta() valueobject.Money {
	return s.After.Sub(s.Before)
}

func (a *CashAccount) credit(amount valueobject.Money) (Snapshot, error) {
	if !amount.IsPositive() {
		return Snapshot{}, shared.NewValidationError("Amount must be greater than zero")
	}
	snap := Snapshot{Before: a.Balance, After: a.Balance.Add(amount)}
	a.apply(snap.After)
	return snap, nil
}

func (a *CashAccount) debit(amount valueobject.Money) (Snapshot, error) {
	if !amount.IsPositive() {
		return Snapshot{}, shared.NewValidationError("Amount must be greater than zero")
	}
	if a.Balance.LessThan(amount) {
		return Snapshot{}, shared.NewDomainError(shared.CodeInsufficientFunds,
			fmt.Sprintf("Insufficient cash balance: available %s, requested %s", a.Balance, amount))
	}
	snap := Snapshot{Before: a.Balance, After: a.Balance.Sub(amount)}
	a.apply(snap.After)
	return snap, nil
}

// Adjust sets the balance to target. Used for manual corrections only.
func (a *CashAccount) Adjust(target valueobject.Money) (Snapshot, error) {
	if target.IsNegative() {
		return Snapshot{}, shared.NewValidationError("Balance cannot be negative")
	}
	snap := Snapshot{Before: a.Balance, After: target}
	a.apply(target)
	return snap, nil
}

// CanCover reports whether the balance is at least amount
func (a *CashAccount) CanCover(amount valueobject.Money) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

func (a *CashAccount) apply(balance valueobject.Money) {
	a.Balance = balance
	a.UpdatedAt = time.Now()
	a.Version++
}
