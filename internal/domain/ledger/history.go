package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// HistoryAction classifies an audit entry
type HistoryAction string

const (
	ActionCredit            HistoryAction = "credit"
	ActionDebit             HistoryAction = "debit"
	ActionBalanceAdjustment HistoryAction = "balance_adjustment"
)

// IsValid checks if the action is known
func (a HistoryAction) IsValid() bool {
	switch a {
	case ActionCredit, ActionDebit, ActionBalanceAdjustment:
		return true
	}
	return false
}

// Label returns the French label of the action
func (a HistoryAction) Label() string {
	switch a {
	case ActionCredit:
		return "Encaissement"
	case ActionDebit:
		return "Décaissement"
	case ActionBalanceAdjustment:
		return "Ajustement de solde"
	}
	return string(a)
}

// HistorySequenceScope is the counter scope used for audit reference numbers
const HistorySequenceScope = "history"

// DefaultReferencePrefix prefixes every audit reference number
const DefaultReferencePrefix = "OP"

// HistoryEntry is one append-only line of the audit trail
type HistoryEntry struct {
	ID            uuid.UUID
	Reference     string
	Action        HistoryAction
	Amount        valueobject.Money
	BalanceBefore valueobject.Money
	BalanceAfter  valueobject.Money
	OperationID   *uuid.UUID
	ProjectID     *uuid.UUID
	UserID        *uuid.UUID
	Description   string
	EffectiveDate time.Time
	CreatedAt     time.Time
}

// NewOperationEntry builds the audit line of a cash operation
func NewOperationEntry(reference string, op *CashOperation) *HistoryEntry {
	action := ActionCredit
	if op.Type == OperationDebit {
		action = ActionDebit
	}
	opID := op.ID
	return &HistoryEntry{
		ID:            uuid.New(),
		Reference:     reference,
		Action:        action,
		Amount:        op.Amount,
		BalanceBefore: op.BalanceBefore,
		BalanceAfter:  op.BalanceAfter,
		OperationID:   &opID,
		ProjectID:     op.ProjectID,
		UserID:        op.UserID,
		Description:   op.Description,
		EffectiveDate: op.EffectiveDate,
		CreatedAt:     time.Now(),
	}
}

// NewAdjustmentEntry builds the audit line of a manual balance correction.
// Amount is the absolute size of the correction.
func NewAdjustmentEntry(reference string, snap Snapshot, userID *uuid.UUID, description string, at time.Time) *HistoryEntry {
	delta := snap.Delta()
	if delta.IsNegative() {
		delta = delta.Neg()
	}
	return &HistoryEntry{
		ID:            uuid.New(),
		Reference:     reference,
		Action:        ActionBalanceAdjustment,
		Amount:        delta,
		BalanceBefore: snap.Before,
		BalanceAfter:  snap.After,
		UserID:        userID,
		Description:   description,
		EffectiveDate: at,
		CreatedAt:     time.Now(),
	}
}

// FormatReference renders n as PREFIX followed by at least three zero padded digits
func FormatReference(prefix string, n int64) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// ParseReference extracts the sequence number from a reference built by FormatReference
func ParseReference(prefix, ref string) (int64, error) {
	digits, ok := strings.CutPrefix(ref, prefix)
	if !ok || digits == "" {
		return 0, shared.NewValidationError(fmt.Sprintf("reference %q does not start with %q", ref, prefix))
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 1 {
		return 0, shared.NewValidationError(fmt.Sprintf("reference %q has no sequence number", ref))
	}
	return n, nil
}
