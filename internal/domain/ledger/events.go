package ledger

import (
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const (
	EventTypeCashOperationRecorded = "CashOperationRecorded"
	EventTypeCashBalanceAdjusted   = "CashBalanceAdjusted"

	AggregateTypeCashAccount = "CashAccount"
)

// CashOperationRecordedEvent is raised after a credit or debit committed
type CashOperationRecordedEvent struct {
	shared.BaseDomainEvent
	OperationID   uuid.UUID         `json:"operation_id"`
	OperationType OperationType     `json:"operation_type"`
	Amount        valueobject.Money `json:"amount"`
	BalanceBefore valueobject.Money `json:"balance_before"`
	BalanceAfter  valueobject.Money `json:"balance_after"`
	Description   string            `json:"description"`
	Reference     string            `json:"reference"`
	IncomeSource  IncomeSource      `json:"income_source,omitempty"`
	ProjectID     *uuid.UUID        `json:"project_id,omitempty"`
	ProjectName   string            `json:"project_name,omitempty"`
	Collaborator  string            `json:"collaborator,omitempty"`
	DebtID        *uuid.UUID        `json:"debt_id,omitempty"`
	UserID        *uuid.UUID        `json:"user_id,omitempty"`
	UserName      string            `json:"user_name,omitempty"`
}

// EventContext carries display names resolved while the transaction ran
type EventContext struct {
	ProjectName  string
	Collaborator string
	UserName     string
}

// NewCashOperationRecordedEvent creates the event for op
func NewCashOperationRecordedEvent(accountID uuid.UUID, op *CashOperation, reference string, ec EventContext) *CashOperationRecordedEvent {
	return &CashOperationRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashOperationRecorded, AggregateTypeCashAccount, accountID),
		OperationID:     op.ID,
		OperationType:   op.Type,
		Amount:          op.Amount,
		BalanceBefore:   op.BalanceBefore,
		BalanceAfter:    op.BalanceAfter,
		Description:     op.Description,
		Reference:       reference,
		IncomeSource:    op.IncomeSource,
		ProjectID:       op.ProjectID,
		ProjectName:     ec.ProjectName,
		Collaborator:    ec.Collaborator,
		DebtID:          op.DebtID,
		UserID:          op.UserID,
		UserName:        ec.UserName,
	}
}

// CashBalanceAdjustedEvent is raised after a manual balance correction committed
type CashBalanceAdjustedEvent struct {
	shared.BaseDomainEvent
	BalanceBefore valueobject.Money `json:"balance_before"`
	BalanceAfter  valueobject.Money `json:"balance_after"`
	Description   string            `json:"description"`
	Reference     string            `json:"reference"`
	UserID        *uuid.UUID        `json:"user_id,omitempty"`
	UserName      string            `json:"user_name,omitempty"`
}

// NewCashBalanceAdjustedEvent creates the event for an adjustment
func NewCashBalanceAdjustedEvent(accountID uuid.UUID, entry *HistoryEntry, userName string) *CashBalanceAdjustedEvent {
	return &CashBalanceAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashBalanceAdjusted, AggregateTypeCashAccount, accountID),
		BalanceBefore:   entry.BalanceBefore,
		BalanceAfter:    entry.BalanceAfter,
		Description:     entry.Description,
		Reference:       entry.Reference,
		UserID:          entry.UserID,
		UserName:        userName,
	}
}
