package ledger

import (
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SystemUserName is shown when a movement has no acting user
const SystemUserName = "Système"

// PaymentInput carries the optional payment attributes of a movement
type PaymentInput struct {
	Mode         string
	SupplierName string
	Bank         string
	ChequeNumber string
}

func (p PaymentInput) toDomain() (valueobject.PaymentDetails, error) {
	return valueobject.NewPaymentDetails(valueobject.PaymentMode(p.Mode), p.SupplierName, p.Bank, p.ChequeNumber)
}

// CreditInput is an encaissement request
type CreditInput struct {
	Amount       valueobject.Money
	Date         time.Time
	IncomeSource ledger.IncomeSource
	Observation  string
	ProjectID    *uuid.UUID
	Description  string
	Payment      PaymentInput
	ProofKey     string
	CreditorName string
	UserID       *uuid.UUID
}

// DebitInput is a decaissement request
type DebitInput struct {
	Amount      valueobject.Money
	Date        time.Time
	ProjectID   *uuid.UUID
	Description string
	Payment     PaymentInput
	ProofKey    string
	UserID      *uuid.UUID
}

// CreateDebtInput opens a debt and credits the borrowed cash
type CreateDebtInput struct {
	CreditorName string
	Amount       valueobject.Money
	Date         time.Time
	ProjectID    *uuid.UUID
	Description  string
	Payment      PaymentInput
	UserID       *uuid.UUID
}

// PayDebtInput repays part or all of a debt from the register
type PayDebtInput struct {
	DebtID      uuid.UUID
	Amount      valueobject.Money
	Date        time.Time
	Description string
	Payment     PaymentInput
	UserID      *uuid.UUID
}

// AdjustInput sets the balance to an explicit value
type AdjustInput struct {
	Target      valueobject.Money
	Description string
	UserID      *uuid.UUID
}

// DebtSummary describes a debt opened by a credit
type DebtSummary struct {
	ID           uuid.UUID         `json:"id"`
	CreditorName string            `json:"creditor_name"`
	Amount       valueobject.Money `json:"amount"`
	Status       debt.Status       `json:"status"`
}

// MovementResult is returned by every successful balance mutation
type MovementResult struct {
	OperationID   *uuid.UUID        `json:"operation_id,omitempty"`
	HistoryID     uuid.UUID         `json:"history_id"`
	Reference     string            `json:"history_numero"`
	BalanceBefore valueobject.Money `json:"balance_before"`
	NewBalance    valueobject.Money `json:"new_balance"`
	Date          time.Time         `json:"date"`
	Debt          *DebtSummary      `json:"debt,omitempty"`
}

// PayDebtResult is returned by PayDebt
type PayDebtResult struct {
	MovementResult
	PaymentID uuid.UUID         `json:"payment_id"`
	DebtID    uuid.UUID         `json:"debt_id"`
	Remaining valueobject.Money `json:"remaining_amount"`
	Status    debt.Status       `json:"status"`
}

// BalanceView is the current state of the register
type BalanceView struct {
	Balance   valueobject.Money `json:"balance"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// OperationView is a cash operation with resolved names
type OperationView struct {
	ID             uuid.UUID               `json:"id"`
	Type           ledger.OperationType    `json:"operation_type"`
	TypeLabel      string                  `json:"operation_type_label"`
	Amount         valueobject.Money       `json:"amount"`
	PaymentMode    valueobject.PaymentMode `json:"payment_mode,omitempty"`
	SupplierName   string                  `json:"supplier_name,omitempty"`
	Bank           string                  `json:"bank,omitempty"`
	ChequeNumber   string                  `json:"cheque_number,omitempty"`
	IncomeSource   ledger.IncomeSource     `json:"income_source,omitempty"`
	Observation    string                  `json:"observation,omitempty"`
	ByCollaborator bool                    `json:"by_collaborator"`
	ProjectID      *uuid.UUID              `json:"project_id,omitempty"`
	ProjectName    string                  `json:"project_name,omitempty"`
	DebtID         *uuid.UUID              `json:"debt_id,omitempty"`
	Description    string                  `json:"description"`
	ProofKey       string                  `json:"proof_key,omitempty"`
	BalanceBefore  valueobject.Money       `json:"balance_before"`
	BalanceAfter   valueobject.Money       `json:"balance_after"`
	Date           time.Time               `json:"date"`
	CreatedAt      time.Time               `json:"created_at"`
	UserID         *uuid.UUID              `json:"user_id,omitempty"`
	UserName       string                  `json:"user_name"`
}

// HistoryView is an audit entry with resolved names and operation details
type HistoryView struct {
	ID            uuid.UUID            `json:"id"`
	Reference     string               `json:"numero"`
	Action        ledger.HistoryAction `json:"action"`
	ActionLabel   string               `json:"action_label"`
	Amount        valueobject.Money    `json:"amount"`
	BalanceBefore valueobject.Money    `json:"balance_before"`
	BalanceAfter  valueobject.Money    `json:"balance_after"`
	ProjectID     *uuid.UUID           `json:"project_id,omitempty"`
	ProjectName   string               `json:"project_name,omitempty"`
	UserID        *uuid.UUID           `json:"user_id,omitempty"`
	UserName      string               `json:"user_name"`
	Description   string               `json:"description"`
	Date          time.Time            `json:"date"`
	CreatedAt     time.Time            `json:"created_at"`
	Operation     *OperationView       `json:"operation,omitempty"`
}

// ProjectTotals sums the aggregates of all projects
type ProjectTotals struct {
	Budget       valueobject.Money `json:"total_budget"`
	Expenditures valueobject.Money `json:"total_expenditures"`
	Receivables  valueobject.Money `json:"total_receivables"`
	Profit       valueobject.Money `json:"total_profit"`
}

// DashboardStats is the home screen summary
type DashboardStats struct {
	Balance          valueobject.Money `json:"balance"`
	ProjectCount     int64             `json:"project_count"`
	ActiveDebts      int64             `json:"active_debts"`
	CompletedDebts   int64             `json:"completed_debts"`
	TotalCredits     valueobject.Money `json:"total_credits"`
	TotalDebits      valueobject.Money `json:"total_debits"`
	Projects         ProjectTotals     `json:"projects"`
	RecentOperations []OperationView   `json:"recent_operations"`
}

func toOperationView(op *ledger.CashOperation) OperationView {
	return OperationView{
		ID:             op.ID,
		Type:           op.Type,
		TypeLabel:      op.TypeLabel(),
		Amount:         op.Amount,
		PaymentMode:    op.Payment.Mode,
		SupplierName:   op.Payment.SupplierName,
		Bank:           op.Payment.Bank,
		ChequeNumber:   op.Payment.ChequeNumber,
		IncomeSource:   op.IncomeSource,
		Observation:    op.Observation,
		ByCollaborator: op.ByCollaborator,
		ProjectID:      op.ProjectID,
		DebtID:         op.DebtID,
		Description:    op.Description,
		ProofKey:       op.ProofKey,
		BalanceBefore:  op.BalanceBefore,
		BalanceAfter:   op.BalanceAfter,
		Date:           op.EffectiveDate,
		CreatedAt:      op.CreatedAt,
		UserID:         op.UserID,
		UserName:       SystemUserName,
	}
}

func toHistoryView(e *ledger.HistoryEntry) HistoryView {
	return HistoryView{
		ID:            e.ID,
		Reference:     e.Reference,
		Action:        e.Action,
		ActionLabel:   e.Action.Label(),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		ProjectID:     e.ProjectID,
		UserID:        e.UserID,
		UserName:      SystemUserName,
		Description:   e.Description,
		Date:          e.EffectiveDate,
		CreatedAt:     e.CreatedAt,
	}
}
