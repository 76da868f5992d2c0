package ledger

import (
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OperationType is the direction of a cash movement
type OperationType string

const (
	OperationCredit OperationType = "credit"
	OperationDebit  OperationType = "debit"
)

// IsValid checks if the operation type is known
func (t OperationType) IsValid() bool {
	return t == OperationCredit || t == OperationDebit
}

// Sign returns +1 for credits and -1 for debits
func (t OperationType) Sign() int {
	if t == OperationDebit {
		return -1
	}
	return 1
}

// Label returns the French label of the direction
func (t OperationType) Label() string {
	if t == OperationDebit {
		return "Décaissement"
	}
	return "Encaissement"
}

// IncomeSource tells where credited money came from
type IncomeSource string

const (
	IncomePersonal     IncomeSource = "personal"
	IncomeCollaborator IncomeSource = "collaborator"
	IncomeDebt         IncomeSource = "debt"
	IncomeOther        IncomeSource = "other"
)

// IsValid checks if the income source is known
func (s IncomeSource) IsValid() bool {
	switch s {
	case IncomePersonal, IncomeCollaborator, IncomeDebt, IncomeOther:
		return true
	}
	return false
}

// Label returns the French label shown on reports
func (s IncomeSource) Label() string {
	switch s {
	case IncomePersonal:
		return "Personnel"
	case IncomeCollaborator:
		return "Collaborateur"
	case IncomeDebt:
		return "Dette"
	case IncomeOther:
		return "Autre"
	}
	return ""
}

// DefaultCreditorName is used when a debt-funded credit names no creditor
const DefaultCreditorName = "Unknown Creditor"

// CashOperation is an immutable record of one cash movement with the balance
// snapshot taken under the account lock. The only permitted change after
// creation is the one-time debt backfill.
type CashOperation struct {
	shared.BaseEntity
	Type           OperationType
	Amount         valueobject.Money
	Payment        valueobject.PaymentDetails
	IncomeSource   IncomeSource
	Observation    string
	ByCollaborator bool
	ProjectID      *uuid.UUID
	DebtID         *uuid.UUID
	Description    string
	ProofKey       string
	BalanceBefore  valueobject.Money
	BalanceAfter   valueobject.Money
	EffectiveDate  time.Time
	UserID         *uuid.UUID
}

// CreditRequest describes money coming into the register
type CreditRequest struct {
	Amount        valueobject.Money
	IncomeSource  IncomeSource
	Observation   string
	ProjectID     *uuid.UUID
	Payment       valueobject.PaymentDetails
	Description   string
	ProofKey      string
	EffectiveDate time.Time
	UserID        *uuid.UUID
}

// Validate checks the conditional field rules of a credit
func (r CreditRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return shared.NewValidationError("Amount must be greater than zero")
	}
	if r.EffectiveDate.IsZero() {
		return shared.NewValidationError("Date is required")
	}
	if !r.IncomeSource.IsValid() {
		return shared.NewValidationError("Income source must be one of personal, collaborator, debt, other")
	}
	if r.IncomeSource == IncomeOther && strings.TrimSpace(r.Observation) == "" {
		return shared.NewValidationError("Observation is required when the income source is other")
	}
	if r.IncomeSource == IncomeCollaborator && (r.ProjectID == nil || *r.ProjectID == uuid.Nil) {
		return shared.NewValidationError("A project is required for collaborator income")
	}
	return nil
}

// DebitRequest describes money leaving the register. A debit is charged
// either to a project or, for debt repayments, to a debt.
type DebitRequest struct {
	Amount        valueobject.Money
	ProjectID     *uuid.UUID
	DebtID        *uuid.UUID
	Payment       valueobject.PaymentDetails
	Description   string
	ProofKey      string
	EffectiveDate time.Time
	UserID        *uuid.UUID
}

// Validate checks the field rules of a debit
func (r DebitRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return shared.NewValidationError("Amount must be greater than zero")
	}
	if r.EffectiveDate.IsZero() {
		return shared.NewValidationError("Date is required")
	}
	hasProject := r.ProjectID != nil && *r.ProjectID != uuid.Nil
	hasDebt := r.DebtID != nil && *r.DebtID != uuid.Nil
	if !hasProject && !hasDebt {
		return shared.NewValidationError("A project is required for a debit")
	}
	return nil
}

// ApplyCredit validates r, moves the balance and returns the resulting operation
func (a *CashAccount) ApplyCredit(r CreditRequest) (*CashOperation, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	snap, err := a.credit(r.Amount)
	if err != nil {
		return nil, err
	}
	// only collaborator income is booked against a project; a debt keeps
	// its own project link
	var projectID *uuid.UUID
	if r.IncomeSource == IncomeCollaborator {
		projectID = r.ProjectID
	}
	op := &CashOperation{
		BaseEntity:     shared.NewBaseEntity(),
		Type:           OperationCredit,
		Amount:         r.Amount,
		Payment:        r.Payment,
		IncomeSource:   r.IncomeSource,
		Observation:    strings.TrimSpace(r.Observation),
		ByCollaborator: r.IncomeSource == IncomeCollaborator,
		ProjectID:      projectID,
		Description:    r.Description,
		ProofKey:       r.ProofKey,
		BalanceBefore:  snap.Before,
		BalanceAfter:   snap.After,
		EffectiveDate:  r.EffectiveDate,
		UserID:         r.UserID,
	}
	return op, nil
}

// ApplyDebit validates r, checks funds, moves the balance and returns the operation.
// On InsufficientFunds the balance is left untouched.
func (a *CashAccount) ApplyDebit(r DebitRequest) (*CashOperation, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	snap, err := a.debit(r.Amount)
	if err != nil {
		return nil, err
	}
	op := &CashOperation{
		BaseEntity:    shared.NewBaseEntity(),
		Type:          OperationDebit,
		Amount:        r.Amount,
		Payment:       r.Payment,
		ProjectID:     r.ProjectID,
		DebtID:        r.DebtID,
		Description:   r.Description,
		ProofKey:      r.ProofKey,
		BalanceBefore: snap.Before,
		BalanceAfter:  snap.After,
		EffectiveDate: r.EffectiveDate,
		UserID:        r.UserID,
	}
	return op, nil
}

// LinkDebt performs the one-time debt backfill
func (o *CashOperation) LinkDebt(debtID uuid.UUID) error {
	if o.DebtID != nil && *o.DebtID != debtID {
		return shared.NewDomainError(shared.CodeInvalidState, "Operation is already linked to a debt")
	}
	o.DebtID = &debtID
	return nil
}

// SignedAmount returns +amount for credits and -amount for debits
func (o *CashOperation) SignedAmount() valueobject.Money {
	if o.Type == OperationDebit {
		return o.Amount.Neg()
	}
	return o.Amount
}

// TypeLabel returns the French label of the operation
func (o *CashOperation) TypeLabel() string {
	return o.Type.Label()
}
