package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashAccountModel is the single row holding the register balance.
type CashAccountModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Version   int             `gorm:"not null;default:1"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashAccountModel) TableName() string {
	return "cash_accounts"
}

// ToDomain converts the persistence model to a domain CashAccount.
func (m *CashAccountModel) ToDomain() *ledger.CashAccount {
	return &ledger.CashAccount{
		ID:        m.ID,
		Balance:   money(m.Balance),
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

// FromDomain populates the persistence model from a domain CashAccount.
func (m *CashAccountModel) FromDomain(a *ledger.CashAccount) {
	m.ID = a.ID
	m.Balance = a.Balance.Amount()
	m.Version = a.Version
	m.UpdatedAt = a.UpdatedAt
}

// CashOperationModel is the persistence model for an immutable cash movement.
type CashOperationModel struct {
	BaseModel
	Type           ledger.OperationType    `gorm:"type:varchar(10);not null;index"`
	Amount         decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	PaymentMode    valueobject.PaymentMode `gorm:"type:varchar(20)"`
	SupplierName   string                  `gorm:"type:varchar(200)"`
	Bank           string                  `gorm:"type:varchar(100)"`
	ChequeNumber   string                  `gorm:"type:varchar(50)"`
	IncomeSource   ledger.IncomeSource     `gorm:"type:varchar(20);index"`
	Observation    string                  `gorm:"type:text"`
	ByCollaborator bool                    `gorm:"not null;default:false"`
	ProjectID      *uuid.UUID              `gorm:"type:uuid;index"`
	DebtID         *uuid.UUID              `gorm:"type:uuid;index"`
	Description    string                  `gorm:"type:text"`
	ProofKey       string                  `gorm:"type:varchar(500)"`
	BalanceBefore  decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	BalanceAfter   decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	EffectiveDate  time.Time               `gorm:"not null;index"`
	UserID         *uuid.UUID              `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CashOperationModel) TableName() string {
	return "cash_operations"
}

// ToDomain converts the persistence model to a domain CashOperation.
func (m *CashOperationModel) ToDomain() *ledger.CashOperation {
	return &ledger.CashOperation{
		BaseEntity: m.BaseModel.ToDomain(),
		Type:       m.Type,
		Amount:     money(m.Amount),
		Payment: valueobject.PaymentDetails{
			Mode:         m.PaymentMode,
			SupplierName: m.SupplierName,
			Bank:         m.Bank,
			ChequeNumber: m.ChequeNumber,
		},
		IncomeSource:   m.IncomeSource,
		Observation:    m.Observation,
		ByCollaborator: m.ByCollaborator,
		ProjectID:      m.ProjectID,
		DebtID:         m.DebtID,
		Description:    m.Description,
		ProofKey:       m.ProofKey,
		BalanceBefore:  money(m.BalanceBefore),
		BalanceAfter:   money(m.BalanceAfter),
		EffectiveDate:  m.EffectiveDate,
		UserID:         m.UserID,
	}
}

// FromDomain populates the persistence model from a domain CashOperation.
func (m *CashOperationModel) FromDomain(op *ledger.CashOperation) {
	m.FromDomainBaseEntity(op.BaseEntity)
	m.Type = op.Type
	m.Amount = op.Amount.Amount()
	m.PaymentMode = op.Payment.Mode
	m.SupplierName = op.Payment.SupplierName
	m.Bank = op.Payment.Bank
	m.ChequeNumber = op.Payment.ChequeNumber
	m.IncomeSource = op.IncomeSource
	m.Observation = op.Observation
	m.ByCollaborator = op.ByCollaborator
	m.ProjectID = op.ProjectID
	m.DebtID = op.DebtID
	m.Description = op.Description
	m.ProofKey = op.ProofKey
	m.BalanceBefore = op.BalanceBefore.Amount()
	m.BalanceAfter = op.BalanceAfter.Amount()
	m.EffectiveDate = op.EffectiveDate
	m.UserID = op.UserID
}

// HistoryEntryModel is one append-only audit line. Sequence is the numeric
// part of ReferenceNumber so that ordering by reference stays numeric past 999.
type HistoryEntryModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key"`
	ReferenceNumber string               `gorm:"type:varchar(30);not null;uniqueIndex:idx_cash_history_reference"`
	Sequence        int64                `gorm:"not null;index"`
	Action          ledger.HistoryAction `gorm:"type:varchar(30);not null;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	BalanceBefore   decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	BalanceAfter    decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	OperationID     *uuid.UUID           `gorm:"type:uuid;index"`
	ProjectID       *uuid.UUID           `gorm:"type:uuid;index"`
	UserID          *uuid.UUID           `gorm:"type:uuid;index"`
	Description     string               `gorm:"type:text"`
	EffectiveDate   time.Time            `gorm:"not null;index"`
	CreatedAt       time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (HistoryEntryModel) TableName() string {
	return "cash_history"
}

// ToDomain converts the persistence model to a domain HistoryEntry.
func (m *HistoryEntryModel) ToDomain() *ledger.HistoryEntry {
	return &ledger.HistoryEntry{
		ID:            m.ID,
		Reference:     m.ReferenceNumber,
		Action:        m.Action,
		Amount:        money(m.Amount),
		BalanceBefore: money(m.BalanceBefore),
		BalanceAfter:  money(m.BalanceAfter),
		OperationID:   m.OperationID,
		ProjectID:     m.ProjectID,
		UserID:        m.UserID,
		Description:   m.Description,
		EffectiveDate: m.EffectiveDate,
		CreatedAt:     m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain HistoryEntry.
func (m *HistoryEntryModel) FromDomain(e *ledger.HistoryEntry) {
	m.ID = e.ID
	m.ReferenceNumber = e.Reference
	m.Sequence = referenceSequence(e.Reference)
	m.Action = e.Action
	m.Amount = e.Amount.Amount()
	m.BalanceBefore = e.BalanceBefore.Amount()
	m.BalanceAfter = e.BalanceAfter.Amount()
	m.OperationID = e.OperationID
	m.ProjectID = e.ProjectID
	m.UserID = e.UserID
	m.Description = e.Description
	m.EffectiveDate = e.EffectiveDate
	m.CreatedAt = e.CreatedAt
}

// referenceSequence returns the trailing digits of ref, 0 if there are none
func referenceSequence(ref string) int64 {
	i := strings.LastIndexFunc(ref, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.ParseInt(ref[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SequenceModel is one named counter used for gap-free numbering.
type SequenceModel struct {
	Scope     string    `gorm:"type:varchar(100);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "sequences"
}
