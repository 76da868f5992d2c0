package models

import (
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtModel is the persistence model for the Debt aggregate root.
type DebtModel struct {
	AuditedAggregateModel
	CreditorName    string             `gorm:"type:varchar(200);not null;index"`
	OriginalAmount  decimal.Decimal    `gorm:"type:decimal(15,2);not null"`
	RemainingAmount decimal.Decimal    `gorm:"type:decimal(15,2);not null"`
	Status          debt.Status        `gorm:"type:varchar(20);not null;default:'active';index"`
	CompletedAt     *time.Time         `gorm:"index"`
	ProjectID       *uuid.UUID         `gorm:"type:uuid;index"`
	Description     string             `gorm:"type:text"`
	DateCreated     time.Time          `gorm:"not null"`
	Payments        []DebtPaymentModel `gorm:"foreignKey:DebtID;references:ID"`
}

// TableName returns the table name for GORM
func (DebtModel) TableName() string {
	return "debts"
}

// ToDomain converts the persistence model to a domain Debt.
func (m *DebtModel) ToDomain() *debt.Debt {
	d := &debt.Debt{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		CreditorName:         m.CreditorName,
		Original:             money(m.OriginalAmount),
		Remaining:            money(m.RemainingAmount),
		Status:               m.Status,
		CompletedAt:          m.CompletedAt,
		ProjectID:            m.ProjectID,
		Description:          m.Description,
		DateCreated:          m.DateCreated,
	}
	if len(m.Payments) > 0 {
		d.Payments = make([]debt.Payment, len(m.Payments))
		for i := range m.Payments {
			d.Payments[i] = *m.Payments[i].ToDomain()
		}
	}
	return d
}

// FromDomain populates the persistence model from a domain Debt.
// Payments are written separately through DebtPaymentModel.
func (m *DebtModel) FromDomain(d *debt.Debt) {
	m.FromDomainAuditedAggregateRoot(d.AuditedAggregateRoot)
	m.CreditorName = d.CreditorName
	m.OriginalAmount = d.Original.Amount()
	m.RemainingAmount = d.Remaining.Amount()
	m.Status = d.Status
	m.CompletedAt = d.CompletedAt
	m.ProjectID = d.ProjectID
	m.Description = d.Description
	m.DateCreated = d.DateCreated
}

// DebtPaymentModel is one immutable repayment.
type DebtPaymentModel struct {
	ID              uuid.UUID               `gorm:"type:uuid;primary_key"`
	DebtID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	PaymentMode     valueobject.PaymentMode `gorm:"type:varchar(20)"`
	SupplierName    string                  `gorm:"type:varchar(200)"`
	Bank            string                  `gorm:"type:varchar(100)"`
	ChequeNumber    string                  `gorm:"type:varchar(50)"`
	Description     string                  `gorm:"type:text"`
	PaymentDate     time.Time               `gorm:"not null;index"`
	CreatedBy       *uuid.UUID              `gorm:"type:uuid"`
	CashOperationID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt       time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DebtPaymentModel) TableName() string {
	return "debt_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *DebtPaymentModel) ToDomain() *debt.Payment {
	return &debt.Payment{
		ID:     m.ID,
		DebtID: m.DebtID,
		Amount: money(m.Amount),
		Payment: valueobject.PaymentDetails{
			Mode:         m.PaymentMode,
			SupplierName: m.SupplierName,
			Bank:         m.Bank,
			ChequeNumber: m.ChequeNumber,
		},
		Description:     m.Description,
		PaymentDate:     m.PaymentDate,
		CreatedBy:       m.CreatedBy,
		CashOperationID: m.CashOperationID,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *DebtPaymentModel) FromDomain(p *debt.Payment) {
	m.ID = p.ID
	m.DebtID = p.DebtID
	m.Amount = p.Amount.Amount()
	m.PaymentMode = p.Payment.Mode
	m.SupplierName = p.Payment.SupplierName
	m.Bank = p.Payment.Bank
	m.ChequeNumber = p.Payment.ChequeNumber
	m.Description = p.Description
	m.PaymentDate = p.PaymentDate
	m.CreatedBy = p.CreatedBy
	m.CashOperationID = p.CashOperationID
	m.CreatedAt = p.CreatedAt
}
