package handler

import (
	"github.com/ech/backend/internal/application/ledger"
	domain "github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentFields are the optional payment attributes of a movement
type PaymentFields struct {
	PaymentMode  string `json:"payment_mode" binding:"omitempty,payment_mode"`
	SupplierName string `json:"supplier_name" binding:"max=200"`
	Bank         string `json:"bank" binding:"max=100"`
	ChequeNumber string `json:"cheque_number" binding:"max=50"`
}

func (p PaymentFields) input() ledger.PaymentInput {
	return ledger.PaymentInput{
		Mode:         p.PaymentMode,
		SupplierName: p.SupplierName,
		Bank:         p.Bank,
		ChequeNumber: p.ChequeNumber,
	}
}

// CreditRequest is the body of an encaissement
type CreditRequest struct {
	Amount       valueobject.Money `json:"amount" binding:"required,gt=0"`
	Date         *Date             `json:"date" binding:"required"`
	IncomeSource string            `json:"income_source" binding:"required,income_source"`
	Observation  string            `json:"observation" binding:"max=1000"`
	ProjectID    *uuid.UUID        `json:"project_id"`
	Description  string            `json:"description" binding:"max=1000"`
	CreditorName string            `json:"creditor_name" binding:"max=200"`
	ProofKey     string            `json:"proof_key" binding:"max=500"`
	PaymentFields
}

// DebitRequest is the body of a decaissement
type DebitRequest struct {
	Amount      valueobject.Money `json:"amount" binding:"required,gt=0"`
	Date        *Date             `json:"date" binding:"required"`
	ProjectID   *uuid.UUID        `json:"project_id" binding:"required"`
	Description string            `json:"description" binding:"max=1000"`
	ProofKey    string            `json:"proof_key" binding:"max=500"`
	PaymentFields
}

// AdjustRequest sets the balance to an explicit value. Zero is a valid target.
type AdjustRequest struct {
	NewBalance  *valueobject.Money `json:"new_balance"`
	Description string             `json:"description" binding:"required,max=1000"`
}

// CreateDebtRequest opens a debt
type CreateDebtRequest struct {
	CreditorName   string            `json:"creditor_name" binding:"required,max=200"`
	OriginalAmount valueobject.Money `json:"original_amount" binding:"required,gt=0"`
	Date           *Date             `json:"date"`
	ProjectID      *uuid.UUID        `json:"project_id"`
	Description    string            `json:"description" binding:"max=1000"`
	PaymentFields
}

// PayDebtRequest repays a debt
type PayDebtRequest struct {
	AmountPaid  valueobject.Money `json:"amount_paid" binding:"required,gt=0"`
	Date        *Date             `json:"date"`
	Description string            `json:"description" binding:"max=1000"`
	PaymentFields
}

func (r CreditRequest) input(userID *uuid.UUID) ledger.CreditInput {
	return ledger.CreditInput{
		Amount:       r.Amount,
		Date:         r.Date.OrToday(),
		IncomeSource: domain.IncomeSource(r.IncomeSource),
		Observation:  r.Observation,
		ProjectID:    r.ProjectID,
		Description:  r.Description,
		Payment:      r.PaymentFields.input(),
		ProofKey:     r.ProofKey,
		CreditorName: r.CreditorName,
		UserID:       userID,
	}
}

func (r DebitRequest) input(userID *uuid.UUID) ledger.DebitInput {
	return ledger.DebitInput{
		Amount:      r.Amount,
		Date:        r.Date.OrToday(),
		ProjectID:   r.ProjectID,
		Description: r.Description,
		Payment:     r.PaymentFields.input(),
		ProofKey:    r.ProofKey,
		UserID:      userID,
	}
}
