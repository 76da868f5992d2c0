package debt

import (
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DebtView is a debt as shown in listings
type DebtView struct {
	ID           uuid.UUID         `json:"id"`
	CreditorName string            `json:"creditor_name"`
	Original     valueobject.Money `json:"original_amount"`
	Remaining    valueobject.Money `json:"remaining_amount"`
	Paid         valueobject.Money `json:"paid_amount"`
	Status       debt.Status       `json:"status"`
	StatusLabel  string            `json:"status_label"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	ProjectID    *uuid.UUID        `json:"project_id,omitempty"`
	ProjectName  string            `json:"project_name,omitempty"`
	Description  string            `json:"description"`
	DateCreated  time.Time         `json:"date_created"`
	CreatedBy    *uuid.UUID        `json:"created_by,omitempty"`
}

// PaymentView is one repayment
type PaymentView struct {
	ID              uuid.UUID               `json:"id"`
	Amount          valueobject.Money       `json:"amount_paid"`
	PaymentMode     valueobject.PaymentMode `json:"payment_mode,omitempty"`
	SupplierName    string                  `json:"supplier_name,omitempty"`
	Bank            string                  `json:"bank,omitempty"`
	ChequeNumber    string                  `json:"cheque_number,omitempty"`
	Description     string                  `json:"description"`
	PaymentDate     time.Time               `json:"payment_date"`
	CashOperationID uuid.UUID               `json:"cash_operation_id"`
	CreatedBy       *uuid.UUID              `json:"created_by,omitempty"`
	UserName        string                  `json:"user_name,omitempty"`
}

// DebtDetail is a debt with its repayments, oldest first
type DebtDetail struct {
	DebtView
	Payments []PaymentView `json:"payments"`
}

// JournalLine is one row of the debt journal
type JournalLine struct {
	Date        time.Time         `json:"date"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Borrowed    valueobject.Money `json:"borrowed"`
	Repaid      valueobject.Money `json:"repaid"`
	Remaining   valueobject.Money `json:"remaining"`
	PaymentMode string            `json:"payment_mode"`
}

// Journal is the printable history of one debt
type Journal struct {
	Debt        DebtView          `json:"debt"`
	Lines       []JournalLine     `json:"lines"`
	TotalRepaid valueobject.Money `json:"total_repaid"`
	GeneratedAt time.Time         `json:"generated_at"`
}

func toDebtView(d *debt.Debt) DebtView {
	return DebtView{
		ID:           d.ID,
		CreditorName: d.CreditorName,
		Original:     d.Original,
		Remaining:    d.Remaining,
		Paid:         d.PaidAmount(),
		Status:       d.Status,
		StatusLabel:  d.Status.Label(),
		CompletedAt:  d.CompletedAt,
		ProjectID:    d.ProjectID,
		Description:  d.Description,
		DateCreated:  d.DateCreated,
		CreatedBy:    d.CreatedBy,
	}
}

func toPaymentView(p *debt.Payment) PaymentView {
	return PaymentView{
		ID:              p.ID,
		Amount:          p.Amount,
		PaymentMode:     p.Payment.Mode,
		SupplierName:    p.Payment.SupplierName,
		Bank:            p.Payment.Bank,
		ChequeNumber:    p.Payment.ChequeNumber,
		Description:     p.Description,
		PaymentDate:     p.PaymentDate,
		CashOperationID: p.CashOperationID,
		CreatedBy:       p.CreatedBy,
	}
}
