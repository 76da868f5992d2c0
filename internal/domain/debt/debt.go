package debt

import (
	"fmt"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status of a debt
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Label returns the French label of the status
func (s Status) Label() string {
	if s == StatusCompleted {
		return "Soldée"
	}
	return "Active"
}

// Debt is money owed to an external creditor. It starts active with
// Remaining == Original and becomes completed, irreversibly, when the
// remaining amount reaches zero.
type Debt struct {
	shared.AuditedAggregateRoot
	CreditorName string
	Original     valueobject.Money
	Remaining    valueobject.Money
	Status       Status
	CompletedAt  *time.Time
	ProjectID    *uuid.UUID
	Description  string
	DateCreated  time.Time
	Payments     []Payment
}

// NewDebt creates an active debt
func NewDebt(creditor string, amount valueobject.Money, projectID *uuid.UUID, description string, createdBy *uuid.UUID) (*Debt, error) {
	creditor = strings.TrimSpace(creditor)
	if creditor == "" {
		return nil, shared.NewValidationError("Creditor name is required")
	}
	if len(creditor) > 200 {
		return nil, shared.NewValidationError("Creditor name cannot exceed 200 characters")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Debt amount must be greater than zero")
	}
	d := &Debt{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		CreditorName:         creditor,
		Original:             amount,
		Remaining:            amount,
		Status:               StatusActive,
		ProjectID:            projectID,
		Description:          description,
		DateCreated:          time.Now(),
	}
	d.AddDomainEvent(NewDebtCreatedEvent(d))
	return d, nil
}

// CheckPayment validates amount against the debt without changing it.
// Order: settled, non positive, excess.
func (d *Debt) CheckPayment(amount valueobject.Money) error {
	if d.Status == StatusCompleted {
		return shared.NewDomainError(shared.CodeDebtAlreadySettled, "This debt is already fully paid")
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}
	if amount.GreaterThan(d.Remaining) {
		return shared.NewDomainError(shared.CodeExcessPayment,
			fmt.Sprintf("Payment %s exceeds remaining amount %s", amount, d.Remaining))
	}
	return nil
}

// ApplyPayment records p and moves the debt towards completion
func (d *Debt) ApplyPayment(p Payment) error {
	if err := d.CheckPayment(p.Amount); err != nil {
		return err
	}
	d.Remaining = d.Remaining.Sub(p.Amount)
	d.Payments = append(d.Payments, p)
	d.Touch()
	d.IncrementVersion()

	d.AddDomainEvent(NewDebtPaymentRecordedEvent(d, &p))
	if !d.Remaining.IsPositive() {
		now := p.PaymentDate
		if now.IsZero() {
			now = time.Now()
		}
		d.Status = StatusCompleted
		if d.CompletedAt == nil {
			d.CompletedAt = &now
		}
		d.AddDomainEvent(NewDebtSettledEvent(d))
	}
	return nil
}

// PaidAmount returns Original - Remaining
func (d *Debt) PaidAmount() valueobject.Money {
	return d.Original.Sub(d.Remaining)
}

// IsCompleted returns true once the debt is fully paid
func (d *Debt) IsCompleted() bool {
	return d.Status == StatusCompleted
}

// CheckInvariants verifies bounds and status agreement
func (d *Debt) CheckInvariants() error {
	if d.Remaining.IsNegative() || d.Remaining.GreaterThan(d.Original) {
		return fmt.Errorf("remaining %s outside [0, %s]", d.Remaining, d.Original)
	}
	if (d.Status == StatusCompleted) != d.Remaining.IsZero() {
		return fmt.Errorf("status %s disagrees with remaining %s", d.Status, d.Remaining)
	}
	return nil
}

// Payment is one immutable repayment of a debt
type Payment struct {
	ID              uuid.UUID
	DebtID          uuid.UUID
	Amount          valueobject.Money
	Payment         valueobject.PaymentDetails
	Description     string
	PaymentDate     time.Time
	CreatedBy       *uuid.UUID
	CashOperationID uuid.UUID
	CreatedAt       time.Time
}

// NewPayment creates a payment linked to the cash operation that funded it
func NewPayment(debtID uuid.UUID, amount valueobject.Money, details valueobject.PaymentDetails, description string, date time.Time, operationID uuid.UUID, createdBy *uuid.UUID) Payment {
	return Payment{
		ID:              uuid.New(),
		DebtID:          debtID,
		Amount:          amount,
		Payment:         details,
		Description:     description,
		PaymentDate:     date,
		CreatedBy:       createdBy,
		CashOperationID: operationID,
		CreatedAt:       time.Now(),
	}
}
