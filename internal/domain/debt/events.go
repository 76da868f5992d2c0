package debt

import (
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const (
	EventTypeDebtCreated         = "DebtCreated"
	EventTypeDebtPaymentRecorded = "DebtPaymentRecorded"
	EventTypeDebtSettled         = "DebtSettled"

	AggregateTypeDebt = "Debt"
)

// DebtCreatedEvent is raised when a debt is opened
type DebtCreatedEvent struct {
	shared.BaseDomainEvent
	CreditorName string            `json:"creditor_name"`
	Amount       valueobject.Money `json:"amount"`
	ProjectID    *uuid.UUID        `json:"project_id,omitempty"`
}

func NewDebtCreatedEvent(d *Debt) *DebtCreatedEvent {
	return &DebtCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtCreated, AggregateTypeDebt, d.ID),
		CreditorName:    d.CreditorName,
		Amount:          d.Original,
		ProjectID:       d.ProjectID,
	}
}

// DebtPaymentRecordedEvent is raised for every repayment
type DebtPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID    uuid.UUID         `json:"payment_id"`
	CreditorName string            `json:"creditor_name"`
	AmountPaid   valueobject.Money `json:"amount_paid"`
	Remaining    valueobject.Money `json:"remaining"`
}

func NewDebtPaymentRecordedEvent(d *Debt, p *Payment) *DebtPaymentRecordedEvent {
	return &DebtPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtPaymentRecorded, AggregateTypeDebt, d.ID),
		PaymentID:       p.ID,
		CreditorName:    d.CreditorName,
		AmountPaid:      p.Amount,
		Remaining:       d.Remaining,
	}
}

// DebtSettledEvent is raised once, when the remaining amount reaches zero
type DebtSettledEvent struct {
	shared.BaseDomainEvent
	CreditorName string            `json:"creditor_name"`
	Original     valueobject.Money `json:"original"`
}

func NewDebtSettledEvent(d *Debt) *DebtSettledEvent {
	return &DebtSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtSettled, AggregateTypeDebt, d.ID),
		CreditorName:    d.CreditorName,
		Original:        d.Original,
	}
}
