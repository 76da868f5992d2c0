package project

import (
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const (
	EventTypeRevenueRecorded = "RevenueRecorded"
	EventTypeRevenueReversed = "RevenueReversed"

	AggregateTypeProject = "Project"
)

// RevenueEvent is raised when a revenue is booked or reversed
type RevenueEvent struct {
	shared.BaseDomainEvent
	RevenueID   uuid.UUID         `json:"revenue_id"`
	Code        string            `json:"code"`
	ProjectName string            `json:"project_name"`
	Amount      valueobject.Money `json:"amount"`
	Receivables valueobject.Money `json:"total_receivables"`
	Budget      valueobject.Money `json:"estimated_budget"`
	Profit      valueobject.Money `json:"total_profit"`
}

func newRevenueEvent(eventType string, p *Project, r *Revenue) *RevenueEvent {
	return &RevenueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProject, p.ID),
		RevenueID:       r.ID,
		Code:            r.Code,
		ProjectName:     p.Name,
		Amount:          r.Amount,
		Receivables:     p.Receivables,
		Budget:          p.EstimatedBudget,
		Profit:          p.Profit(),
	}
}

func NewRevenueRecordedEvent(p *Project, r *Revenue) *RevenueEvent {
	return newRevenueEvent(EventTypeRevenueRecorded, p, r)
}

func NewRevenueReversedEvent(p *Project, r *Revenue) *RevenueEvent {
	return newRevenueEvent(EventTypeRevenueReversed, p, r)
}
