package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// NumberSequenceScope is the counter that numbers projects
const NumberSequenceScope = "project"

// Project carries a budget and the running financial totals driven by
// ledger debits and revenues. Profit is never assigned: it is always
// Receivables - Expenditures.
type Project struct {
	shared.AuditedAggregateRoot
	Number             int64
	Name               string
	Description        string
	EstimatedBudget    valueobject.Money
	OperationReference string
	OperationNumber    string
	StartDate          time.Time
	DurationMonths     int
	CollaboratorName   string
	Expenditures       valueobject.Money
	Receivables        valueobject.Money
}

// Details are the user editable attributes of a project
type Details struct {
	Name               string
	Description        string
	EstimatedBudget    valueobject.Money
	OperationReference string
	OperationNumber    string
	StartDate          time.Time
	DurationMonths     int
	CollaboratorName   string
}

func (d *Details) normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.CollaboratorName = strings.TrimSpace(d.CollaboratorName)
	if d.Name == "" {
		return shared.NewValidationError("Project name is required")
	}
	if len(d.Name) > 200 {
		return shared.NewValidationError("Project name cannot exceed 200 characters")
	}
	if d.EstimatedBudget.IsNegative() {
		return shared.NewValidationError("Estimated budget cannot be negative")
	}
	if d.DurationMonths < 0 {
		return shared.NewValidationError("Duration cannot be negative")
	}
	if d.StartDate.IsZero() {
		return shared.NewValidationError("Start date is required")
	}
	return nil
}

// NewProject creates a project with zero totals
func NewProject(d Details, createdBy *uuid.UUID) (*Project, error) {
	if err := d.normalize(); err != nil {
		return nil, err
	}
	p := &Project{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Expenditures:         valueobject.Zero(),
		Receivables:          valueobject.Zero(),
	}
	p.setDetails(d)
	return p, nil
}

// Update replaces the editable attributes. Totals are left alone.
func (p *Project) Update(d Details) error {
	if err := d.normalize(); err != nil {
		return err
	}
	p.setDetails(d)
	p.Touch()
	p.IncrementVersion()
	return nil
}

func (p *Project) setDetails(d Details) {
	p.Name = d.Name
	p.Description = d.Description
	p.EstimatedBudget = d.EstimatedBudget
	p.OperationReference = d.OperationReference
	p.OperationNumber = d.OperationNumber
	p.StartDate = d.StartDate
	p.DurationMonths = d.DurationMonths
	p.CollaboratorName = d.CollaboratorName
}

// Profit is the derived net result of the project
func (p *Project) Profit() valueobject.Money {
	return p.Receivables.Sub(p.Expenditures)
}

// HasCollaborator reports whether collaborator-attributed cash flows apply
func (p *Project) HasCollaborator() bool {
	return p.CollaboratorName != ""
}

// RecordExpenditure adds a committed debit to the project
func (p *Project) RecordExpenditure(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Expenditure must be greater than zero")
	}
	p.Expenditures = p.Expenditures.Add(amount)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RecordRevenue books a revenue: receivables grow and the remaining budget shrinks.
func (p *Project) RecordRevenue(r *Revenue) error {
	if !r.Amount.IsPositive() {
		return shared.NewValidationError("Revenue amount must be greater than zero")
	}
	if p.EstimatedBudget.LessThan(r.Amount) {
		return shared.NewDomainError(shared.CodeInsufficientBudget,
			fmt.Sprintf("Insufficient budget: remaining %s, requested %s", p.EstimatedBudget, r.Amount))
	}
	p.Receivables = p.Receivables.Add(r.Amount)
	p.EstimatedBudget = p.EstimatedBudget.Sub(r.Amount)
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewRevenueRecordedEvent(p, r))
	return nil
}

// ReverseRevenue undoes both effects of RecordRevenue
func (p *Project) ReverseRevenue(r *Revenue) error {
	if r.ProjectID != p.ID {
		return shared.NewValidationError("Revenue does not belong to this project")
	}
	p.Receivables = p.Receivables.Sub(r.Amount)
	p.EstimatedBudget = p.EstimatedBudget.Add(r.Amount)
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewRevenueReversedEvent(p, r))
	return nil
}

// AssignNumber sets the sequential project ordinal used in document numbers
func (p *Project) AssignNumber(n int64) error {
	if p.Number != 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Project is already numbered")
	}
	if n < 1 {
		return shared.NewValidationError("Project number must be positive")
	}
	p.Number = n
	return nil
}

// EndDate returns StartDate plus the project duration
func (p *Project) EndDate() time.Time {
	return p.StartDate.AddDate(0, p.DurationMonths, 0)
}
