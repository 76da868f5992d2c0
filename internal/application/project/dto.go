package project

import (
	"time"

	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ProjectInput holds the editable attributes of a project
type ProjectInput struct {
	Name               string
	Description        string
	EstimatedBudget    valueobject.Money
	OperationReference string
	OperationNumber    string
	StartDate          time.Time
	DurationMonths     int
	CollaboratorName   string
}

func (in ProjectInput) details() project.Details {
	return project.Details{
		Name:               in.Name,
		Description:        in.Description,
		EstimatedBudget:    in.EstimatedBudget,
		OperationReference: in.OperationReference,
		OperationNumber:    in.OperationNumber,
		StartDate:          in.StartDate,
		DurationMonths:     in.DurationMonths,
		CollaboratorName:   in.CollaboratorName,
	}
}

// RevenueInput creates a revenue
type RevenueInput struct {
	Code      string
	ProjectID uuid.UUID
	Amount    valueobject.Money
	Date      time.Time
	UserID    *uuid.UUID
}

// FinanceReportInput selects the cash flows of a project finance report
type FinanceReportInput struct {
	ProjectID      uuid.UUID
	DateFrom       *time.Time
	DateTo         *time.Time
	ByCollaborator bool
}

// ProjectView is a project with its derived figures
type ProjectView struct {
	ID                 uuid.UUID         `json:"id"`
	Number             int64             `json:"number"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	EstimatedBudget    valueobject.Money `json:"estimated_budget"`
	OperationReference string            `json:"operation_reference"`
	OperationNumber    string            `json:"operation_number"`
	StartDate          time.Time         `json:"start_date"`
	EndDate            time.Time         `json:"end_date"`
	DurationMonths     int               `json:"duration_months"`
	CollaboratorName   string            `json:"collaborator_name,omitempty"`
	Expenditures       valueobject.Money `json:"total_expenditures"`
	Receivables        valueobject.Money `json:"total_receivables"`
	Profit             valueobject.Money `json:"total_profit"`
	CreatedBy          *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RevenueView is a revenue with its project name
type RevenueView struct {
	ID          uuid.UUID         `json:"id"`
	Code        string            `json:"code"`
	ProjectID   uuid.UUID         `json:"project_id"`
	ProjectName string            `json:"project_name,omitempty"`
	Amount      valueobject.Money `json:"amount"`
	Date        time.Time         `json:"date"`
	CreatedBy   *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// RevenueResult is returned after a revenue changed the project totals
type RevenueResult struct {
	Revenue RevenueView `json:"revenue"`
	Project ProjectView `json:"project"`
}

// FinanceLine is one dated cash flow of a finance report
type FinanceLine struct {
	Date        time.Time         `json:"date"`
	Kind        string            `json:"kind"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	In          valueobject.Money `json:"in"`
	Out         valueobject.Money `json:"out"`
	createdAt   time.Time
}

// FinanceReport lists the cash flows of one project. The collaborator view
// shows the money the collaborator brought in; the standard view shows
// revenues against expenditures.
type FinanceReport struct {
	Project        ProjectView       `json:"project"`
	ByCollaborator bool              `json:"by_collaborator"`
	DateFrom       *time.Time        `json:"date_from,omitempty"`
	DateTo         *time.Time        `json:"date_to,omitempty"`
	Lines          []FinanceLine     `json:"lines"`
	TotalIn        valueobject.Money `json:"total_in"`
	TotalOut       valueobject.Money `json:"total_out"`
	Net            valueobject.Money `json:"net"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

func toProjectView(p *project.Project) ProjectView {
	return ProjectView{
		ID:                 p.ID,
		Number:             p.Number,
		Name:               p.Name,
		Description:        p.Description,
		EstimatedBudget:    p.EstimatedBudget,
		OperationReference: p.OperationReference,
		OperationNumber:    p.OperationNumber,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate(),
		DurationMonths:     p.DurationMonths,
		CollaboratorName:   p.CollaboratorName,
		Expenditures:       p.Expenditures,
		Receivables:        p.Receivables,
		Profit:             p.Profit(),
		CreatedBy:          p.CreatedBy,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toRevenueView(r *project.Revenue) RevenueView {
	return RevenueView{
		ID:        r.ID,
		Code:      r.Code,
		ProjectID: r.ProjectID,
		Amount:    r.Amount,
		Date:      r.Date,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}
