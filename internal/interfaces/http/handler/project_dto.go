package handler

import (
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ProjectRequest creates or replaces a project
type ProjectRequest struct {
	Name               string            `json:"name" binding:"required,max=200"`
	Description        string            `json:"description" binding:"max=2000"`
	EstimatedBudget    valueobject.Money `json:"estimated_budget" binding:"gte=0"`
	OperationReference string            `json:"operation_reference" binding:"max=100"`
	OperationNumber    string            `json:"operation_number" binding:"max=100"`
	StartDate          *Date             `json:"start_date" binding:"required"`
	DurationMonths     int               `json:"duration_months" binding:"gte=0,lte=600"`
	CollaboratorName   string            `json:"collaborator_name" binding:"max=200"`
}

func (r ProjectRequest) input() projectapp.ProjectInput {
	return projectapp.ProjectInput{
		Name:               r.Name,
		Description:        r.Description,
		EstimatedBudget:    r.EstimatedBudget,
		OperationReference: r.OperationReference,
		OperationNumber:    r.OperationNumber,
		StartDate:          r.StartDate.OrToday(),
		DurationMonths:     r.DurationMonths,
		CollaboratorName:   r.CollaboratorName,
	}
}

// FinanceReportRequest selects the flows of a project finance report
type FinanceReportRequest struct {
	ProjectID      *uuid.UUID `json:"project_id" binding:"required"`
	DateFrom       *Date      `json:"date_from"`
	DateTo         *Date      `json:"date_to"`
	ByCollaborator bool       `json:"by_collaborator"`
}

func (r FinanceReportRequest) input() projectapp.FinanceReportInput {
	in := projectapp.FinanceReportInput{
		ProjectID:      *r.ProjectID,
		DateFrom:       r.DateFrom.Ptr(),
		ByCollaborator: r.ByCollaborator,
	}
	if to := r.DateTo.Ptr(); to != nil {
		end := to.AddDate(0, 0, 1).Add(-1)
		in.DateTo = &end
	}
	return in
}

// RevenueRequest records a revenue on a project
type RevenueRequest struct {
	Code      string            `json:"code" binding:"required,max=50"`
	ProjectID *uuid.UUID        `json:"project_id" binding:"required"`
	Amount    valueobject.Money `json:"amount" binding:"required,gt=0"`
	Date      *Date             `json:"date"`
}
