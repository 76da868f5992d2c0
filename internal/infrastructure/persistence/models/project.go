package models

import (
	"time"

	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectModel is the persistence model for the Project aggregate root.
// Profit is stored for reporting and recomputed on every write.
type ProjectModel struct {
	AuditedAggregateModel
	Number             int64           `gorm:"not null;uniqueIndex:idx_projects_number"`
	Name               string          `gorm:"type:varchar(200);not null;index"`
	Description        string          `gorm:"type:text"`
	EstimatedBudget    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	OperationReference string          `gorm:"type:varchar(100)"`
	OperationNumber    string          `gorm:"type:varchar(100)"`
	StartDate          time.Time       `gorm:"not null"`
	DurationMonths     int             `gorm:"not null;default:0"`
	CollaboratorName   string          `gorm:"type:varchar(200)"`
	Expenditures       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Receivables        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Profit             decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// BeforeSave keeps the stored profit equal to receivables minus expenditures
func (m *ProjectModel) BeforeSave(tx *gorm.DB) error {
	m.Profit = m.Receivables.Sub(m.Expenditures)
	return nil
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *project.Project {
	return &project.Project{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Number:               m.Number,
		Name:                 m.Name,
		Description:          m.Description,
		EstimatedBudget:      money(m.EstimatedBudget),
		OperationReference:   m.OperationReference,
		OperationNumber:      m.OperationNumber,
		StartDate:            m.StartDate,
		DurationMonths:       m.DurationMonths,
		CollaboratorName:     m.CollaboratorName,
		Expenditures:         money(m.Expenditures),
		Receivables:          money(m.Receivables),
	}
}

// FromDomain populates the persistence model from a domain Project.
func (m *ProjectModel) FromDomain(p *project.Project) {
	m.FromDomainAuditedAggregateRoot(p.AuditedAggregateRoot)
	m.Number = p.Number
	m.Name = p.Name
	m.Description = p.Description
	m.EstimatedBudget = p.EstimatedBudget.Amount()
	m.OperationReference = p.OperationReference
	m.OperationNumber = p.OperationNumber
	m.StartDate = p.StartDate
	m.DurationMonths = p.DurationMonths
	m.CollaboratorName = p.CollaboratorName
	m.Expenditures = p.Expenditures.Amount()
	m.Receivables = p.Receivables.Amount()
	m.Profit = p.Profit().Amount()
}

// RevenueModel is the persistence model for a project revenue.
type RevenueModel struct {
	BaseModel
	Code      string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_revenues_code"`
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Date      time.Time       `gorm:"not null;index"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RevenueModel) TableName() string {
	return "revenues"
}

// ToDomain converts the persistence model to a domain Revenue.
func (m *RevenueModel) ToDomain() *project.Revenue {
	return &project.Revenue{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Code:       m.Code,
		ProjectID:  m.ProjectID,
		Amount:     money(m.Amount),
		Date:       m.Date,
		CreatedBy:  m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Revenue.
func (m *RevenueModel) FromDomain(r *project.Revenue) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.Code = r.Code
	m.ProjectID = r.ProjectID
	m.Amount = r.Amount.Amount()
	m.Date = r.Date
	m.CreatedBy = r.CreatedBy
}
