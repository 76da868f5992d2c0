package project

import (
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Revenue is income attributed to a project under a globally unique code
type Revenue struct {
	shared.BaseEntity
	Code      string
	ProjectID uuid.UUID
	Amount    valueobject.Money
	Date      time.Time
	CreatedBy *uuid.UUID
}

// NewRevenue validates and creates a revenue
func NewRevenue(code string, projectID uuid.UUID, amount valueobject.Money, date time.Time, createdBy *uuid.UUID) (*Revenue, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("Revenue code is required")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("Revenue code cannot exceed 50 characters")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewValidationError("Project is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Revenue amount must be greater than zero")
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("Date is required")
	}
	return &Revenue{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		ProjectID:  projectID,
		Amount:     amount,
		Date:       date,
		CreatedBy:  createdBy,
	}, nil
}
