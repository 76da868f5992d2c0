package debt

import (
	"context"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows debt listings
type Filter struct {
	shared.Filter
	Status    Status
	ProjectID *uuid.UUID
}

// Counts summarises debts by status
type Counts struct {
	Active    int64
	Completed int64
}

// Repository persists debts and their payments
type Repository interface {
	Create(ctx context.Context, d *Debt) error

	// FindByIDForUpdate loads the debt with a row lock held until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Debt, error)

	// FindByID loads the debt with its payments, oldest first
	FindByID(ctx context.Context, id uuid.UUID) (*Debt, error)

	FindAll(ctx context.Context, filter Filter) ([]Debt, int64, error)

	// Save persists remaining/status changes with an optimistic version check
	Save(ctx context.Context, d *Debt) error

	AddPayment(ctx context.Context, p *Payment) error
	CountByStatus(ctx context.Context) (Counts, error)
	ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error)
}
