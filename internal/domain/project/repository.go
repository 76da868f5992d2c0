package project

import (
	"context"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Filter narrows project listings
type Filter struct {
	shared.Filter
	HasCollaborator *bool
}

// Totals sums the aggregates of every project
type Totals struct {
	Count        int64
	Budget       valueobject.Money
	Expenditures valueobject.Money
	Receivables  valueobject.Money
	Profit       valueobject.Money
}

// Repository persists projects. Save must store Profit() alongside the totals.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindByIDForUpdate loads the project with a row lock held until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Project, error)

	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Project, error)
	FindAll(ctx context.Context, filter Filter) ([]Project, int64, error)
	Save(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	Totals(ctx context.Context) (Totals, error)
}

// RevenueFilter narrows revenue listings; zero values are ignored
type RevenueFilter struct {
	ProjectID *uuid.UUID
	Year      int
	Month     int
	Day       int
	DateFrom  *time.Time
	DateTo    *time.Time
}

// RevenueRepository persists revenues
type RevenueRepository interface {
	Create(ctx context.Context, r *Revenue) error
	FindByID(ctx context.Context, id uuid.UUID) (*Revenue, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	FindAll(ctx context.Context, filter RevenueFilter) ([]Revenue, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error)
}
