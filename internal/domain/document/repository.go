package document

import (
	"context"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DeliveryNoteFilter narrows delivery note listings
type DeliveryNoteFilter struct {
	shared.Filter
	ProjectID *uuid.UUID
}

// DeliveryNoteRepository persists delivery notes with their items and charges
type DeliveryNoteRepository interface {
	Create(ctx context.Context, n *DeliveryNote) error
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryNote, error)
	FindAll(ctx context.Context, filter DeliveryNoteFilter) ([]DeliveryNote, int64, error)

	// Save replaces the children and stores the recomputed total
	Save(ctx context.Context, n *DeliveryNote) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error)

	AddHistory(ctx context.Context, h *DeliveryNoteHistory) error
	History(ctx context.Context, projectID *uuid.UUID, noteID *uuid.UUID) ([]DeliveryNoteHistory, error)
}

// PurchaseOrderRepository persists purchase orders
type PurchaseOrderRepository interface {
	Create(ctx context.Context, o *PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, int64, error)
}

// MissionOrderRepository persists mission orders
type MissionOrderRepository interface {
	Create(ctx context.Context, o *MissionOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*MissionOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]MissionOrder, int64, error)
}
