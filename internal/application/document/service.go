// Package document issues the numbered business documents: delivery notes
// (BL), purchase orders (BC) and mission orders (OM).
package document

import (
	"context"

	"github.com/ech/backend/internal/application/transaction"
	"github.com/ech/backend/internal/domain/document"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles document use cases. Numbers come from the shared
// sequencer inside the transaction that stores the document, so a
// rolled back document never burns a number.
type Service struct {
	scope  transaction.Scope
	reads  transaction.Repositories
	logger *zap.Logger
}

// NewService creates a document service
func NewService(scope transaction.Scope, reads transaction.Repositories, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scope: scope, reads: reads, logger: logger}
}

// CreateDeliveryNote stores a delivery note numbered within its project and year
func (s *Service) CreateDeliveryNote(ctx context.Context, in DeliveryNoteInput, userID *uuid.UUID) (*DeliveryNoteView, error) {
	content, err := in.content()
	if err != nil {
		return nil, err
	}
	note, err := document.NewDeliveryNote(in.ProjectID, content, userID)
	if err != nil {
		return nil, err
	}

	var projectName string
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		note.Number = ""
		p, err := repos.Projects().FindByID(ctx, note.ProjectID)
		if err != nil {
			return err
		}
		projectName = p.Name
		n, err := repos.Sequences().Next(ctx, document.DeliveryNoteScope(note.Year(), p.Number))
		if err != nil {
			return err
		}
		if err := note.AssignNumber(p.Number, n); err != nil {
			return err
		}
		if err := repos.DeliveryNotes().Create(ctx, note); err != nil {
			return err
		}
		return repos.DeliveryNotes().AddHistory(ctx, document.NewDeliveryNoteHistory(note, document.HistoryCreated, userID, ""))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Delivery note created",
		zap.String("delivery_note_id", note.ID.String()),
		zap.String("number", note.Number),
		zap.String("project_id", note.ProjectID.String()),
	)
	view := toDeliveryNoteView(note)
	view.ProjectName = projectName
	return &view, nil
}

// UpdateDeliveryNote replaces the content of a note. Its number is kept.
func (s *Service) UpdateDeliveryNote(ctx context.Context, id uuid.UUID, in DeliveryNoteInput, userID *uuid.UUID) (*DeliveryNoteView, error) {
	content, err := in.content()
	if err != nil {
		return nil, err
	}
	var view DeliveryNoteView
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		note, err := repos.DeliveryNotes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := note.Replace(content); err != nil {
			return err
		}
		if err := repos.DeliveryNotes().Save(ctx, note); err != nil {
			return err
		}
		if err := repos.DeliveryNotes().AddHistory(ctx, document.NewDeliveryNoteHistory(note, document.HistoryUpdated, userID, "")); err != nil {
			return err
		}
		view = toDeliveryNoteView(note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteDeliveryNote removes a note. Its audit trail is kept.
func (s *Service) DeleteDeliveryNote(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		note, err := repos.DeliveryNotes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.DeliveryNotes().Delete(ctx, note.ID); err != nil {
			return err
		}
		return repos.DeliveryNotes().AddHistory(ctx, document.NewDeliveryNoteHistory(note, document.HistoryDeleted, userID, "Bon de livraison "+note.Number+" supprimé"))
	})
	if err != nil {
		return err
	}
	s.logger.Info("Delivery note deleted", zap.String("delivery_note_id", id.String()))
	return nil
}

// GetDeliveryNote returns one note with its project name
func (s *Service) GetDeliveryNote(ctx context.Context, id uuid.UUID) (*DeliveryNoteView, error) {
	note, err := s.reads.DeliveryNotes().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toDeliveryNoteView(note)
	if p, err := s.reads.Projects().FindByID(ctx, note.ProjectID); err == nil {
		view.ProjectName = p.Name
	}
	return &view, nil
}

// ListDeliveryNotes returns a page of notes
func (s *Service) ListDeliveryNotes(ctx context.Context, filter document.DeliveryNoteFilter) (*shared.Paginated[DeliveryNoteView], error) {
	filter.Normalize()
	notes, total, err := s.reads.DeliveryNotes().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string)
	views := make([]DeliveryNoteView, len(notes))
	for i := range notes {
		views[i] = toDeliveryNoteView(&notes[i])
		name, ok := names[notes[i].ProjectID]
		if !ok {
			if p, err := s.reads.Projects().FindByID(ctx, notes[i].ProjectID); err == nil {
				name = p.Name
			}
			names[notes[i].ProjectID] = name
		}
		views[i].ProjectName = name
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// DeliveryNoteHistory returns the audit trail, newest first. Either id may be nil.
func (s *Service) DeliveryNoteHistory(ctx context.Context, projectID, noteID *uuid.UUID) ([]HistoryView, error) {
	entries, err := s.reads.DeliveryNotes().History(ctx, projectID, noteID)
	if err != nil {
		return nil, err
	}
	views := make([]HistoryView, len(entries))
	for i := range entries {
		views[i] = toHistoryView(&entries[i])
	}
	return views, nil
}

// RecordPDFGenerated stores the object key of a rendered note
func (s *Service) RecordPDFGenerated(ctx context.Context, id uuid.UUID, key string, userID *uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		note, err := repos.DeliveryNotes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		note.MarkPDFGenerated(key, userID)
		if err := repos.DeliveryNotes().Save(ctx, note); err != nil {
			return err
		}
		return repos.DeliveryNotes().AddHistory(ctx, document.NewDeliveryNoteHistory(note, document.HistoryPDFGenerated, userID, ""))
	})
}

// RecordPDFDownloaded appends a download line to the audit trail
func (s *Service) RecordPDFDownloaded(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	note, err := s.reads.DeliveryNotes().FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.reads.DeliveryNotes().AddHistory(ctx, document.NewDeliveryNoteHistory(note, document.HistoryPDFDownloaded, userID, ""))
}

// CreatePurchaseOrder stores a purchase order numbered within its year
func (s *Service) CreatePurchaseOrder(ctx context.Context, in PurchaseOrderInput, userID *uuid.UUID) (*PurchaseOrderView, error) {
	lines := make([]document.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		line, err := document.NewOrderLine(l.Designation, l.Quantity, l.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	order, err := document.NewPurchaseOrder(in.OrderDate, in.SupplierName, in.Description, in.ProjectID, lines, userID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		order.Number = ""
		if order.ProjectID != nil {
			if _, err := repos.Projects().FindByID(ctx, *order.ProjectID); err != nil {
				return err
			}
		}
		n, err := repos.Sequences().Next(ctx, document.PurchaseOrderScope(order.Year()))
		if err != nil {
			return err
		}
		if err := order.AssignNumber(n); err != nil {
			return err
		}
		return repos.PurchaseOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order created", zap.String("number", order.Number))
	view := toPurchaseOrderView(order)
	return &view, nil
}

// GetPurchaseOrder returns one purchase order
func (s *Service) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrderView, error) {
	order, err := s.reads.PurchaseOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toPurchaseOrderView(order)
	return &view, nil
}

// ListPurchaseOrders returns a page of purchase orders
func (s *Service) ListPurchaseOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[PurchaseOrderView], error) {
	filter.Normalize()
	orders, total, err := s.reads.PurchaseOrders().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]PurchaseOrderView, len(orders))
	for i := range orders {
		views[i] = toPurchaseOrderView(&orders[i])
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CreateMissionOrder stores a mission order numbered within the year of departure
func (s *Service) CreateMissionOrder(ctx context.Context, in MissionOrderInput, userID *uuid.UUID) (*MissionOrderView, error) {
	order, err := document.NewMissionOrder(in, userID)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		order.Number = ""
		n, err := repos.Sequences().Next(ctx, document.MissionOrderScope(order.Year()))
		if err != nil {
			return err
		}
		if err := order.AssignNumber(n); err != nil {
			return err
		}
		return repos.MissionOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mission order created", zap.String("number", order.Number))
	view := toMissionOrderView(order)
	return &view, nil
}

// GetMissionOrder returns one mission order
func (s *Service) GetMissionOrder(ctx context.Context, id uuid.UUID) (*MissionOrderView, error) {
	order, err := s.reads.MissionOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toMissionOrderView(order)
	return &view, nil
}

// ListMissionOrders returns a page of mission orders
func (s *Service) ListMissionOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[MissionOrderView], error) {
	filter.Normalize()
	orders, total, err := s.reads.MissionOrders().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]MissionOrderView, len(orders))
	for i := range orders {
		views[i] = toMissionOrderView(&orders[i])
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}
