package persistence

import (
	"context"
	"strings"

	"github.com/ech/backend/internal/domain/document"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderedChildren(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// GormDeliveryNoteRepository implements document.DeliveryNoteRepository using GORM
type GormDeliveryNoteRepository struct {
	db *gorm.DB
}

// NewGormDeliveryNoteRepository creates a new GormDeliveryNoteRepository
func NewGormDeliveryNoteRepository(db *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: db}
}

// Create inserts the note with its items and charges
func (r *GormDeliveryNoteRepository) Create(ctx context.Context, n *document.DeliveryNote) error {
	var model models.DeliveryNoteModel
	model.FromDomain(n)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&model).Error; err != nil {
			return err
		}
		return createNoteChildren(tx, &model)
	})
}

func createNoteChildren(tx *gorm.DB, model *models.DeliveryNoteModel) error {
	if len(model.Items) > 0 {
		if err := tx.Create(&model.Items).Error; err != nil {
			return err
		}
	}
	if len(model.Charges) > 0 {
		if err := tx.Create(&model.Charges).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads a note with its children in input order
func (r *GormDeliveryNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.DeliveryNote, error) {
	var model models.DeliveryNoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedChildren).
		Preload("Charges", orderedChildren).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Delivery note", err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of notes and the total count
func (r *GormDeliveryNoteRepository) FindAll(ctx context.Context, filter document.DeliveryNoteFilter) ([]document.DeliveryNote, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.DeliveryNoteModel{})
		if filter.ProjectID != nil {
			query = query.Where("project_id = ?", *filter.ProjectID)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			query = query.Where("(LOWER(number) LIKE ? OR LOWER(description) LIKE ?)", like, like)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DeliveryNoteModel
	if err := scoped().
		Preload("Items", orderedChildren).
		Preload("Charges", orderedChildren).
		Order(documentSort.by(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	notes := make([]document.DeliveryNote, len(rows))
	for i := range rows {
		notes[i] = *rows[i].ToDomain()
	}
	return notes, total, nil
}

// Save replaces the children and stores the recomputed total
func (r *GormDeliveryNoteRepository) Save(ctx context.Context, n *document.DeliveryNote) error {
	var model models.DeliveryNoteModel
	model.FromDomain(n)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DeliveryNoteModel{}).
			Where("id = ?", n.ID).
			Updates(map[string]any{
				"origin_address":      model.OriginAddress,
				"destination_address": model.DestinationAddress,
				"description":         model.Description,
				"payment_method":      model.PaymentMethod,
				"total_amount":        model.TotalAmount,
				"pdf_key":             model.PDFKey,
				"pdf_generated_at":    model.PDFGeneratedAt,
				"pdf_generated_by":    model.PDFGeneratedBy,
				"version":             model.Version,
				"updated_at":          model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Delivery note")
		}
		if err := tx.Where("delivery_note_id = ?", n.ID).Delete(&models.DeliveryNoteItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("delivery_note_id = ?", n.ID).Delete(&models.DeliveryNoteChargeModel{}).Error; err != nil {
			return err
		}
		return createNoteChildren(tx, &model)
	})
}

// Delete removes a note and its children. History rows are kept.
func (r *GormDeliveryNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("delivery_note_id = ?", id).Delete(&models.DeliveryNoteItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("delivery_note_id = ?", id).Delete(&models.DeliveryNoteChargeModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DeliveryNoteModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Delivery note")
		}
		return nil
	})
}

// ExistsForProject reports whether any note references the project
func (r *GormDeliveryNoteRepository) ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryNoteModel{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count > 0, err
}

// AddHistory appends a history line
func (r *GormDeliveryNoteRepository) AddHistory(ctx context.Context, h *document.DeliveryNoteHistory) error {
	var model models.DeliveryNoteHistoryModel
	model.FromDomain(h)
	return r.db.WithContext(ctx).Create(&model).Error
}

// History lists history lines, newest first
func (r *GormDeliveryNoteRepository) History(ctx context.Context, projectID *uuid.UUID, noteID *uuid.UUID) ([]document.DeliveryNoteHistory, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryNoteHistoryModel{})
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if noteID != nil {
		query = query.Where("delivery_note_id = ?", *noteID)
	}
	var rows []models.DeliveryNoteHistoryModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	history := make([]document.DeliveryNoteHistory, len(rows))
	for i := range rows {
		history[i] = *rows[i].ToDomain()
	}
	return history, nil
}

// GormPurchaseOrderRepository implements document.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// Create inserts the order with its lines
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, o *document.PurchaseOrder) error {
	var model models.PurchaseOrderModel
	model.FromDomain(o)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&model).Error; err != nil {
			return err
		}
		if len(model.Lines) > 0 {
			return tx.Create(&model.Lines).Error
		}
		return nil
	})
}

// FindByID loads an order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedChildren).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Purchase order", err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of orders and the total count
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.PurchaseOrder, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			query = query.Where("(LOWER(number) LIKE ? OR LOWER(supplier_name) LIKE ?)", like, like)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PurchaseOrderModel
	if err := scoped().
		Preload("Lines", orderedChildren).
		Order(documentSort.by(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]document.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// GormMissionOrderRepository implements document.MissionOrderRepository using GORM
type GormMissionOrderRepository struct {
	db *gorm.DB
}

// NewGormMissionOrderRepository creates a new GormMissionOrderRepository
func NewGormMissionOrderRepository(db *gorm.DB) *GormMissionOrderRepository {
	return &GormMissionOrderRepository{db: db}
}

// Create inserts a new mission order
func (r *GormMissionOrderRepository) Create(ctx context.Context, o *document.MissionOrder) error {
	var model models.MissionOrderModel
	model.FromDomain(o)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds a mission order by its ID
func (r *GormMissionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.MissionOrder, error) {
	var model models.MissionOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Mission order", err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of mission orders and the total count
func (r *GormMissionOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.MissionOrder, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.MissionOrderModel{})
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			query = query.Where("(LOWER(number) LIKE ? OR LOWER(full_name) LIKE ? OR LOWER(destination) LIKE ?)", like, like, like)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.MissionOrderModel
	if err := scoped().
		Order(documentSort.by(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]document.MissionOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

var (
	_ document.DeliveryNoteRepository  = (*GormDeliveryNoteRepository)(nil)
	_ document.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
	_ document.MissionOrderRepository  = (*GormMissionOrderRepository)(nil)
)
