package persistence

import (
	"context"
	"strings"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDebtRepository implements debt.Repository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// Create inserts a new debt
func (r *GormDebtRepository) Create(ctx context.Context, d *debt.Debt) error {
	var model models.DebtModel
	model.FromDomain(d)
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error
}

// FindByIDForUpdate loads the debt with SELECT ... FOR UPDATE
func (r *GormDebtRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*debt.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Debt", err)
	}
	return model.ToDomain(), nil
}

// FindByID loads the debt with its payments, oldest first
func (r *GormDebtRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date ASC").Order("created_at ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Debt", err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of debts and the total count
func (r *GormDebtRepository) FindAll(ctx context.Context, filter debt.Filter) ([]debt.Debt, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.DebtModel{})
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.ProjectID != nil {
			query = query.Where("project_id = ?", *filter.ProjectID)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			query = query.Where("(LOWER(creditor_name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DebtModel
	if err := scoped().
		Order(debtSort.by(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	debts := make([]debt.Debt, len(rows))
	for i := range rows {
		debts[i] = *rows[i].ToDomain()
	}
	return debts, total, nil
}

// Save writes remaining amount and status with an optimistic version check
func (r *GormDebtRepository) Save(ctx context.Context, d *debt.Debt) error {
	result := r.db.WithContext(ctx).
		Model(&models.DebtModel{}).
		Where("id = ? AND version = ?", d.ID, d.Version-1).
		Updates(map[string]any{
			"remaining_amount": d.Remaining.Amount(),
			"status":           d.Status,
			"completed_at":     d.CompletedAt,
			"version":          d.Version,
			"updated_at":       d.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

// AddPayment inserts a repayment row
func (r *GormDebtRepository) AddPayment(ctx context.Context, p *debt.Payment) error {
	var model models.DebtPaymentModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// CountByStatus counts debts per status
func (r *GormDebtRepository) CountByStatus(ctx context.Context) (debt.Counts, error) {
	var rows []struct {
		Status debt.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DebtModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return debt.Counts{}, err
	}
	var counts debt.Counts
	for _, row := range rows {
		switch row.Status {
		case debt.StatusActive:
			counts.Active = row.Count
		case debt.StatusCompleted:
			counts.Completed = row.Count
		}
	}
	return counts, nil
}

// ExistsForProject reports whether any debt references the project
func (r *GormDebtRepository) ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DebtModel{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count > 0, err
}

var _ debt.Repository = (*GormDebtRepository)(nil)
