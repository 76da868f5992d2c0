package persistence

import (
	"context"
	"strings"

	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository implements project.Repository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create inserts a new project
func (r *GormProjectRepository) Create(ctx context.Context, p *project.Project) error {
	var model models.ProjectModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Project", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the project with SELECT ... FOR UPDATE
func (r *GormProjectRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Project", err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several projects keyed by ID
func (r *GormProjectRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*project.Project, error) {
	result := make(map[uuid.UUID]*project.Project, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.ProjectModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindAll returns a page of projects and the total count
func (r *GormProjectRepository) FindAll(ctx context.Context, filter project.Filter) ([]project.Project, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.ProjectModel{})
		if filter.HasCollaborator != nil {
			if *filter.HasCollaborator {
				query = query.Where("collaborator_name <> ''")
			} else {
				query = query.Where("(collaborator_name = '' OR collaborator_name IS NULL)")
			}
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			query = query.Where(
				"(LOWER(name) LIKE ? OR LOWER(operation_reference) LIKE ? OR LOWER(operation_number) LIKE ? OR LOWER(collaborator_name) LIKE ?)",
				like, like, like, like,
			)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProjectModel
	if err := scoped().
		Order(projectSort.by(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	projects := make([]project.Project, len(rows))
	for i := range rows {
		projects[i] = *rows[i].ToDomain()
	}
	return projects, total, nil
}

// Save writes the project with an optimistic version check. Profit is
// rewritten from the totals on every save.
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProjectModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(map[string]any{
			"name":                p.Name,
			"description":         p.Description,
			"estimated_budget":    p.EstimatedBudget.Amount(),
			"operation_reference": p.OperationReference,
			"operation_number":    p.OperationNumber,
			"start_date":          p.StartDate,
			"duration_months":     p.DurationMonths,
			"collaborator_name":   p.CollaboratorName,
			"expenditures":        p.Expenditures.Amount(),
			"receivables":         p.Receivables.Amount(),
			"profit":              p.Profit().Amount(),
			"version":             p.Version,
			"updated_at":          p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

// Delete removes a project
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProjectModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Project")
	}
	return nil
}

// Totals sums the financial aggregates of all projects
func (r *GormProjectRepository) Totals(ctx context.Context) (project.Totals, error) {
	var row struct {
		Count        int64
		Budget       decimal.NullDecimal
		Expenditures decimal.NullDecimal
		Receivables  decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProjectModel{}).
		Select("COUNT(*) AS count, SUM(estimated_budget) AS budget, SUM(expenditures) AS expenditures, SUM(receivables) AS receivables").
		Scan(&row).Error; err != nil {
		return project.Totals{}, err
	}
	t := project.Totals{
		Count:        row.Count,
		Budget:       moneyOrZero(row.Budget),
		Expenditures: moneyOrZero(row.Expenditures),
		Receivables:  moneyOrZero(row.Receivables),
	}
	t.Profit = t.Receivables.Sub(t.Expenditures)
	return t, nil
}

// GormRevenueRepository implements project.RevenueRepository using GORM
type GormRevenueRepository struct {
	db *gorm.DB
}

// NewGormRevenueRepository creates a new GormRevenueRepository
func NewGormRevenueRepository(db *gorm.DB) *GormRevenueRepository {
	return &GormRevenueRepository{db: db}
}

// Create inserts a new revenue
func (r *GormRevenueRepository) Create(ctx context.Context, rev *project.Revenue) error {
	var model models.RevenueModel
	model.FromDomain(rev)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds a revenue by its ID
func (r *GormRevenueRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Revenue, error) {
	var model models.RevenueModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Revenue", err)
	}
	return model.ToDomain(), nil
}

// ExistsByCode reports whether a revenue with code exists
func (r *GormRevenueRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RevenueModel{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// FindAll lists revenues, newest first
func (r *GormRevenueRepository) FindAll(ctx context.Context, filter project.RevenueFilter) ([]project.Revenue, error) {
	query := r.db.WithContext(ctx).Model(&models.RevenueModel{})
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", startOfDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("date < ?", startOfDay(*filter.DateTo).AddDate(0, 0, 1))
	}

	var rows []models.RevenueModel
	if err := query.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	revenues := make([]project.Revenue, 0, len(rows))
	for i := range rows {
		rev := rows[i].ToDomain()
		if !matchesCalendar(rev, filter) {
			continue
		}
		revenues = append(revenues, *rev)
	}
	return revenues, nil
}

// matchesCalendar applies the year/month/day filters in Go so the query
// stays portable across SQL dialects.
func matchesCalendar(rev *project.Revenue, f project.RevenueFilter) bool {
	if f.Year != 0 && rev.Date.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(rev.Date.Month()) != f.Month {
		return false
	}
	if f.Day != 0 && rev.Date.Day() != f.Day {
		return false
	}
	return true
}

// Delete removes a revenue
func (r *GormRevenueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RevenueModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Revenue")
	}
	return nil
}

// ExistsForProject reports whether any revenue references the project
func (r *GormRevenueRepository) ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RevenueModel{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count > 0, err
}

var (
	_ project.Repository        = (*GormProjectRepository)(nil)
	_ project.RevenueRepository = (*GormRevenueRepository)(nil)
)
