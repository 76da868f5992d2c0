package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cashAccountID is the primary key of the single cash register row
var cashAccountID = uuid.MustParse("00000000-0000-0000-0000-0000000000ca")

// GormCashAccountRepository implements ledger.AccountRepository using GORM
type GormCashAccountRepository struct {
	db *gorm.DB
}

// NewGormCashAccountRepository creates a new GormCashAccountRepository
func NewGormCashAccountRepository(db *gorm.DB) *GormCashAccountRepository {
	return &GormCashAccountRepository{db: db}
}

// Ensure creates the account row if it does not exist yet
func (r *GormCashAccountRepository) Ensure(ctx context.Context) (*ledger.CashAccount, error) {
	acc := ledger.NewCashAccount()
	model := models.CashAccountModel{
		ID:        cashAccountID,
		Balance:   acc.Balance.Amount(),
		Version:   acc.Version,
		CreatedAt: acc.UpdatedAt,
		UpdatedAt: acc.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

// Get reads the account without locking
func (r *GormCashAccountRepository) Get(ctx context.Context) (*ledger.CashAccount, error) {
	var model models.CashAccountModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", cashAccountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.Ensure(ctx)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Lock reads the account with SELECT ... FOR UPDATE
func (r *GormCashAccountRepository) Lock(ctx context.Context) (*ledger.CashAccount, error) {
	var model models.CashAccountModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", cashAccountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, err := r.Ensure(ctx); err != nil {
			return nil, err
		}
		err = r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", cashAccountID).Error
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the balance with a version check
func (r *GormCashAccountRepository) Save(ctx context.Context, account *ledger.CashAccount) error {
	result := r.db.WithContext(ctx).
		Model(&models.CashAccountModel{}).
		Where("id = ? AND version = ?", cashAccountID, account.Version-1).
		Updates(map[string]any{
			"balance":    account.Balance.Amount(),
			"version":    account.Version,
			"updated_at": account.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

// GormCashOperationRepository implements ledger.OperationRepository using GORM
type GormCashOperationRepository struct {
	db *gorm.DB
}

// NewGormCashOperationRepository creates a new GormCashOperationRepository
func NewGormCashOperationRepository(db *gorm.DB) *GormCashOperationRepository {
	return &GormCashOperationRepository{db: db}
}

// Create inserts a new operation
func (r *GormCashOperationRepository) Create(ctx context.Context, op *ledger.CashOperation) error {
	var model models.CashOperationModel
	model.FromDomain(op)
	return r.db.WithContext(ctx).Create(&model).Error
}

// SetDebt stores the debt link of an operation that has none yet
func (r *GormCashOperationRepository) SetDebt(ctx context.Context, operationID, debtID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.CashOperationModel{}).
		Where("id = ? AND (debt_id IS NULL OR debt_id = ?)", operationID, debtID).
		Update("debt_id", debtID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Operation is already linked to a debt")
	}
	return nil
}

// FindByID finds an operation by its ID
func (r *GormCashOperationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.CashOperation, error) {
	var model models.CashOperationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("Cash operation", err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several operations keyed by ID
func (r *GormCashOperationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ledger.CashOperation, error) {
	result := make(map[uuid.UUID]*ledger.CashOperation, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.CashOperationModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindAll returns a page of operations and the total count
func (r *GormCashOperationRepository) FindAll(ctx context.Context, filter ledger.OperationFilter) ([]ledger.CashOperation, int64, error) {
	scoped := func() *gorm.DB {
		return applyOperationFilter(r.db.WithContext(ctx).Model(&models.CashOperationModel{}), filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CashOperationModel
	if err := scoped().
		Order(operationSort.by(filter.OrderBy, filter.OrderDir, "id")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return operationsToDomain(rows), total, nil
}

func applyOperationFilter(query *gorm.DB, filter ledger.OperationFilter) *gorm.DB {
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.DebtID != nil {
		query = query.Where("debt_id = ?", *filter.DebtID)
	}
	if filter.IncomeSource != "" {
		query = query.Where("income_source = ?", filter.IncomeSource)
	}
	if filter.DateFrom != nil {
		query = query.Where("effective_date >= ?", startOfDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("effective_date < ?", startOfDay(*filter.DateTo).AddDate(0, 0, 1))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(description) LIKE ? OR LOWER(supplier_name) LIKE ? OR LOWER(observation) LIKE ?)", like, like, like)
	}
	return query
}

// Recent returns the latest operations, newest first
func (r *GormCashOperationRepository) Recent(ctx context.Context, limit int) ([]ledger.CashOperation, error) {
	var rows []models.CashOperationModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return operationsToDomain(rows), nil
}

// Totals sums credits and debits over all operations
func (r *GormCashOperationRepository) Totals(ctx context.Context) (ledger.Totals, error) {
	var row struct {
		Credits decimal.NullDecimal
		Debits  decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.CashOperationModel{}).
		Select(
			"SUM(CASE WHEN type = ? THEN amount ELSE 0 END) AS credits, SUM(CASE WHEN type = ? THEN amount ELSE 0 END) AS debits",
			ledger.OperationCredit, ledger.OperationDebit,
		).
		Scan(&row).Error
	if err != nil {
		return ledger.Totals{}, err
	}
	return ledger.Totals{
		Credits: moneyOrZero(row.Credits),
		Debits:  moneyOrZero(row.Debits),
	}, nil
}

// ExistsForProject reports whether any operation references the project
func (r *GormCashOperationRepository) ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CashOperationModel{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count > 0, err
}

func operationsToDomain(rows []models.CashOperationModel) []ledger.CashOperation {
	ops := make([]ledger.CashOperation, len(rows))
	for i := range rows {
		ops[i] = *rows[i].ToDomain()
	}
	return ops
}

// GormCashHistoryRepository implements ledger.HistoryRepository using GORM
type GormCashHistoryRepository struct {
	db *gorm.DB
}

// NewGormCashHistoryRepository creates a new GormCashHistoryRepository
func NewGormCashHistoryRepository(db *gorm.DB) *GormCashHistoryRepository {
	return &GormCashHistoryRepository{db: db}
}

// Create appends an entry
func (r *GormCashHistoryRepository) Create(ctx context.Context, entry *ledger.HistoryEntry) error {
	var model models.HistoryEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds an entry by its ID
func (r *GormCashHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.HistoryEntry, error) {
	var model models.HistoryEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound("History entry", err)
	}
	return model.ToDomain(), nil
}

// FindByOperation finds the entry written for an operation
func (r *GormCashHistoryRepository) FindByOperation(ctx context.Context, operationID uuid.UUID) (*ledger.HistoryEntry, error) {
	var model models.HistoryEntryModel
	if err := r.db.WithContext(ctx).First(&model, "operation_id = ?", operationID).Error; err != nil {
		return nil, notFound("History entry", err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of the audit trail and the total count
func (r *GormCashHistoryRepository) FindAll(ctx context.Context, filter ledger.HistoryFilter) ([]ledger.HistoryEntry, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.HistoryEntryModel{})
		if filter.NeedsOperationJoin() {
			query = query.Joins("LEFT JOIN cash_operations ON cash_operations.id = cash_history.operation_id")
		}
		return applyHistoryFilter(query, filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.HistoryEntryModel
	if err := scoped().
		Select("cash_history.*").
		Order(historySort.by(filter.OrderBy, filter.OrderDir, "sequence")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]ledger.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

func applyHistoryFilter(query *gorm.DB, f ledger.HistoryFilter) *gorm.DB {
	if f.ProjectID != nil {
		query = query.Where("cash_history.project_id = ?", *f.ProjectID)
	}
	if f.UserID != nil {
		query = query.Where("cash_history.user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		query = query.Where("cash_history.action = ?", f.Action)
	}
	if f.DateFrom != nil {
		query = query.Where("cash_history.effective_date >= ?", startOfDay(*f.DateFrom))
	}
	if f.DateTo != nil {
		query = query.Where("cash_history.effective_date < ?", startOfDay(*f.DateTo).AddDate(0, 0, 1))
	}
	if f.AmountMin != nil {
		query = query.Where("cash_history.amount >= ?", f.AmountMin.Amount())
	}
	if f.AmountMax != nil {
		query = query.Where("cash_history.amount <= ?", f.AmountMax.Amount())
	}
	if f.Reference != "" {
		query = query.Where("cash_history.reference_number = ?", f.Reference)
	}
	if f.OperationType != "" {
		query = query.Where("cash_operations.type = ?", f.OperationType)
	}
	if f.PaymentMode != "" {
		query = query.Where("cash_operations.payment_mode = ?", f.PaymentMode)
	}
	if f.IncomeSource != "" {
		query = query.Where("cash_operations.income_source = ?", f.IncomeSource)
	}
	if f.Supplier != "" {
		query = query.Where("LOWER(cash_operations.supplier_name) LIKE ?", "%"+strings.ToLower(f.Supplier)+"%")
	}
	if f.Bank != "" {
		query = query.Where("LOWER(cash_operations.bank) LIKE ?", "%"+strings.ToLower(f.Bank)+"%")
	}
	if f.ChequeNumber != "" {
		query = query.Where("cash_operations.cheque_number = ?", f.ChequeNumber)
	}
	if f.ByCollaborator != nil {
		query = query.Where("cash_operations.by_collaborator = ?", *f.ByCollaborator)
	}
	if f.DebtID != nil {
		query = query.Where("cash_operations.debt_id = ?", *f.DebtID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"(LOWER(cash_history.description) LIKE ? OR LOWER(cash_history.reference_number) LIKE ? OR LOWER(cash_operations.supplier_name) LIKE ? OR LOWER(cash_operations.observation) LIKE ?)",
			like, like, like, like,
		)
	}
	return query
}

// References returns every reference number in issue order
func (r *GormCashHistoryRepository) References(ctx context.Context) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).
		Model(&models.HistoryEntryModel{}).
		Order("sequence ASC").
		Pluck("reference_number", &refs).Error
	return refs, err
}

func moneyOrZero(d decimal.NullDecimal) valueobject.Money {
	if !d.Valid {
		return valueobject.Zero()
	}
	return valueobject.NewMoney(d.Decimal)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var (
	_ ledger.AccountRepository   = (*GormCashAccountRepository)(nil)
	_ ledger.OperationRepository = (*GormCashOperationRepository)(nil)
	_ ledger.HistoryRepository   = (*GormCashHistoryRepository)(nil)
)
