package persistence

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ech/backend/internal/application/transaction"
	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/document"
	"github.com/ech/backend/internal/domain/identity"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultMaxAttempts is how many times a conflicting transaction is tried
const DefaultMaxAttempts = 5

// GormTransactionScope implements transaction.Scope using GORM transactions.
// Write conflicts (deadlock, serialization failure, duplicate sequence
// number, stale version) roll back and run the closure again.
type GormTransactionScope struct {
	db          *gorm.DB
	maxAttempts int
	baseBackoff time.Duration
	logger      *zap.Logger
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, logger *zap.Logger) *GormTransactionScope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormTransactionScope{
		db:          db,
		maxAttempts: DefaultMaxAttempts,
		baseBackoff: 10 * time.Millisecond,
		logger:      logger,
	}
}

// WithMaxAttempts overrides the retry budget
func (s *GormTransactionScope) WithMaxAttempts(n int) *GormTransactionScope {
	if n > 0 {
		s.maxAttempts = n
	}
	return s
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewRepositories(tx))
		})
		if !IsRetryable(err) {
			return translateError(err)
		}
		s.logger.Debug("Retrying conflicting transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == s.maxAttempts {
			break
		}
		if waitErr := s.backoff(ctx, attempt); waitErr != nil {
			return waitErr
		}
	}
	s.logger.Warn("Transaction gave up after repeated conflicts",
		zap.Int("attempts", s.maxAttempts),
		zap.Error(err),
	)
	return translateError(err)
}

func (s *GormTransactionScope) backoff(ctx context.Context, attempt int) error {
	d := s.baseBackoff * time.Duration(1<<(attempt-1))
	d += time.Duration(rand.Int64N(int64(s.baseBackoff) + 1))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// gormRepositories provides access to all repositories bound to one *gorm.DB,
// either a transaction or the plain connection pool.
type gormRepositories struct {
	tx *gorm.DB
}

// NewRepositories binds every repository to db
func NewRepositories(db *gorm.DB) transaction.Repositories {
	return &gormRepositories{tx: db}
}

// Accounts returns the cash account repository
func (r *gormRepositories) Accounts() ledger.AccountRepository {
	return NewGormCashAccountRepository(r.tx)
}

// Operations returns the cash operation repository
func (r *gormRepositories) Operations() ledger.OperationRepository {
	return NewGormCashOperationRepository(r.tx)
}

// History returns the audit trail repository
func (r *gormRepositories) History() ledger.HistoryRepository {
	return NewGormCashHistoryRepository(r.tx)
}

// Sequences returns the counter repository
func (r *gormRepositories) Sequences() shared.Sequencer {
	return NewGormSequenceRepository(r.tx)
}

// Debts returns the debt repository
func (r *gormRepositories) Debts() debt.Repository {
	return NewGormDebtRepository(r.tx)
}

// Projects returns the project repository
func (r *gormRepositories) Projects() project.Repository {
	return NewGormProjectRepository(r.tx)
}

// Revenues returns the revenue repository
func (r *gormRepositories) Revenues() project.RevenueRepository {
	return NewGormRevenueRepository(r.tx)
}

// DeliveryNotes returns the delivery note repository
func (r *gormRepositories) DeliveryNotes() document.DeliveryNoteRepository {
	return NewGormDeliveryNoteRepository(r.tx)
}

// PurchaseOrders returns the purchase order repository
func (r *gormRepositories) PurchaseOrders() document.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// MissionOrders returns the mission order repository
func (r *gormRepositories) MissionOrders() document.MissionOrderRepository {
	return NewGormMissionOrderRepository(r.tx)
}

// Users returns the user repository
func (r *gormRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Ensure GormTransactionScope implements transaction.Scope
var _ transaction.Scope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements transaction.Repositories
var _ transaction.Repositories = (*gormRepositories)(nil)
