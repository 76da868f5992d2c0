package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/ech/backend/internal/application/transaction"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGormTransactionScope_RetriesConflicts(t *testing.T) {
	scope := NewGormTransactionScope(testutil.NewSQLiteDB(t), zap.NewNop())

	attempts := 0
	err := scope.Execute(context.Background(), func(repos transaction.Repositories) error {
		attempts++
		if attempts < 3 {
			return errVersionConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestGormTransactionScope_GivesUpWithConflict(t *testing.T) {
	scope := NewGormTransactionScope(testutil.NewSQLiteDB(t), zap.NewNop()).WithMaxAttempts(2)

	attempts := 0
	err := scope.Execute(context.Background(), func(repos transaction.Repositories) error {
		attempts++
		return errVersionConflict
	})
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
	assert.Equal(t, 2, attempts)
}

func TestGormTransactionScope_DomainErrorsAreNotRetried(t *testing.T) {
	scope := NewGormTransactionScope(testutil.NewSQLiteDB(t), zap.NewNop())

	attempts := 0
	err := scope.Execute(context.Background(), func(repos transaction.Repositories) error {
		attempts++
		return shared.NewDomainError(shared.CodeInsufficientFunds, "Insufficient funds")
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	assert.Equal(t, 1, attempts)
}

func TestGormTransactionScope_RollsBackEverything(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	scope := NewGormTransactionScope(db, zap.NewNop())
	ctx := context.Background()

	err := scope.Execute(ctx, func(repos transaction.Repositories) error {
		p, err := project.NewProject(project.Details{
			Name:            "Lycée Tlemcen",
			EstimatedBudget: valueobject.MustMoney("1000"),
			StartDate:       time.Now(),
		}, nil)
		require.NoError(t, err)
		require.NoError(t, repos.Projects().Create(ctx, p))
		_, err = repos.Sequences().Next(ctx, "project")
		require.NoError(t, err)
		return shared.NewValidationError("stop")
	})
	require.Error(t, err)

	reads := NewRepositories(db)
	totals, err := reads.Projects().Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), totals.Count)
	current, err := reads.Sequences().Current(ctx, "project")
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)
}

func TestGormTransactionScope_StopsOnCancelledContext(t *testing.T) {
	scope := NewGormTransactionScope(testutil.NewSQLiteDB(t), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := scope.Execute(ctx, func(repos transaction.Repositories) error {
		attempts++
		cancel()
		return errVersionConflict
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
