package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDebtRepository_PaymentsAndStatus(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormDebtRepository(db)
	ctx := context.Background()

	d, err := debt.NewDebt("Karim", valueobject.MustMoney("500"), nil, "Prêt", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, d))

	pay := func(amount string, at time.Time) {
		locked, err := repo.FindByIDForUpdate(ctx, d.ID)
		require.NoError(t, err)
		p := debt.NewPayment(locked.ID, valueobject.MustMoney(amount), valueobject.PaymentDetails{}, "", at, uuid.New(), nil)
		require.NoError(t, locked.ApplyPayment(p))
		require.NoError(t, repo.AddPayment(ctx, &p))
		require.NoError(t, repo.Save(ctx, locked))
	}
	pay("200", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	pay("300", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	found, err := repo.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusCompleted, found.Status)
	assert.True(t, found.Remaining.IsZero())
	require.NotNil(t, found.CompletedAt)
	require.Len(t, found.Payments, 2)
	assert.Equal(t, "200.00", found.Payments[0].Amount.String())
	assert.NoError(t, found.CheckInvariants())

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, debt.Counts{Active: 0, Completed: 1}, counts)
}

func TestGormDebtRepository_FindAllFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormDebtRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	for _, c := range []struct {
		creditor string
		project  *uuid.UUID
	}{{"Karim", nil}, {"Sonelgaz", &projectID}, {"Karima", &projectID}} {
		d, err := debt.NewDebt(c.creditor, valueobject.MustMoney("10"), c.project, "", nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, d))
	}

	page := shared.Filter{Page: 1, PageSize: 10, OrderBy: "creditor_name", OrderDir: "asc"}
	debts, total, err := repo.FindAll(ctx, debt.Filter{Filter: page, ProjectID: &projectID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Karima", debts[0].CreditorName)

	page.Search = "karim"
	_, total, err = repo.FindAll(ctx, debt.Filter{Filter: page, Status: debt.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	used, err := repo.ExistsForProject(ctx, projectID)
	require.NoError(t, err)
	assert.True(t, used)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
