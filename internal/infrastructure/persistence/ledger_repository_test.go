package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustCredit(t *testing.T, acc *ledger.CashAccount, amount string, date time.Time) *ledger.CashOperation {
	t.Helper()
	op, err := acc.ApplyCredit(ledger.CreditRequest{
		Amount:        valueobject.MustMoney(amount),
		IncomeSource:  ledger.IncomePersonal,
		Description:   "Apport " + amount,
		EffectiveDate: date,
	})
	require.NoError(t, err)
	return op
}

// recordCredit writes a credit the way the ledger service does
func recordCredit(t *testing.T, db *gorm.DB, amount string, n int64, date time.Time) (*ledger.CashOperation, *ledger.HistoryEntry) {
	t.Helper()
	ctx := context.Background()
	repos := NewRepositories(db)
	acc, err := repos.Accounts().Lock(ctx)
	require.NoError(t, err)
	op := mustCredit(t, acc, amount, date)
	require.NoError(t, repos.Accounts().Save(ctx, acc))
	require.NoError(t, repos.Operations().Create(ctx, op))
	entry := ledger.NewOperationEntry(ledger.FormatReference("OP", n), op)
	require.NoError(t, repos.History().Create(ctx, entry))
	return op, entry
}

func TestGormCashAccountRepository_EnsureIsIdempotent(t *testing.T) {
	repo := NewGormCashAccountRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	first, err := repo.Ensure(ctx)
	require.NoError(t, err)
	second, err := repo.Ensure(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Balance.IsZero())
}

func TestGormCashAccountRepository_LockCreatesAccount(t *testing.T) {
	repo := NewGormCashAccountRepository(testutil.NewSQLiteDB(t))

	acc, err := repo.Lock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cashAccountID, acc.ID)
	assert.Equal(t, 1, acc.Version)
}

func TestGormCashAccountRepository_SaveDetectsStaleVersion(t *testing.T) {
	repo := NewGormCashAccountRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	first, err := repo.Lock(ctx)
	require.NoError(t, err)
	stale, err := repo.Get(ctx)
	require.NoError(t, err)

	mustCredit(t, first, "100.00", time.Now())
	require.NoError(t, repo.Save(ctx, first))

	mustCredit(t, stale, "50.00", time.Now())
	err = repo.Save(ctx, stale)
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
	assert.True(t, IsRetryable(err))

	current, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100.00", current.Balance.String())
}

func TestGormCashOperationRepository_SetDebtOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	op, _ := recordCredit(t, db, "10.00", 1, time.Now())
	repo := NewGormCashOperationRepository(db)

	debtID := uuid.New()
	require.NoError(t, repo.SetDebt(ctx, op.ID, debtID))
	require.Error(t, repo.SetDebt(ctx, op.ID, uuid.New()))

	found, err := repo.FindByID(ctx, op.ID)
	require.NoError(t, err)
	require.NotNil(t, found.DebtID)
	assert.Equal(t, debtID, *found.DebtID)
}

func TestGormCashOperationRepository_FindByIDNotFound(t *testing.T) {
	repo := NewGormCashOperationRepository(testutil.NewSQLiteDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCashOperationRepository_Totals(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	recordCredit(t, db, "1000.00", 1, time.Now())
	recordCredit(t, db, "155.17", 2, time.Now())

	totals, err := NewGormCashOperationRepository(db).Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1155.17", totals.Credits.String())
	assert.True(t, totals.Debits.IsZero())
}

func TestGormCashHistoryRepository_OrdersReferencesNumerically(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormCashHistoryRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, n := range []int64{999, 1000, 998} {
		_, entry := recordCredit(t, db, "1.00", n, base)
		assert.Equal(t, ledger.FormatReference("OP", n), entry.Reference)
	}

	entries, total, err := repo.FindAll(ctx, ledger.HistoryFilter{
		Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "reference_number", OrderDir: "asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"OP998", "OP999", "OP1000"},
		[]string{entries[0].Reference, entries[1].Reference, entries[2].Reference})

	refs, err := repo.References(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"OP998", "OP999", "OP1000"}, refs)
}

func TestGormCashHistoryRepository_DuplicateReferenceIsRetryable(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, entry := recordCredit(t, db, "5.00", 7, time.Now())

	dup := *entry
	dup.ID = uuid.New()
	err := NewGormCashHistoryRepository(db).Create(context.Background(), &dup)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestGormCashHistoryRepository_Filters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormCashHistoryRepository(db)
	ctx := context.Background()

	jan := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
	recordCredit(t, db, "100.00", 1, jan)
	recordCredit(t, db, "250.00", 2, feb)

	// A cheque-paid debit of a project
	projectID := uuid.New()
	repos := NewRepositories(db)
	acc, err := repos.Accounts().Lock(ctx)
	require.NoError(t, err)
	details, err := valueobject.NewPaymentDetails(valueobject.PaymentModeCheque, "Sarl Bati", "BNA", "CH-778")
	require.NoError(t, err)
	op, err := acc.ApplyDebit(ledger.DebitRequest{
		Amount:        valueobject.MustMoney("40.00"),
		ProjectID:     &projectID,
		Payment:       details,
		Description:   "Ciment",
		EffectiveDate: feb,
	})
	require.NoError(t, err)
	require.NoError(t, repos.Accounts().Save(ctx, acc))
	require.NoError(t, repos.Operations().Create(ctx, op))
	require.NoError(t, repos.History().Create(ctx, ledger.NewOperationEntry("OP003", op)))

	page := shared.Filter{Page: 1, PageSize: 50}
	minAmount := valueobject.MustMoney("200")
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter ledger.HistoryFilter
		want   []string
	}{
		{"action", ledger.HistoryFilter{Filter: page, Action: ledger.ActionDebit}, []string{"OP003"}},
		{"project", ledger.HistoryFilter{Filter: page, ProjectID: &projectID}, []string{"OP003"}},
		{"amount min", ledger.HistoryFilter{Filter: page, AmountMin: &minAmount}, []string{"OP002"}},
		{"date range includes the whole last day", ledger.HistoryFilter{Filter: page, DateFrom: &from, DateTo: &to}, []string{"OP003", "OP002"}},
		{"payment mode", ledger.HistoryFilter{Filter: page, PaymentMode: valueobject.PaymentModeCheque}, []string{"OP003"}},
		{"supplier is case insensitive", ledger.HistoryFilter{Filter: page, Supplier: "bati"}, []string{"OP003"}},
		{"cheque number", ledger.HistoryFilter{Filter: page, ChequeNumber: "CH-778"}, []string{"OP003"}},
		{"reference", ledger.HistoryFilter{Filter: page, Reference: "OP001"}, []string{"OP001"}},
		{"search in description", ledger.HistoryFilter{Filter: withSearch(page, "apport 100")}, []string{"OP001"}},
		{"operation type", ledger.HistoryFilter{Filter: page, OperationType: ledger.OperationCredit}, []string{"OP002", "OP001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter
			f.Normalize()
			entries, total, err := repo.FindAll(ctx, f)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			got := make([]string, len(entries))
			for i := range entries {
				got[i] = entries[i].Reference
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func withSearch(f shared.Filter, search string) shared.Filter {
	f.Search = search
	return f
}
