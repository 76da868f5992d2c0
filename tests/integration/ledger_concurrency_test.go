package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	docapp "github.com/ech/backend/internal/application/document"
	ledgerapp "github.com/ech/backend/internal/application/ledger"
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type services struct {
	ledger    *ledgerapp.CashLedgerService
	projects  *projectapp.Service
	documents *docapp.Service
}

func newServices(t *testing.T) *services {
	t.Helper()
	tdb := NewTestDB(t)
	reads := persistence.NewRepositories(tdb.DB)
	scope := persistence.NewGormTransactionScope(tdb.DB, zap.NewNop()).WithMaxAttempts(10)

	s := &services{
		ledger:    ledgerapp.NewCashLedgerService(scope, reads, ledgerapp.Config{ReferencePrefix: "OP"}, zap.NewNop()),
		projects:  projectapp.NewService(scope, reads, zap.NewNop()),
		documents: docapp.NewService(scope, reads, zap.NewNop()),
	}
	require.NoError(t, s.ledger.Initialize(context.Background()))
	return s
}

func (s *services) credit(t *testing.T, amount string) *ledgerapp.MovementResult {
	t.Helper()
	res, err := s.ledger.Credit(context.Background(), ledgerapp.CreditInput{
		Amount:       valueobject.MustMoney(amount),
		Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		IncomeSource: ledger.IncomePersonal,
	})
	require.NoError(t, err)
	return res
}

// run starts n goroutines behind a common gate so they hit the database together
func run(n int, fn func(i int)) {
	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			fn(i)
		}(i)
	}
	close(gate)
	wg.Wait()
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	s := newServices(t)
	s.credit(t, "1000")

	var (
		mu         sync.Mutex
		references []string
		rejected   atomic.Int32
		unexpected []error
	)
	run(20, func(int) {
		res, err := s.ledger.Debit(context.Background(), ledgerapp.DebitInput{
			Amount:      valueobject.MustMoney("100"),
			Date:        time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			Description: "Achat",
			Payment:     ledgerapp.PaymentInput{Mode: "cash"},
		})
		switch {
		case err == nil:
			mu.Lock()
			references = append(references, res.Reference)
			mu.Unlock()
		case errors.Is(err, shared.ErrInsufficientFunds):
			rejected.Add(1)
		default:
			mu.Lock()
			unexpected = append(unexpected, err)
			mu.Unlock()
		}
	})

	require.Empty(t, unexpected)
	assert.Len(t, references, 10)
	assert.Equal(t, int32(10), rejected.Load())

	b, err := s.ledger.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Balance.IsZero(), "balance is %s", b.Balance)

	// OP001 is the initial credit; the debits take the next ten without gaps
	sort.Strings(references)
	for i, ref := range references {
		assert.Equal(t, fmt.Sprintf("OP%03d", i+2), ref)
	}
}

func TestConcurrentCreditsGetDistinctReferences(t *testing.T) {
	s := newServices(t)

	const n = 30
	refs := make([]string, n)
	errs := make([]error, n)
	run(n, func(i int) {
		res, err := s.ledger.Credit(context.Background(), ledgerapp.CreditInput{
			Amount:       valueobject.MustMoney("10"),
			Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			IncomeSource: ledger.IncomePersonal,
		})
		errs[i] = err
		if err == nil {
			refs[i] = res.Reference
		}
	})

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Strings(refs)
	for i, ref := range refs {
		assert.Equal(t, fmt.Sprintf("OP%03d", i+1), ref)
	}

	b, err := s.ledger.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "300.00", b.Balance.String())

	page, err := s.ledger.ListHistory(context.Background(), ledger.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(n), page.Total)
}

func TestConcurrentDebtPaymentsStopAtTheRemainder(t *testing.T) {
	s := newServices(t)
	opened, err := s.ledger.CreateDebt(context.Background(), ledgerapp.CreateDebtInput{
		CreditorName: "Fournisseur A",
		Amount:       valueobject.MustMoney("500"),
		Date:         time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, opened.Debt)

	var paid atomic.Int32
	run(12, func(int) {
		_, err := s.ledger.PayDebt(context.Background(), ledgerapp.PayDebtInput{
			DebtID:  opened.Debt.ID,
			Amount:  valueobject.MustMoney("100"),
			Date:    time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC),
			Payment: ledgerapp.PaymentInput{Mode: "cash"},
		})
		if err == nil {
			paid.Add(1)
			return
		}
		assert.True(t, errors.Is(err, shared.ErrExcessPayment) || errors.Is(err, shared.ErrDebtAlreadySettled), err.Error())
	})

	assert.Equal(t, int32(5), paid.Load())
	b, err := s.ledger.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Balance.IsZero(), "balance is %s", b.Balance)
}

func TestConcurrentDeliveryNotesAreNumberedPerProject(t *testing.T) {
	s := newServices(t)
	p, err := s.projects.Create(context.Background(), projectapp.ProjectInput{
		Name:            "Villa",
		EstimatedBudget: valueobject.MustMoney("10000"),
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil)
	require.NoError(t, err)

	const n = 10
	numbers := make([]string, n)
	run(n, func(i int) {
		price := valueobject.MustMoney("100")
		note, err := s.documents.CreateDeliveryNote(context.Background(), docapp.DeliveryNoteInput{
			ProjectID:          p.ID,
			OriginAddress:      "Dépôt",
			DestinationAddress: "Chantier",
			PaymentMethod:      "bank_cheque",
			Items:              []docapp.LineItemInput{{Designation: "Ciment", Quantity: 1, UnitPrice: &price}},
		}, nil)
		if assert.NoError(t, err) {
			numbers[i] = note.Number
		}
	})

	sort.Strings(numbers)
	year := time.Now().Year()
	for i, number := range numbers {
		assert.Equal(t, fmt.Sprintf("BL-%d-%03d-%03d", year, p.Number, i+1), number)
	}

	_, err = s.documents.GetDeliveryNote(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
