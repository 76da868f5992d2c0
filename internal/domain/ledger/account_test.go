package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func money(s string) valueobject.Money { return valueobject.MustMoney(s) }

func credit(amount string) CreditRequest {
	return CreditRequest{Amount: money(amount), IncomeSource: IncomePersonal, EffectiveDate: today}
}

func debit(amount string, project uuid.UUID) DebitRequest {
	return DebitRequest{Amount: money(amount), ProjectID: &project, EffectiveDate: today}
}

func TestCashAccount_ApplyCredit(t *testing.T) {
	acc := NewCashAccount()

	op, err := acc.ApplyCredit(credit("1000"))
	require.NoError(t, err)

	assert.Equal(t, OperationCredit, op.Type)
	assert.Equal(t, "0.00", op.BalanceBefore.String())
	assert.Equal(t, "1000.00", op.BalanceAfter.String())
	assert.Equal(t, "1000.00", acc.Balance.String())
	assert.Equal(t, 2, acc.Version)
	assert.False(t, op.ByCollaborator)
}

func TestCashAccount_CreditValidation(t *testing.T) {
	project := uuid.New()
	tests := []struct {
		name string
		req  CreditRequest
	}{
		{"zero amount", CreditRequest{Amount: money("0"), IncomeSource: IncomePersonal, EffectiveDate: today}},
		{"negative amount", CreditRequest{Amount: money("-5"), IncomeSource: IncomePersonal, EffectiveDate: today}},
		{"missing date", CreditRequest{Amount: money("5"), IncomeSource: IncomePersonal}},
		{"unknown source", CreditRequest{Amount: money("5"), IncomeSource: "lottery", EffectiveDate: today}},
		{"other without observation", CreditRequest{Amount: money("5"), IncomeSource: IncomeOther, Observation: "  ", EffectiveDate: today}},
		{"collaborator without project", CreditRequest{Amount: money("5"), IncomeSource: IncomeCollaborator, EffectiveDate: today}},
		{"collaborator with nil project", CreditRequest{Amount: money("5"), IncomeSource: IncomeCollaborator, ProjectID: &uuid.Nil, EffectiveDate: today}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewCashAccount()
			_, err := acc.ApplyCredit(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrValidation))
			assert.True(t, acc.Balance.IsZero())
		})
	}

	t.Run("collaborator with project sets flag", func(t *testing.T) {
		acc := NewCashAccount()
		op, err := acc.ApplyCredit(CreditRequest{Amount: money("5"), IncomeSource: IncomeCollaborator, ProjectID: &project, EffectiveDate: today})
		require.NoError(t, err)
		assert.True(t, op.ByCollaborator)
		assert.Equal(t, project, *op.ProjectID)
	})

	t.Run("other sources are not booked against the project", func(t *testing.T) {
		for _, src := range []IncomeSource{IncomePersonal, IncomeDebt, IncomeOther} {
			acc := NewCashAccount()
			op, err := acc.ApplyCredit(CreditRequest{Amount: money("5"), IncomeSource: src, Observation: "x", ProjectID: &project, EffectiveDate: today})
			require.NoError(t, err)
			assert.Nil(t, op.ProjectID, src)
			assert.False(t, op.ByCollaborator)
		}
	})
}

func TestCashAccount_ApplyDebit(t *testing.T) {
	project := uuid.New()

	t.Run("insufficient funds leaves balance unchanged", func(t *testing.T) {
		acc := NewCashAccount()
		_, err := acc.ApplyCredit(credit("50"))
		require.NoError(t, err)

		op, err := acc.ApplyDebit(debit("100", project))
		assert.Nil(t, op)
		assert.True(t, errors.Is(err, shared.ErrInsufficientFunds))
		assert.Equal(t, "50.00", acc.Balance.String())
	})

	t.Run("exact balance can be spent", func(t *testing.T) {
		acc := NewCashAccount()
		_, _ = acc.ApplyCredit(credit("50"))
		op, err := acc.ApplyDebit(debit("50", project))
		require.NoError(t, err)
		assert.True(t, acc.Balance.IsZero())
		assert.Equal(t, "-50.00", op.SignedAmount().String())
	})

	t.Run("project or debt required", func(t *testing.T) {
		acc := NewCashAccount()
		_, _ = acc.ApplyCredit(credit("50"))
		_, err := acc.ApplyDebit(DebitRequest{Amount: money("5"), EffectiveDate: today})
		assert.True(t, errors.Is(err, shared.ErrValidation))

		debt := uuid.New()
		op, err := acc.ApplyDebit(DebitRequest{Amount: money("5"), DebtID: &debt, EffectiveDate: today})
		require.NoError(t, err)
		assert.Equal(t, debt, *op.DebtID)
	})
}

func TestCashAccount_SnapshotsMatchAmount(t *testing.T) {
	acc := NewCashAccount()
	project := uuid.New()
	credits := valueobject.Zero()
	debits := valueobject.Zero()

	amounts := []string{"100.10", "0.01", "999.99", "42", "13.37"}
	for i, a := range amounts {
		op, err := acc.ApplyCredit(credit(a))
		require.NoError(t, err)
		credits = credits.Add(op.Amount)
		assert.True(t, op.BalanceAfter.Sub(op.BalanceBefore).Equal(op.Amount))

		if i%2 == 0 {
			op, err = acc.ApplyDebit(debit("0.10", project))
			require.NoError(t, err)
			debits = debits.Add(op.Amount)
			assert.True(t, op.BalanceAfter.Sub(op.BalanceBefore).Equal(op.Amount.Neg()))
		}
	}
	assert.True(t, acc.Balance.Equal(credits.Sub(debits)))
	assert.Equal(t, "1155.17", acc.Balance.String())
}

func TestCashAccount_Adjust(t *testing.T) {
	acc := NewCashAccount()
	_, _ = acc.ApplyCredit(credit("100"))

	snap, err := acc.Adjust(money("80"))
	require.NoError(t, err)
	assert.Equal(t, "-20.00", snap.Delta().String())
	assert.Equal(t, "80.00", acc.Balance.String())

	_, err = acc.Adjust(money("-1"))
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Equal(t, "80.00", acc.Balance.String())
}

func TestCashOperation_LinkDebt(t *testing.T) {
	acc := NewCashAccount()
	op, err := acc.ApplyCredit(CreditRequest{Amount: money("10"), IncomeSource: IncomeDebt, EffectiveDate: today})
	require.NoError(t, err)

	debt := uuid.New()
	require.NoError(t, op.LinkDebt(debt))
	require.NoError(t, op.LinkDebt(debt))
	assert.True(t, errors.Is(op.LinkDebt(uuid.New()), shared.ErrInvalidState))
}
