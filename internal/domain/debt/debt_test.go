package debt

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

func m(s string) valueobject.Money { return valueobject.MustMoney(s) }

func pay(d *Debt, amount string) error {
	return d.ApplyPayment(NewPayment(d.ID, m(amount), valueobject.PaymentDetails{}, "", time.Now(), uuid.New(), nil))
}

func TestNewDebt(t *testing.T) {
	d, err := NewDebt("  Fournisseur X ", m("1000"), nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Fournisseur X", d.CreditorName)
	assert.Equal(t, StatusActive, d.Status)
	assert.True(t, d.Remaining.Equal(d.Original))
	assert.Nil(t, d.CompletedAt)
	require.Len(t, d.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeDebtCreated, d.GetDomainEvents()[0].EventType())

	_, err = NewDebt("", m("10"), nil, "", nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	_, err = NewDebt("X", m("0"), nil, "", nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestDebt_FullPaymentCompletes(t *testing.T) {
	d, _ := NewDebt("X", m("500"), nil, "", nil)

	require.NoError(t, pay(d, "500"))
	assert.True(t, d.Remaining.IsZero())
	assert.Equal(t, StatusCompleted, d.Status)
	require.NotNil(t, d.CompletedAt)
	completedAt := *d.CompletedAt

	err := pay(d, "1")
	assert.True(t, errors.Is(err, shared.ErrDebtAlreadySettled))
	assert.True(t, d.Remaining.IsZero())
	assert.Equal(t, completedAt, *d.CompletedAt)
	assert.NoError(t, d.CheckInvariants())
}

func TestDebt_PartialPaymentsAndExcess(t *testing.T) {
	d, _ := NewDebt("X", m("1000"), nil, "", nil)

	require.NoError(t, pay(d, "250.50"))
	assert.Equal(t, "749.50", d.Remaining.String())
	assert.Equal(t, StatusActive, d.Status)

	err := pay(d, "749.51")
	assert.True(t, errors.Is(err, shared.ErrExcessPayment))
	assert.Equal(t, "749.50", d.Remaining.String())

	assert.True(t, errors.Is(pay(d, "0"), shared.ErrValidation))

	require.NoError(t, pay(d, "749.50"))
	assert.Equal(t, StatusCompleted, d.Status)
	assert.Equal(t, "1000.00", d.PaidAmount().String())
}

func TestDebt_RemainingTracksPayments(t *testing.T) {
	d, _ := NewDebt("X", m("100"), nil, "", nil)
	previous := d.Remaining
	for i := 0; i < 10; i++ {
		require.NoError(t, pay(d, "10"))
		assert.True(t, d.Remaining.LessThan(previous))
		previous = d.Remaining

		paid := valueobject.Zero()
		for _, p := range d.Payments {
			paid = paid.Add(p.Amount)
		}
		assert.True(t, d.Remaining.Equal(d.Original.Sub(paid)))
		assert.NoError(t, d.CheckInvariants())
		assert.Equal(t, d.Remaining.IsZero(), d.IsCompleted())
	}
}

func TestDebt_CheckInvariantsDetectsDisagreement(t *testing.T) {
	d, _ := NewDebt("X", m("100"), nil, "", nil)
	d.Status = StatusCompleted
	assert.Error(t, d.CheckInvariants())

	d.Status = StatusActive
	d.Remaining = m("101")
	assert.Error(t, d.CheckInvariants())
}
