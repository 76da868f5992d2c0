package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReference(t *testing.T) {
	assert.Equal(t, "OP001", FormatReference("OP", 1))
	assert.Equal(t, "OP042", FormatReference("OP", 42))
	assert.Equal(t, "OP999", FormatReference("OP", 999))
	assert.Equal(t, "OP1000", FormatReference("OP", 1000))
}

func TestParseReference(t *testing.T) {
	n, err := ParseReference("OP", "OP007")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, err = ParseReference("OP", "OP12345")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), n)

	for _, bad := range []string{"XX001", "OP", "OPabc", "OP000"} {
		_, err := ParseReference("OP", bad)
		assert.Error(t, err, bad)
	}
}

func TestNewOperationEntry(t *testing.T) {
	acc := NewCashAccount()
	project := uuid.New()
	_, _ = acc.ApplyCredit(credit("1000"))
	op, err := acc.ApplyDebit(debit("300", project))
	require.NoError(t, err)

	entry := NewOperationEntry("OP002", op)
	assert.Equal(t, ActionDebit, entry.Action)
	assert.Equal(t, "300.00", entry.Amount.String())
	assert.Equal(t, "1000.00", entry.BalanceBefore.String())
	assert.Equal(t, "700.00", entry.BalanceAfter.String())
	assert.Equal(t, op.ID, *entry.OperationID)
	assert.Equal(t, project, *entry.ProjectID)
}

func TestNewAdjustmentEntry(t *testing.T) {
	acc := NewCashAccount()
	_, _ = acc.ApplyCredit(credit("100"))
	snap, err := acc.Adjust(money("40"))
	require.NoError(t, err)

	entry := NewAdjustmentEntry("OP010", snap, nil, "inventaire", today)
	assert.Equal(t, ActionBalanceAdjustment, entry.Action)
	assert.Equal(t, "60.00", entry.Amount.String())
	assert.Nil(t, entry.OperationID)
}
