package project

import (
	"errors"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func m(s string) valueobject.Money { return valueobject.MustMoney(s) }

func newProject(t *testing.T, budget string) *Project {
	t.Helper()
	p, err := NewProject(Details{
		Name:            "Route nationale 5",
		EstimatedBudget: m(budget),
		StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths:  6,
	}, nil)
	require.NoError(t, err)
	return p
}

func TestNewProject_Validation(t *testing.T) {
	_, err := NewProject(Details{Name: " ", StartDate: time.Now()}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = NewProject(Details{Name: "P", EstimatedBudget: m("-1"), StartDate: time.Now()}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = NewProject(Details{Name: "P"}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	p := newProject(t, "100")
	assert.True(t, p.Profit().IsZero())
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), p.EndDate())
}

func TestProject_ProfitFollowsTotals(t *testing.T) {
	p := newProject(t, "10000")

	require.NoError(t, p.RecordExpenditure(m("300")))
	assert.Equal(t, "-300.00", p.Profit().String())

	r, err := NewRevenue("R-1", p.ID, m("1000"), time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, p.RecordRevenue(r))
	assert.Equal(t, "700.00", p.Profit().String())
	assert.True(t, p.Profit().Equal(p.Receivables.Sub(p.Expenditures)))

	assert.Error(t, p.RecordExpenditure(m("0")))
}

func TestProject_RevenueIsSymmetric(t *testing.T) {
	p := newProject(t, "5000")
	r, _ := NewRevenue("R-1", p.ID, m("1200"), time.Now(), nil)

	require.NoError(t, p.RecordRevenue(r))
	assert.Equal(t, "1200.00", p.Receivables.String())
	assert.Equal(t, "3800.00", p.EstimatedBudget.String())

	require.NoError(t, p.ReverseRevenue(r))
	assert.True(t, p.Receivables.IsZero())
	assert.Equal(t, "5000.00", p.EstimatedBudget.String())
	assert.True(t, p.Profit().IsZero())
	assert.Len(t, p.GetDomainEvents(), 2)
}

func TestProject_RevenueNeedsBudget(t *testing.T) {
	p := newProject(t, "100")
	r, _ := NewRevenue("R-1", p.ID, m("100.01"), time.Now(), nil)

	err := p.RecordRevenue(r)
	assert.True(t, errors.Is(err, shared.ErrInsufficientBudget))
	assert.True(t, p.Receivables.IsZero())
	assert.Equal(t, "100.00", p.EstimatedBudget.String())

	other := newProject(t, "100")
	r2, _ := NewRevenue("R-2", other.ID, m("1"), time.Now(), nil)
	assert.Error(t, p.ReverseRevenue(r2))
}

func TestNewRevenue_Validation(t *testing.T) {
	p := newProject(t, "100")
	_, err := NewRevenue("", p.ID, m("1"), time.Now(), nil)
	assert.Error(t, err)
	_, err = NewRevenue("C", p.ID, m("0"), time.Now(), nil)
	assert.Error(t, err)
	_, err = NewRevenue("C", p.ID, m("1"), time.Time{}, nil)
	assert.Error(t, err)
}
