package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createProject(t *testing.T, db *gorm.DB, number int64, name, budget, collaborator string) *project.Project {
	t.Helper()
	p, err := project.NewProject(project.Details{
		Name:             name,
		EstimatedBudget:  valueobject.MustMoney(budget),
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths:   12,
		CollaboratorName: collaborator,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, p.AssignNumber(number))
	require.NoError(t, NewGormProjectRepository(db).Create(context.Background(), p))
	return p
}

func TestGormProjectRepository_SaveStoresProfit(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	p := createProject(t, db, 1, "Villa Oran", "5000", "")

	locked, err := repo.FindByIDForUpdate(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, locked.RecordExpenditure(valueobject.MustMoney("1200.50")))
	require.NoError(t, repo.Save(ctx, locked))

	var profit string
	require.NoError(t, db.Raw("SELECT profit FROM projects WHERE id = ?", p.ID).Scan(&profit).Error)
	assert.Equal(t, "-1200.5", valueobject.MustMoney(profit).Amount().String())

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200.50", found.Expenditures.String())
	assert.Equal(t, "-1200.50", found.Profit().String())
}

func TestGormProjectRepository_SaveDetectsStaleVersion(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	p := createProject(t, db, 1, "Villa Oran", "5000", "")

	a, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, a.RecordExpenditure(valueobject.MustMoney("10")))
	require.NoError(t, repo.Save(ctx, a))

	require.NoError(t, b.RecordExpenditure(valueobject.MustMoney("20")))
	err = repo.Save(ctx, b)
	assert.True(t, shared.IsConflict(err))
}

func TestGormProjectRepository_FindAllAndTotals(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	createProject(t, db, 1, "Villa Oran", "1000", "")
	createProject(t, db, 2, "Ecole Blida", "2000.25", "Sarl Nour")
	createProject(t, db, 3, "Pont Sétif", "300", "")

	withCollaborator := true
	filter := project.Filter{Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "number", OrderDir: "asc"}, HasCollaborator: &withCollaborator}
	projects, total, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, projects, 1)
	assert.Equal(t, "Ecole Blida", projects[0].Name)

	filter = project.Filter{Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "number", OrderDir: "desc", Search: "ORAN"}}
	projects, total, err = repo.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), projects[0].Number)

	totals, err := repo.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.Count)
	assert.Equal(t, "3300.25", totals.Budget.String())
	assert.True(t, totals.Profit.IsZero())
}

func TestGormProjectRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	p := createProject(t, db, 1, "Villa Oran", "1000", "")

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), shared.ErrNotFound)
	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormRevenueRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormRevenueRepository(db)
	ctx := context.Background()
	p := createProject(t, db, 1, "Villa Oran", "1000", "")
	other := createProject(t, db, 2, "Ecole Blida", "1000", "")

	add := func(code string, projectID *project.Project, amount string, date time.Time) *project.Revenue {
		rev, err := project.NewRevenue(code, projectID.ID, valueobject.MustMoney(amount), date, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rev))
		return rev
	}
	march := add("R-001", p, "100", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	add("R-002", p, "200", time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC))
	add("R-003", other, "50", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	exists, err := repo.ExistsByCode(ctx, "R-001")
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := project.NewRevenue("R-001", p.ID, valueobject.MustMoney("1"), time.Now(), nil)
	require.NoError(t, err)
	assert.Error(t, repo.Create(ctx, dup))

	all, err := repo.FindAll(ctx, project.RevenueFilter{ProjectID: &p.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "R-002", all[0].Code, "newest first")

	inMarch, err := repo.FindAll(ctx, project.RevenueFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Len(t, inMarch, 2)

	require.NoError(t, repo.Delete(ctx, march.ID))
	_, err = repo.FindByID(ctx, march.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	used, err := repo.ExistsForProject(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, used)
}
