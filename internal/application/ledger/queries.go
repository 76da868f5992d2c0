package ledger

import (
	"context"

	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecentOperationsLimit is the number of operations shown on the dashboard
const RecentOperationsLimit = 10

// Balance returns the current balance
func (s *CashLedgerService) Balance(ctx context.Context) (*BalanceView, error) {
	acc, err := s.reads.Accounts().Get(ctx)
	if err != nil {
		return nil, err
	}
	return &BalanceView{Balance: acc.Balance, UpdatedAt: acc.UpdatedAt}, nil
}

// GetOperation returns one cash operation
func (s *CashLedgerService) GetOperation(ctx context.Context, id uuid.UUID) (*OperationView, error) {
	op, err := s.reads.Operations().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views := s.operationViews(ctx, []ledger.CashOperation{*op})
	return &views[0], nil
}

// ListOperations returns a page of cash operations
func (s *CashLedgerService) ListOperations(ctx context.Context, filter ledger.OperationFilter) (*shared.Paginated[OperationView], error) {
	filter.Normalize()
	ops, total, err := s.reads.Operations().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(s.operationViews(ctx, ops), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetHistoryEntry returns one audit entry with its operation
func (s *CashLedgerService) GetHistoryEntry(ctx context.Context, id uuid.UUID) (*HistoryView, error) {
	entry, err := s.reads.History().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views := s.historyViews(ctx, []ledger.HistoryEntry{*entry})
	return &views[0], nil
}

// ListHistory returns a page of the audit trail
func (s *CashLedgerService) ListHistory(ctx context.Context, filter ledger.HistoryFilter) (*shared.Paginated[HistoryView], error) {
	filter.Normalize()
	entries, total, err := s.reads.History().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(s.historyViews(ctx, entries), total, filter.Page, filter.PageSize)
	return &page, nil
}

// DashboardStats summarises the register, debts and projects
func (s *CashLedgerService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	acc, err := s.reads.Accounts().Get(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.reads.Operations().Totals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.reads.Debts().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.reads.Projects().Totals(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.reads.Operations().Recent(ctx, RecentOperationsLimit)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Balance:        acc.Balance,
		ProjectCount:   projects.Count,
		ActiveDebts:    counts.Active,
		CompletedDebts: counts.Completed,
		TotalCredits:   totals.Credits,
		TotalDebits:    totals.Debits,
		Projects: ProjectTotals{
			Budget:       projects.Budget,
			Expenditures: projects.Expenditures,
			Receivables:  projects.Receivables,
			Profit:       projects.Profit,
		},
		RecentOperations: s.operationViews(ctx, recent),
	}, nil
}

type names struct {
	projects map[uuid.UUID]string
	users    map[uuid.UUID]string
}

// resolveNames batch loads project and user names. Missing rows keep the defaults.
func (s *CashLedgerService) resolveNames(ctx context.Context, projectIDs, userIDs []uuid.UUID) names {
	n := names{projects: map[uuid.UUID]string{}, users: map[uuid.UUID]string{}}
	if len(projectIDs) > 0 {
		if found, err := s.reads.Projects().FindByIDs(ctx, projectIDs); err == nil {
			for id, p := range found {
				n.projects[id] = p.Name
			}
		}
	}
	if len(userIDs) > 0 {
		if found, err := s.reads.Users().FindByIDs(ctx, userIDs); err == nil {
			for id, u := range found {
				n.users[id] = u.DisplayName()
			}
		}
	}
	return n
}

func (n names) apply(v *OperationView) {
	if v.ProjectID != nil {
		v.ProjectName = n.projects[*v.ProjectID]
	}
	if v.UserID != nil {
		if name, ok := n.users[*v.UserID]; ok {
			v.UserName = name
		}
	}
}

func (s *CashLedgerService) operationViews(ctx context.Context, ops []ledger.CashOperation) []OperationView {
	var projectIDs, userIDs []uuid.UUID
	for _, op := range ops {
		if op.ProjectID != nil {
			projectIDs = append(projectIDs, *op.ProjectID)
		}
		if op.UserID != nil {
			userIDs = append(userIDs, *op.UserID)
		}
	}
	n := s.resolveNames(ctx, projectIDs, userIDs)
	views := make([]OperationView, len(ops))
	for i := range ops {
		views[i] = toOperationView(&ops[i])
		n.apply(&views[i])
	}
	return views
}

func (s *CashLedgerService) historyViews(ctx context.Context, entries []ledger.HistoryEntry) []HistoryView {
	var projectIDs, userIDs, opIDs []uuid.UUID
	for _, e := range entries {
		if e.ProjectID != nil {
			projectIDs = append(projectIDs, *e.ProjectID)
		}
		if e.UserID != nil {
			userIDs = append(userIDs, *e.UserID)
		}
		if e.OperationID != nil {
			opIDs = append(opIDs, *e.OperationID)
		}
	}
	n := s.resolveNames(ctx, projectIDs, userIDs)

	ops := map[uuid.UUID]*ledger.CashOperation{}
	if len(opIDs) > 0 {
		if found, err := s.reads.Operations().FindByIDs(ctx, opIDs); err == nil {
			ops = found
		}
	}

	views := make([]HistoryView, len(entries))
	for i := range entries {
		e := &entries[i]
		v := toHistoryView(e)
		if e.ProjectID != nil {
			v.ProjectName = n.projects[*e.ProjectID]
		}
		if e.UserID != nil {
			if name, ok := n.users[*e.UserID]; ok {
				v.UserName = name
			}
		}
		if e.OperationID != nil {
			if op, ok := ops[*e.OperationID]; ok {
				ov := toOperationView(op)
				n.apply(&ov)
				v.Operation = &ov
			}
		}
		views[i] = v
	}
	return views
}
