// Package debt serves the read side of debts. Opening and repaying a debt
// moves cash and therefore goes through the ledger service.
package debt

import (
	"context"
	"time"

	"github.com/ech/backend/internal/application/transaction"
	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service answers debt queries
type Service struct {
	reads  transaction.Repositories
	logger *zap.Logger
}

// NewService creates a debt query service
func NewService(reads transaction.Repositories, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reads: reads, logger: logger}
}

// List returns a page of debts
func (s *Service) List(ctx context.Context, filter debt.Filter) (*shared.Paginated[DebtView], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		filter.Status = ""
	}
	filter.Normalize()
	debts, total, err := s.reads.Debts().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	var projectIDs []uuid.UUID
	for _, d := range debts {
		if d.ProjectID != nil {
			projectIDs = append(projectIDs, *d.ProjectID)
		}
	}
	projectNames := s.projectNames(ctx, projectIDs)

	views := make([]DebtView, len(debts))
	for i := range debts {
		views[i] = toDebtView(&debts[i])
		if debts[i].ProjectID != nil {
			views[i].ProjectName = projectNames[*debts[i].ProjectID]
		}
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns a debt with its repayments
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*DebtDetail, error) {
	d, err := s.reads.Debts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &DebtDetail{DebtView: toDebtView(d), Payments: make([]PaymentView, len(d.Payments))}
	if d.ProjectID != nil {
		detail.ProjectName = s.projectNames(ctx, []uuid.UUID{*d.ProjectID})[*d.ProjectID]
	}

	var userIDs []uuid.UUID
	for _, p := range d.Payments {
		if p.CreatedBy != nil {
			userIDs = append(userIDs, *p.CreatedBy)
		}
	}
	users := map[uuid.UUID]string{}
	if len(userIDs) > 0 {
		if found, err := s.reads.Users().FindByIDs(ctx, userIDs); err == nil {
			for uid, u := range found {
				users[uid] = u.DisplayName()
			}
		}
	}
	for i := range d.Payments {
		detail.Payments[i] = toPaymentView(&d.Payments[i])
		if d.Payments[i].CreatedBy != nil {
			detail.Payments[i].UserName = users[*d.Payments[i].CreatedBy]
		}
	}
	return detail, nil
}

// Journal builds the debt journal: the borrowing followed by every
// repayment with the remaining amount after it.
func (s *Service) Journal(ctx context.Context, id uuid.UUID) (*Journal, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	remaining := detail.Original
	lines := make([]JournalLine, 0, len(detail.Payments)+1)
	lines = append(lines, JournalLine{
		Date:        detail.DateCreated,
		Label:       "Emprunt",
		Description: detail.Description,
		Borrowed:    detail.Original,
		Remaining:   remaining,
		PaymentMode: "-",
	})
	repaid := valueobject.Zero()
	for _, p := range detail.Payments {
		remaining = remaining.Sub(p.Amount)
		repaid = repaid.Add(p.Amount)
		lines = append(lines, JournalLine{
			Date:        p.PaymentDate,
			Label:       "Remboursement",
			Description: p.Description,
			Repaid:      p.Amount,
			Remaining:   remaining,
			PaymentMode: p.PaymentMode.Label(),
		})
	}
	if !remaining.Equal(detail.Remaining) {
		s.logger.Warn("Debt journal does not match stored remaining amount",
			zap.String("debt_id", id.String()),
			zap.String("computed", remaining.String()),
			zap.String("stored", detail.Remaining.String()),
		)
	}
	return &Journal{
		Debt:        detail.DebtView,
		Lines:       lines,
		TotalRepaid: repaid,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *Service) projectNames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	names := map[uuid.UUID]string{}
	if len(ids) == 0 {
		return names
	}
	found, err := s.reads.Projects().FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Debug("Failed to resolve project names", zap.Error(err))
		return names
	}
	for id, p := range found {
		names[id] = p.Name
	}
	return names
}
