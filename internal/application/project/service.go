// Package project manages projects, their revenues and finance reports.
package project

import (
	"context"
	"sort"
	"time"

	"github.com/ech/backend/internal/application/transaction"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles project use cases. Every change of the financial
// aggregates happens under a project row lock.
type Service struct {
	scope     transaction.Scope
	reads     transaction.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a project service
func NewService(scope transaction.Scope, reads transaction.Repositories, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scope: scope, reads: reads, logger: logger}
}

// SetEventPublisher sets the publisher that receives committed events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create registers a project and gives it the next project number
func (s *Service) Create(ctx context.Context, in ProjectInput, userID *uuid.UUID) (*ProjectView, error) {
	p, err := project.NewProject(in.details(), userID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		// A retried attempt must not keep the number of the rolled back one
		p.Number = 0
		n, err := repos.Sequences().Next(ctx, project.NumberSequenceScope)
		if err != nil {
			return err
		}
		if err := p.AssignNumber(n); err != nil {
			return err
		}
		return repos.Projects().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", p.ID.String()),
		zap.Int64("number", p.Number),
		zap.String("name", p.Name),
	)
	view := toProjectView(p)
	return &view, nil
}

// Update changes the editable attributes. Financial totals are untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in ProjectInput) (*ProjectView, error) {
	var view ProjectView
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		p, err := repos.Projects().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Update(in.details()); err != nil {
			return err
		}
		if err := repos.Projects().Save(ctx, p); err != nil {
			return err
		}
		view = toProjectView(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Get returns one project
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ProjectView, error) {
	p, err := s.reads.Projects().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toProjectView(p)
	return &view, nil
}

// List returns a page of projects
func (s *Service) List(ctx context.Context, filter project.Filter) (*shared.Paginated[ProjectView], error) {
	filter.Normalize()
	projects, total, err := s.reads.Projects().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]ProjectView, len(projects))
	for i := range projects {
		views[i] = toProjectView(&projects[i])
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete removes a project nothing refers to
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if _, err := repos.Projects().FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
		checks := []struct {
			what   string
			exists func(context.Context, uuid.UUID) (bool, error)
		}{
			{"cash operations", repos.Operations().ExistsForProject},
			{"revenues", repos.Revenues().ExistsForProject},
			{"debts", repos.Debts().ExistsForProject},
			{"delivery notes", repos.DeliveryNotes().ExistsForProject},
		}
		for _, c := range checks {
			used, err := c.exists(ctx, id)
			if err != nil {
				return err
			}
			if used {
				return shared.NewDomainError(shared.CodeInUse, "Project is referenced by "+c.what+" and cannot be deleted")
			}
		}
		return repos.Projects().Delete(ctx, id)
	})
}

// CreateRevenue books a revenue against a project: receivables grow by the
// amount and the remaining budget shrinks by it.
func (s *Service) CreateRevenue(ctx context.Context, in RevenueInput) (*RevenueResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "project", "create_revenue",
		telemetry.AttrProjectID.String(in.ProjectID.String()),
		telemetry.AttrAmount.String(in.Amount.String()),
	)
	defer span.End()

	rev, err := project.NewRevenue(in.Code, in.ProjectID, in.Amount, in.Date, in.UserID)
	if err != nil {
		return nil, err
	}

	var result *RevenueResult
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		exists, err := repos.Revenues().ExistsByCode(ctx, rev.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeDuplicateCode, "A revenue with code "+rev.Code+" already exists")
		}
		p, err := repos.Projects().FindByIDForUpdate(ctx, rev.ProjectID)
		if err != nil {
			return err
		}
		if err := p.RecordRevenue(rev); err != nil {
			return err
		}
		if err := repos.Revenues().Create(ctx, rev); err != nil {
			return err
		}
		if err := repos.Projects().Save(ctx, p); err != nil {
			return err
		}
		result = revenueResult(p, rev)
		events = p.GetDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordFailure(ctx, err)
		return nil, err
	}
	s.publish(ctx, events)
	return result, nil
}

// DeleteRevenue removes a revenue and reverses both of its effects
func (s *Service) DeleteRevenue(ctx context.Context, id uuid.UUID) (*RevenueResult, error) {
	var result *RevenueResult
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		rev, err := repos.Revenues().FindByID(ctx, id)
		if err != nil {
			return err
		}
		p, err := repos.Projects().FindByIDForUpdate(ctx, rev.ProjectID)
		if err != nil {
			return err
		}
		if err := p.ReverseRevenue(rev); err != nil {
			return err
		}
		if err := repos.Revenues().Delete(ctx, rev.ID); err != nil {
			return err
		}
		if err := repos.Projects().Save(ctx, p); err != nil {
			return err
		}
		result = revenueResult(p, rev)
		events = p.GetDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return result, nil
}

// GetRevenue returns one revenue
func (s *Service) GetRevenue(ctx context.Context, id uuid.UUID) (*RevenueView, error) {
	rev, err := s.reads.Revenues().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toRevenueView(rev)
	if p, err := s.reads.Projects().FindByID(ctx, rev.ProjectID); err == nil {
		view.ProjectName = p.Name
	}
	return &view, nil
}

// ListRevenues returns the revenues of a project, newest first
func (s *Service) ListRevenues(ctx context.Context, filter project.RevenueFilter) ([]RevenueView, error) {
	var projectName string
	if filter.ProjectID != nil {
		p, err := s.reads.Projects().FindByID(ctx, *filter.ProjectID)
		if err != nil {
			return nil, err
		}
		projectName = p.Name
	}
	revenues, err := s.reads.Revenues().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]RevenueView, len(revenues))
	for i := range revenues {
		views[i] = toRevenueView(&revenues[i])
		views[i].ProjectName = projectName
	}
	return views, nil
}

// FinanceReport gathers the dated cash flows of a project
func (s *Service) FinanceReport(ctx context.Context, in FinanceReportInput) (*FinanceReport, error) {
	if in.DateFrom != nil && in.DateTo != nil && in.DateTo.Before(*in.DateFrom) {
		return nil, shared.NewValidationError("date_to cannot be before date_from")
	}
	p, err := s.reads.Projects().FindByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	report := &FinanceReport{
		Project:        toProjectView(p),
		ByCollaborator: in.ByCollaborator,
		DateFrom:       in.DateFrom,
		DateTo:         in.DateTo,
		GeneratedAt:    time.Now(),
	}

	filter := ledger.OperationFilter{ProjectID: &p.ID, DateFrom: in.DateFrom, DateTo: in.DateTo}
	if in.ByCollaborator {
		filter.Type = ledger.OperationCredit
		filter.IncomeSource = ledger.IncomeCollaborator
	} else {
		filter.Type = ledger.OperationDebit
	}
	ops, err := s.allOperations(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		line := FinanceLine{
			Date:        op.EffectiveDate,
			Description: op.Description,
			In:          valueobject.Zero(),
			Out:         valueobject.Zero(),
			createdAt:   op.CreatedAt,
		}
		if op.Type == ledger.OperationCredit {
			line.Kind = "collaborator_credit"
			line.Label = "Apport " + p.CollaboratorName
			line.In = op.Amount
		} else {
			line.Kind = "expenditure"
			line.Label = "Décaissement"
			line.Out = op.Amount
		}
		report.Lines = append(report.Lines, line)
	}

	if !in.ByCollaborator {
		revenues, err := s.reads.Revenues().FindAll(ctx, project.RevenueFilter{ProjectID: &p.ID, DateFrom: in.DateFrom, DateTo: in.DateTo})
		if err != nil {
			return nil, err
		}
		for _, r := range revenues {
			report.Lines = append(report.Lines, FinanceLine{
				Date:      r.Date,
				Kind:      "revenue",
				Label:     "Revenu " + r.Code,
				In:        r.Amount,
				Out:       valueobject.Zero(),
				createdAt: r.CreatedAt,
			})
		}
	}

	sort.SliceStable(report.Lines, func(i, j int) bool {
		a, b := report.Lines[i], report.Lines[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.createdAt.Before(b.createdAt)
	})

	report.TotalIn, report.TotalOut = valueobject.Zero(), valueobject.Zero()
	for _, l := range report.Lines {
		report.TotalIn = report.TotalIn.Add(l.In)
		report.TotalOut = report.TotalOut.Add(l.Out)
	}
	report.Net = report.TotalIn.Sub(report.TotalOut)
	return report, nil
}

// allOperations pages through every operation matching filter
func (s *Service) allOperations(ctx context.Context, filter ledger.OperationFilter) ([]ledger.CashOperation, error) {
	filter.Filter = shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "effective_date", OrderDir: "asc"}
	var all []ledger.CashOperation
	for {
		ops, total, err := s.reads.Operations().FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, ops...)
		if len(ops) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filter.Page++
	}
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		s.logger.Warn("Failed to publish project events", zap.Error(err))
	}
}

func revenueResult(p *project.Project, r *project.Revenue) *RevenueResult {
	view := toRevenueView(r)
	view.ProjectName = p.Name
	return &RevenueResult{Revenue: view, Project: toProjectView(p)}
}

