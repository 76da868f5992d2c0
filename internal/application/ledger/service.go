package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/ech/backend/internal/application/transaction"
	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds ledger settings
type Config struct {
	ReferencePrefix string
}

// CashLedgerService is the only writer of the global cash balance. Every
// mutation locks the account row, writes the operation and its audit entry
// in the same transaction, and publishes events only after commit.
type CashLedgerService struct {
	scope     transaction.Scope
	reads     transaction.Repositories
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
	prefix    string
}

// NewCashLedgerService creates the ledger service. reads must be bound to
// the database outside of any transaction.
func NewCashLedgerService(scope transaction.Scope, reads transaction.Repositories, cfg Config, logger *zap.Logger) *CashLedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.ReferencePrefix
	if prefix == "" {
		prefix = ledger.DefaultReferencePrefix
	}
	return &CashLedgerService{
		scope:  scope,
		reads:  reads,
		logger: logger,
		prefix: prefix,
	}
}

// SetEventPublisher sets the publisher that receives committed events
func (s *CashLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *CashLedgerService) SetMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// ReferencePrefix returns the prefix of audit reference numbers
func (s *CashLedgerService) ReferencePrefix() string {
	return s.prefix
}

// Initialize makes sure the singleton account exists
func (s *CashLedgerService) Initialize(ctx context.Context) error {
	acc, err := s.reads.Accounts().Ensure(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Cash register ready",
		zap.String("account_id", acc.ID.String()),
		zap.String("balance", acc.Balance.String()),
	)
	return nil
}

// Credit records an encaissement
func (s *CashLedgerService) Credit(ctx context.Context, in CreditInput) (*MovementResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "cash_ledger", "credit",
		telemetry.AttrAmount.String(in.Amount.String()),
		telemetry.AttrIncomeSource.String(string(in.IncomeSource)),
	)
	defer span.End()

	details, err := in.Payment.toDomain()
	if err != nil {
		return nil, s.reject(ctx, "credit", shared.NewValidationError(err.Error()))
	}
	req := ledger.CreditRequest{
		Amount:        in.Amount,
		IncomeSource:  in.IncomeSource,
		Observation:   in.Observation,
		ProjectID:     in.ProjectID,
		Payment:       details,
		Description:   in.Description,
		ProofKey:      in.ProofKey,
		EffectiveDate: in.Date,
		UserID:        in.UserID,
	}
	if err := req.Validate(); err != nil {
		return nil, s.reject(ctx, "credit", err)
	}

	var result *MovementResult
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var txErr error
		result, events, txErr = s.credit(ctx, repos, req, in.CreditorName)
		return txErr
	})
	if err != nil {
		return nil, s.reject(ctx, "credit", err)
	}

	s.metrics.RecordMovement(ctx, string(ledger.OperationCredit), in.Amount.Amount())
	s.publish(ctx, events)
	return result, nil
}

func (s *CashLedgerService) credit(ctx context.Context, repos transaction.Repositories, req ledger.CreditRequest, creditor string) (*MovementResult, []shared.DomainEvent, error) {
	acc, err := repos.Accounts().Lock(ctx)
	if err != nil {
		return nil, nil, err
	}

	var proj *project.Project
	if req.ProjectID != nil {
		proj, err = repos.Projects().FindByID(ctx, *req.ProjectID)
		if err != nil {
			return nil, nil, err
		}
	}

	op, err := acc.ApplyCredit(req)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Accounts().Save(ctx, acc); err != nil {
		return nil, nil, err
	}
	if err := repos.Operations().Create(ctx, op); err != nil {
		return nil, nil, err
	}

	var events []shared.DomainEvent
	var summary *DebtSummary
	if req.IncomeSource == ledger.IncomeDebt {
		creditor = strings.TrimSpace(creditor)
		if creditor == "" {
			creditor = ledger.DefaultCreditorName
		}
		d, err := debt.NewDebt(creditor, req.Amount, req.ProjectID, req.Description, req.UserID)
		if err != nil {
			return nil, nil, err
		}
		if err := repos.Debts().Create(ctx, d); err != nil {
			return nil, nil, err
		}
		if err := op.LinkDebt(d.ID); err != nil {
			return nil, nil, err
		}
		if err := repos.Operations().SetDebt(ctx, op.ID, d.ID); err != nil {
			return nil, nil, err
		}
		summary = &DebtSummary{ID: d.ID, CreditorName: d.CreditorName, Amount: d.Original, Status: d.Status}
		events = append(events, d.GetDomainEvents()...)
	}

	entry, err := s.appendOperationEntry(ctx, repos, op)
	if err != nil {
		return nil, nil, err
	}

	if op.ProjectID == nil {
		proj = nil
	}
	ec := s.eventContext(ctx, repos, proj, op.UserID)
	events = append([]shared.DomainEvent{ledger.NewCashOperationRecordedEvent(acc.ID, op, entry.Reference, ec)}, events...)

	opID := op.ID
	return &MovementResult{
		OperationID:   &opID,
		HistoryID:     entry.ID,
		Reference:     entry.Reference,
		BalanceBefore: op.BalanceBefore,
		NewBalance:    op.BalanceAfter,
		Date:          op.EffectiveDate,
		Debt:          summary,
	}, events, nil
}

// Debit records a decaissement charged to a project
func (s *CashLedgerService) Debit(ctx context.Context, in DebitInput) (*MovementResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "cash_ledger", "debit", telemetry.AttrAmount.String(in.Amount.String()))
	defer span.End()

	details, err := in.Payment.toDomain()
	if err != nil {
		return nil, s.reject(ctx, "debit", shared.NewValidationError(err.Error()))
	}
	req := ledger.DebitRequest{
		Amount:        in.Amount,
		ProjectID:     in.ProjectID,
		Payment:       details,
		Description:   in.Description,
		ProofKey:      in.ProofKey,
		EffectiveDate: in.Date,
		UserID:        in.UserID,
	}
	if err := req.Validate(); err != nil {
		return nil, s.reject(ctx, "debit", err)
	}

	var result *MovementResult
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		acc, err := repos.Accounts().Lock(ctx)
		if err != nil {
			return err
		}
		op, err := acc.ApplyDebit(req)
		if err != nil {
			return err
		}
		proj, err := repos.Projects().FindByIDForUpdate(ctx, *req.ProjectID)
		if err != nil {
			return err
		}
		if err := proj.RecordExpenditure(op.Amount); err != nil {
			return err
		}
		if err := repos.Accounts().Save(ctx, acc); err != nil {
			return err
		}
		if err := repos.Operations().Create(ctx, op); err != nil {
			return err
		}
		if err := repos.Projects().Save(ctx, proj); err != nil {
			return err
		}
		entry, err := s.appendOperationEntry(ctx, repos, op)
		if err != nil {
			return err
		}

		ec := s.eventContext(ctx, repos, proj, op.UserID)
		events = []shared.DomainEvent{ledger.NewCashOperationRecordedEvent(acc.ID, op, entry.Reference, ec)}
		opID := op.ID
		result = &MovementResult{
			OperationID:   &opID,
			HistoryID:     entry.ID,
			Reference:     entry.Reference,
			BalanceBefore: op.BalanceBefore,
			NewBalance:    op.BalanceAfter,
			Date:          op.EffectiveDate,
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, "debit", err)
	}

	s.metrics.RecordMovement(ctx, string(ledger.OperationDebit), in.Amount.Amount())
	s.publish(ctx, events)
	return result, nil
}

// CreateDebt opens a debt: the borrowed amount is credited to the register
// with income source debt, so account, operation, history and debt commit together.
func (s *CashLedgerService) CreateDebt(ctx context.Context, in CreateDebtInput) (*MovementResult, error) {
	if strings.TrimSpace(in.CreditorName) == "" {
		return nil, shared.NewValidationError("Creditor name is required")
	}
	description := in.Description
	if description == "" {
		description = "Dette - " + strings.TrimSpace(in.CreditorName)
	}
	return s.Credit(ctx, CreditInput{
		Amount:       in.Amount,
		Date:         in.Date,
		IncomeSource: ledger.IncomeDebt,
		ProjectID:    in.ProjectID,
		Description:  description,
		Payment:      in.Payment,
		CreditorName: in.CreditorName,
		UserID:       in.UserID,
	})
}

// PayDebt repays a debt from the register
func (s *CashLedgerService) PayDebt(ctx context.Context, in PayDebtInput) (*PayDebtResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "cash_ledger", "pay_debt",
		telemetry.AttrAmount.String(in.Amount.String()),
		telemetry.AttrDebtID.String(in.DebtID.String()),
	)
	defer span.End()

	details, err := in.Payment.toDomain()
	if err != nil {
		return nil, s.reject(ctx, "debt_payment", shared.NewValidationError(err.Error()))
	}
	if in.Date.IsZero() {
		return nil, s.reject(ctx, "debt_payment", shared.NewValidationError("Date is required"))
	}

	var result *PayDebtResult
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		acc, err := repos.Accounts().Lock(ctx)
		if err != nil {
			return err
		}
		d, err := repos.Debts().FindByIDForUpdate(ctx, in.DebtID)
		if err != nil {
			return err
		}
		if err := d.CheckPayment(in.Amount); err != nil {
			return err
		}

		description := in.Description
		if description == "" {
			description = "Paiement dette - " + d.CreditorName
		}
		debtID := d.ID
		op, err := acc.ApplyDebit(ledger.DebitRequest{
			Amount:        in.Amount,
			DebtID:        &debtID,
			Payment:       details,
			Description:   description,
			EffectiveDate: in.Date,
			UserID:        in.UserID,
		})
		if err != nil {
			return err
		}
		payment := debt.NewPayment(d.ID, in.Amount, details, in.Description, in.Date, op.ID, in.UserID)
		if err := d.ApplyPayment(payment); err != nil {
			return err
		}

		if err := repos.Accounts().Save(ctx, acc); err != nil {
			return err
		}
		if err := repos.Operations().Create(ctx, op); err != nil {
			return err
		}
		if err := repos.Debts().AddPayment(ctx, &payment); err != nil {
			return err
		}
		if err := repos.Debts().Save(ctx, d); err != nil {
			return err
		}
		entry, err := s.appendOperationEntry(ctx, repos, op)
		if err != nil {
			return err
		}

		var proj *project.Project
		if d.ProjectID != nil {
			if proj, err = repos.Projects().FindByID(ctx, *d.ProjectID); err != nil {
				s.logger.Debug("Project lookup for notification failed",
					zap.String("project_id", d.ProjectID.String()),
					zap.Error(err),
				)
			}
		}
		ec := s.eventContext(ctx, repos, proj, op.UserID)
		events = append([]shared.DomainEvent{ledger.NewCashOperationRecordedEvent(acc.ID, op, entry.Reference, ec)}, d.GetDomainEvents()...)

		opID := op.ID
		result = &PayDebtResult{
			MovementResult: MovementResult{
				OperationID:   &opID,
				HistoryID:     entry.ID,
				Reference:     entry.Reference,
				BalanceBefore: op.BalanceBefore,
				NewBalance:    op.BalanceAfter,
				Date:          op.EffectiveDate,
			},
			PaymentID: payment.ID,
			DebtID:    d.ID,
			Remaining: d.Remaining,
			Status:    d.Status,
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, "debt_payment", err)
	}

	s.metrics.RecordMovement(ctx, "debt_payment", in.Amount.Amount())
	s.publish(ctx, events)
	return result, nil
}

// AdjustBalance sets the balance to an explicit value and records a
// balance_adjustment history entry without a cash operation.
func (s *CashLedgerService) AdjustBalance(ctx context.Context, in AdjustInput) (*MovementResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "cash_ledger", "adjust", telemetry.AttrAmount.String(in.Target.String()))
	defer span.End()

	if in.Target.IsNegative() {
		return nil, s.reject(ctx, "adjustment", shared.NewValidationError("Balance cannot be negative"))
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, s.reject(ctx, "adjustment", shared.NewValidationError("A reason is required for a balance adjustment"))
	}

	var result *MovementResult
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		acc, err := repos.Accounts().Lock(ctx)
		if err != nil {
			return err
		}
		snap, err := acc.Adjust(in.Target)
		if err != nil {
			return err
		}
		if err := repos.Accounts().Save(ctx, acc); err != nil {
			return err
		}
		ref, err := s.nextReference(ctx, repos)
		if err != nil {
			return err
		}
		entry := ledger.NewAdjustmentEntry(ref, snap, in.UserID, in.Description, acc.UpdatedAt)
		if err := repos.History().Create(ctx, entry); err != nil {
			return err
		}
		ec := s.eventContext(ctx, repos, nil, in.UserID)
		events = []shared.DomainEvent{ledger.NewCashBalanceAdjustedEvent(acc.ID, entry, ec.UserName)}
		result = &MovementResult{
			HistoryID:     entry.ID,
			Reference:     entry.Reference,
			BalanceBefore: snap.Before,
			NewBalance:    snap.After,
			Date:          entry.EffectiveDate,
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, "adjustment", err)
	}

	s.metrics.RecordMovement(ctx, string(ledger.ActionBalanceAdjustment), result.NewBalance.Sub(result.BalanceBefore).Amount())
	s.publish(ctx, events)
	return result, nil
}

func (s *CashLedgerService) appendOperationEntry(ctx context.Context, repos transaction.Repositories, op *ledger.CashOperation) (*ledger.HistoryEntry, error) {
	ref, err := s.nextReference(ctx, repos)
	if err != nil {
		return nil, err
	}
	entry := ledger.NewOperationEntry(ref, op)
	if err := repos.History().Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *CashLedgerService) nextReference(ctx context.Context, repos transaction.Repositories) (string, error) {
	n, err := repos.Sequences().Next(ctx, ledger.HistorySequenceScope)
	if err != nil {
		return "", err
	}
	return ledger.FormatReference(s.prefix, n), nil
}

// eventContext resolves display names for notifications. Lookup failures
// only degrade the notification text.
func (s *CashLedgerService) eventContext(ctx context.Context, repos transaction.Repositories, proj *project.Project, userID *uuid.UUID) ledger.EventContext {
	ec := ledger.EventContext{UserName: SystemUserName}
	if proj != nil {
		ec.ProjectName = proj.Name
		ec.Collaborator = proj.CollaboratorName
	}
	if userID != nil {
		if u, err := repos.Users().FindByID(ctx, *userID); err == nil {
			ec.UserName = u.DisplayName()
		}
	}
	return ec
}

func (s *CashLedgerService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		s.logger.Warn("Failed to publish ledger events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// reject counts a refused request and marks the current span before
// returning err unchanged.
func (s *CashLedgerService) reject(ctx context.Context, kind string, err error) error {
	telemetry.RecordFailure(ctx, err)
	var de *shared.DomainError
	if errors.As(err, &de) {
		s.metrics.RecordRejection(ctx, kind, de.Code)
	}
	return err
}
