package report

import (
	"context"
	"strings"

	ledgerapp "github.com/ech/backend/internal/application/ledger"
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// OperationPDF prints the receipt of one cash operation
func (s *Service) OperationPDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	op, err := s.ledger.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}

	title := "Bon d'encaissement"
	if op.Type == ledger.OperationDebit {
		title = "Bon de décaissement"
	}
	doc := s.newDocument(title, by)
	doc.Fields = []printing.Field{
		{Label: "Date", Value: printing.FormatDate(op.Date)},
		{Label: "Montant", Value: printing.FormatMoney(op.Amount), Strong: true},
		{Label: "Libellé", Value: orDash(op.Description)},
	}
	if op.Type == ledger.OperationCredit {
		doc.Fields = append(doc.Fields, printing.Field{Label: "Source", Value: op.IncomeSource.Label()})
		if op.Observation != "" {
			doc.Fields = append(doc.Fields, printing.Field{Label: "Observation", Value: op.Observation})
		}
	} else {
		doc.Fields = append(doc.Fields,
			printing.Field{Label: "Mode de paiement", Value: op.PaymentMode.Label()},
			printing.Field{Label: "Fournisseur", Value: orDash(op.SupplierName)},
		)
		if op.Bank != "" {
			doc.Fields = append(doc.Fields, printing.Field{Label: "Banque", Value: op.Bank})
		}
		if op.ChequeNumber != "" {
			doc.Fields = append(doc.Fields, printing.Field{Label: "N° chèque", Value: op.ChequeNumber})
		}
	}
	if op.ProjectName != "" {
		doc.Fields = append(doc.Fields, printing.Field{Label: "Projet", Value: op.ProjectName})
	}
	doc.Fields = append(doc.Fields,
		printing.Field{Label: "Solde avant", Value: printing.FormatMoney(op.BalanceBefore)},
		printing.Field{Label: "Solde après", Value: printing.FormatMoney(op.BalanceAfter)},
		printing.Field{Label: "Saisi par", Value: op.UserName},
	)
	doc.Signatures = []string{"Le Caissier", "Le Bénéficiaire"}

	f, err := s.renderPDF(ctx, doc, s.fileName("operation_"+shortID(op.ID), "pdf"))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "operations")
	return f, nil
}

// ProjectPDF prints a project sheet with its revenues and expenditures
func (s *Service) ProjectPDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	revenues, err := s.projects.ListRevenues(ctx, project.RevenueFilter{ProjectID: &id})
	if err != nil {
		return nil, err
	}
	ops, err := s.projectOperations(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := s.newDocument("Fiche projet", by)
	doc.Number = formatCount(int(p.Number))
	doc.Subtitle = p.Name
	doc.Fields = []printing.Field{
		{Label: "Description", Value: orDash(p.Description)},
		{Label: "Référence d'opération", Value: orDash(p.OperationReference)},
		{Label: "N° d'opération", Value: orDash(p.OperationNumber)},
		{Label: "Date de début", Value: printing.FormatDate(p.StartDate)},
		{Label: "Date de fin", Value: printing.FormatDate(p.EndDate)},
		{Label: "Durée", Value: formatCount(p.DurationMonths) + " mois"},
		{Label: "Collaborateur", Value: orDash(p.CollaboratorName)},
	}

	revTable := printing.Table{
		Title:     "Revenus",
		Columns:   []printing.Column{{Title: "Code"}, {Title: "Date"}, {Title: "Montant", Numeric: true}},
		EmptyText: "Aucun revenu",
	}
	revTotal := valueobject.Zero()
	for _, r := range revenues {
		revTable.AddRow(r.Code, printing.FormatDate(r.Date), printing.FormatMoney(r.Amount))
		revTotal = revTotal.Add(r.Amount)
	}
	revTable.Footer = []string{"", "Total", printing.FormatMoney(revTotal)}

	opTable := printing.Table{
		Title: "Mouvements de caisse",
		Columns: []printing.Column{
			{Title: "Date"}, {Title: "Type"}, {Title: "Libellé"}, {Title: "Paiement"},
			{Title: "Montant", Numeric: true},
		},
		EmptyText: "Aucun mouvement",
	}
	for _, op := range ops {
		opTable.AddRow(printing.FormatDate(op.Date), op.TypeLabel, op.Description, paymentLabel(&op), printing.FormatMoney(op.Amount))
	}
	doc.Tables = []printing.Table{revTable, opTable}
	doc.Totals = []printing.Field{
		{Label: "Budget estimé", Value: printing.FormatMoney(p.EstimatedBudget)},
		{Label: "Total dépenses", Value: printing.FormatMoney(p.Expenditures)},
		{Label: "Total revenus", Value: printing.FormatMoney(p.Receivables)},
		{Label: "Bénéfice", Value: printing.FormatMoney(p.Profit), Strong: true},
	}

	f, err := s.renderPDF(ctx, doc, s.fileName("projet_"+p.Name, "pdf"))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "projects")
	return f, nil
}

// FinancePDF prints the cash flows of a project
func (s *Service) FinancePDF(ctx context.Context, in projectapp.FinanceReportInput, by Requester) (*File, error) {
	rep, err := s.projects.FinanceReport(ctx, in)
	if err != nil {
		return nil, err
	}

	title := "Rapport financier"
	inLabel, outLabel := "Entrées", "Sorties"
	if rep.ByCollaborator {
		title = "Rapport financier collaborateur"
		inLabel = "Apports"
	}
	doc := s.newDocument(title, by)
	doc.Subtitle = rep.Project.Name
	period := "Depuis le début"
	if rep.DateFrom != nil || rep.DateTo != nil {
		period = strings.TrimSpace(printing.FormatDate(rep.DateFrom) + " - " + printing.FormatDate(rep.DateTo))
	}
	doc.Fields = []printing.Field{{Label: "Période", Value: period}}
	if rep.Project.CollaboratorName != "" {
		doc.Fields = append(doc.Fields, printing.Field{Label: "Collaborateur", Value: rep.Project.CollaboratorName})
	}

	table := printing.Table{
		Columns: []printing.Column{
			{Title: "Date"}, {Title: "Nature"}, {Title: "Libellé"},
			{Title: inLabel, Numeric: true}, {Title: outLabel, Numeric: true},
		},
		EmptyText: "Aucun mouvement sur la période",
		Footer:    []string{"", "", "Totaux", printing.FormatMoney(rep.TotalIn), printing.FormatMoney(rep.TotalOut)},
	}
	for _, l := range rep.Lines {
		table.AddRow(printing.FormatDate(l.Date), l.Label, l.Description, amountOrEmpty(l.In), amountOrEmpty(l.Out))
	}
	doc.Tables = []printing.Table{table}
	doc.Totals = []printing.Field{{Label: "Solde", Value: printing.FormatMoney(rep.Net), Strong: true}}

	f, err := s.renderPDF(ctx, doc, s.fileName("rapport_financier_"+rep.Project.Name, "pdf"))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "projects")
	return f, nil
}

// DebtJournalPDF prints the borrowing and repayments of a debt
func (s *Service) DebtJournalPDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	j, err := s.debts.Journal(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := s.newDocument("Journal de dette", by)
	doc.Subtitle = j.Debt.CreditorName
	doc.Fields = []printing.Field{
		{Label: "Créancier", Value: j.Debt.CreditorName},
		{Label: "Date d'emprunt", Value: printing.FormatDate(j.Debt.DateCreated)},
		{Label: "Statut", Value: j.Debt.StatusLabel},
	}
	if j.Debt.ProjectName != "" {
		doc.Fields = append(doc.Fields, printing.Field{Label: "Projet", Value: j.Debt.ProjectName})
	}

	table := printing.Table{
		Columns: []printing.Column{
			{Title: "Date"}, {Title: "Opération"}, {Title: "Libellé"}, {Title: "Paiement"},
			{Title: "Emprunté", Numeric: true}, {Title: "Remboursé", Numeric: true}, {Title: "Reste", Numeric: true},
		},
	}
	for _, l := range j.Lines {
		table.AddRow(printing.FormatDate(l.Date), l.Label, l.Description, l.PaymentMode,
			amountOrEmpty(l.Borrowed), amountOrEmpty(l.Repaid), printing.FormatMoney(l.Remaining))
	}
	doc.Tables = []printing.Table{table}
	doc.Totals = []printing.Field{
		{Label: "Montant initial", Value: printing.FormatMoney(j.Debt.Original)},
		{Label: "Total remboursé", Value: printing.FormatMoney(j.TotalRepaid)},
		{Label: "Reste à payer", Value: printing.FormatMoney(j.Debt.Remaining), Strong: true},
	}

	f, err := s.renderPDF(ctx, doc, s.fileName("journal_dette_"+j.Debt.CreditorName, "pdf"))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "debts")
	return f, nil
}

// projectOperations pages through the cash operations of a project, oldest first
func (s *Service) projectOperations(ctx context.Context, projectID uuid.UUID) ([]ledgerapp.OperationView, error) {
	filter := ledger.OperationFilter{
		Filter:    shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "effective_date", OrderDir: "asc"},
		ProjectID: &projectID,
	}
	var all []ledgerapp.OperationView
	for {
		page, err := s.ledger.ListOperations(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) == 0 || int64(len(all)) >= page.Total {
			return all, nil
		}
		filter.Page++
	}
}

func amountOrEmpty(m valueobject.Money) string {
	if m.IsZero() {
		return ""
	}
	return printing.FormatMoney(m)
}
