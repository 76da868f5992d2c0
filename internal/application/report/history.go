package report

import (
	"context"

	ledgerapp "github.com/ech/backend/internal/application/ledger"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/infrastructure/export"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// maxHistoryRows bounds a single history report
const maxHistoryRows = 20000

type historySummary struct {
	entries []ledgerapp.HistoryView
	credits valueobject.Money
	debits  valueobject.Money
	adjust  valueobject.Money
}

// collectHistory pages through every entry matching filter
func (s *Service) collectHistory(ctx context.Context, filter ledger.HistoryFilter) (*historySummary, error) {
	filter.Page = 1
	filter.PageSize = shared.MaxPageSize
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "reference_number", "asc"
	}

	sum := &historySummary{credits: valueobject.Zero(), debits: valueobject.Zero(), adjust: valueobject.Zero()}
	for {
		page, err := s.ledger.ListHistory(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, e := range page.Items {
			sum.entries = append(sum.entries, e)
			switch e.Action {
			case ledger.ActionCredit:
				sum.credits = sum.credits.Add(e.Amount)
			case ledger.ActionDebit:
				sum.debits = sum.debits.Add(e.Amount)
			case ledger.ActionBalanceAdjustment:
				sum.adjust = sum.adjust.Add(e.BalanceAfter.Sub(e.BalanceBefore))
			}
		}
		if len(page.Items) == 0 || int64(len(sum.entries)) >= page.Total {
			return sum, nil
		}
		if len(sum.entries) >= maxHistoryRows {
			return nil, shared.NewValidationError("Too many history entries, narrow the filters")
		}
		filter.Page++
	}
}

// HistoryPDF prints the audit trail matching filter
func (s *Service) HistoryPDF(ctx context.Context, filter ledger.HistoryFilter, by Requester) (*File, error) {
	sum, err := s.collectHistory(ctx, filter)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}

	doc := s.newDocument("Historique de caisse", by)
	doc.Landscape = true
	doc.Fields = describeHistoryFilter(filter)

	table := printing.Table{
		Columns: []printing.Column{
			{Title: "N°"}, {Title: "Date"}, {Title: "Action"}, {Title: "Libellé"},
			{Title: "Projet"}, {Title: "Paiement"}, {Title: "Utilisateur"},
			{Title: "Montant", Numeric: true}, {Title: "Solde avant", Numeric: true}, {Title: "Solde après", Numeric: true},
		},
		EmptyText: "Aucune opération pour ces critères",
	}
	for _, e := range sum.entries {
		table.AddRow(
			e.Reference,
			printing.FormatDate(e.Date),
			e.ActionLabel,
			e.Description,
			orDash(e.ProjectName),
			paymentLabel(e.Operation),
			e.UserName,
			printing.FormatMoney(e.Amount),
			printing.FormatMoney(e.BalanceBefore),
			printing.FormatMoney(e.BalanceAfter),
		)
	}
	doc.Tables = []printing.Table{table}
	doc.Totals = []printing.Field{
		{Label: "Nombre d'opérations", Value: formatCount(len(sum.entries))},
		{Label: "Total encaissements", Value: printing.FormatMoney(sum.credits)},
		{Label: "Total décaissements", Value: printing.FormatMoney(sum.debits)},
		{Label: "Ajustements", Value: printing.FormatMoney(sum.adjust)},
		{Label: "Solde actuel de la caisse", Value: printing.FormatMoney(balance.Balance), Strong: true},
	}

	f, err := s.renderPDF(ctx, doc, s.fileName("historique_caisse", "pdf"))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "history")
	return f, nil
}

// HistoryXLSX exports the audit trail matching filter as a spreadsheet
func (s *Service) HistoryXLSX(ctx context.Context, filter ledger.HistoryFilter, by Requester) (*File, error) {
	sum, err := s.collectHistory(ctx, filter)
	if err != nil {
		return nil, err
	}

	sheet := export.Sheet{
		Name: "Historique",
		Columns: []export.Column{
			{Title: "N°", Width: 10},
			{Title: "Date", Kind: export.KindDate},
			{Title: "Action", Width: 18},
			{Title: "Libellé", Width: 40},
			{Title: "Projet"},
			{Title: "Mode de paiement", Width: 16},
			{Title: "Fournisseur"},
			{Title: "Banque", Width: 16},
			{Title: "N° chèque", Width: 14},
			{Title: "Utilisateur"},
			{Title: "Montant", Kind: export.KindMoney},
			{Title: "Solde avant", Kind: export.KindMoney},
			{Title: "Solde après", Kind: export.KindMoney},
			{Title: "Saisi le", Kind: export.KindDateTime},
		},
	}
	for _, e := range sum.entries {
		var mode, supplier, bank, cheque string
		if op := e.Operation; op != nil {
			supplier, bank, cheque = op.SupplierName, op.Bank, op.ChequeNumber
			if op.PaymentMode != "" {
				mode = op.PaymentMode.Label()
			}
		}
		sheet.AddRow(e.Reference, e.Date, e.ActionLabel, e.Description, e.ProjectName,
			mode, supplier, bank, cheque, e.UserName,
			e.Amount, e.BalanceBefore, e.BalanceAfter, e.CreatedAt)
	}

	summary := export.Sheet{
		Name:    "Synthèse",
		Columns: []export.Column{{Title: "Rubrique", Width: 30}, {Title: "Montant", Kind: export.KindMoney}},
	}
	summary.AddRow("Total encaissements", sum.credits)
	summary.AddRow("Total décaissements", sum.debits)
	summary.AddRow("Ajustements", sum.adjust)
	summary.AddRow("Variation nette", sum.credits.Sub(sum.debits).Add(sum.adjust))
	summary.AddRow("Généré par", orDash(by.Name))

	data, err := export.BuildXLSX(sheet, summary)
	if err != nil {
		return nil, err
	}
	f := &File{
		Name:        s.fileName("historique_caisse", "xlsx"),
		ContentType: export.ContentTypeXLSX,
		Data:        data,
	}
	s.publish(ctx, f, "history")
	return f, nil
}

// describeHistoryFilter lists the active filters for the report header
func describeHistoryFilter(f ledger.HistoryFilter) []printing.Field {
	var fields []printing.Field
	add := func(label, value string) {
		if value != "" {
			fields = append(fields, printing.Field{Label: label, Value: value})
		}
	}
	if f.DateFrom != nil || f.DateTo != nil {
		add("Période", printing.FormatDate(f.DateFrom)+" - "+printing.FormatDate(f.DateTo))
	}
	if f.Action != "" {
		add("Action", f.Action.Label())
	}
	if f.OperationType != "" {
		add("Type d'opération", f.OperationType.Label())
	}
	if f.PaymentMode != "" {
		add("Mode de paiement", f.PaymentMode.Label())
	}
	if f.IncomeSource != "" {
		add("Source", f.IncomeSource.Label())
	}
	if f.AmountMin != nil {
		add("Montant minimum", printing.FormatMoney(*f.AmountMin))
	}
	if f.AmountMax != nil {
		add("Montant maximum", printing.FormatMoney(*f.AmountMax))
	}
	add("Fournisseur", f.Supplier)
	add("Banque", f.Bank)
	add("N° chèque", f.ChequeNumber)
	add("Référence", f.Reference)
	add("Recherche", f.Search)
	if f.ProjectID != nil {
		add("Projet", shortID(*f.ProjectID))
	}
	if len(fields) == 0 {
		fields = append(fields, printing.Field{Label: "Critères", Value: "Toutes les opérations"})
	}
	return fields
}

func paymentLabel(op *ledgerapp.OperationView) string {
	if op == nil || op.PaymentMode == "" {
		return "-"
	}
	label := op.PaymentMode.Label()
	if op.ChequeNumber != "" {
		label += " n° " + op.ChequeNumber
	}
	return label
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
