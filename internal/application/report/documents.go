package report

import (
	"context"
	"errors"
	"path"

	docapp "github.com/ech/backend/internal/application/document"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/ech/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateDeliveryNotePDF renders a delivery note, archives it when an
// archive is configured and records the generation in the note's history.
func (s *Service) GenerateDeliveryNotePDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	note, err := s.documents.GetDeliveryNote(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := s.renderDeliveryNote(ctx, note, by)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.upload(ctx, f, deliveryNoteKey(note)); err != nil {
			return nil, err
		}
	}
	if err := s.documents.RecordPDFGenerated(ctx, note.ID, f.Key, by.UserID); err != nil {
		return nil, err
	}
	return f, nil
}

// DownloadDeliveryNotePDF returns the archived PDF of a delivery note,
// rendering it again when nothing was archived, and records the download.
func (s *Service) DownloadDeliveryNotePDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	note, err := s.documents.GetDeliveryNote(ctx, id)
	if err != nil {
		return nil, err
	}

	var f *File
	if s.archive != nil && note.PDFKey != "" {
		data, err := s.archive.Get(ctx, note.PDFKey)
		switch {
		case err == nil:
			f = &File{Name: path.Base(note.PDFKey), ContentType: ContentTypePDF, Data: data, Key: note.PDFKey}
			if url, expires, err := s.archive.DownloadURL(ctx, note.PDFKey); err == nil {
				f.URL, f.ExpiresAt = url, expires
			}
		case errors.Is(err, storage.ErrObjectNotFound):
			s.logger.Warn("Archived delivery note PDF is missing, rendering again",
				zap.String("delivery_note", note.Number), zap.String("key", note.PDFKey))
		default:
			return nil, err
		}
	}
	if f == nil {
		if f, err = s.renderDeliveryNote(ctx, note, by); err != nil {
			return nil, err
		}
	}

	if err := s.documents.RecordPDFDownloaded(ctx, note.ID, by.UserID); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) renderDeliveryNote(ctx context.Context, note *docapp.DeliveryNoteView, by Requester) (*File, error) {
	doc := s.newDocument("Bon de livraison", by)
	doc.Number = note.Number
	doc.Fields = []printing.Field{
		{Label: "Projet", Value: orDash(note.ProjectName)},
		{Label: "Date", Value: printing.FormatDate(note.CreatedAt)},
		{Label: "Lieu de chargement", Value: orDash(note.OriginAddress)},
		{Label: "Lieu de livraison", Value: orDash(note.DestinationAddress)},
		{Label: "Mode de paiement", Value: note.PaymentMethodLabel},
	}
	if note.Description != "" {
		doc.Fields = append(doc.Fields, printing.Field{Label: "Observation", Value: note.Description})
	}

	items := printing.Table{
		Title: "Marchandises",
		Columns: []printing.Column{
			{Title: "Désignation"}, {Title: "Quantité", Numeric: true},
			{Title: "Prix unitaire", Numeric: true}, {Title: "Montant", Numeric: true},
		},
		Footer: []string{"Total marchandises", "", "", printing.FormatMoney(note.ItemsTotal)},
	}
	for _, it := range note.Items {
		items.AddRow(it.Designation, formatCount(int(it.Quantity)), printing.FormatMoney(it.UnitPrice), printing.FormatMoney(it.Total))
	}
	doc.Tables = []printing.Table{items}

	if len(note.Charges) > 0 {
		charges := printing.Table{
			Title:   "Frais supplémentaires",
			Columns: []printing.Column{{Title: "Libellé"}, {Title: "Montant", Numeric: true}},
			Footer:  []string{"Total frais", printing.FormatMoney(note.ChargesTotal)},
		}
		for _, c := range note.Charges {
			charges.AddRow(c.Description, printing.FormatMoney(c.Amount))
		}
		doc.Tables = append(doc.Tables, charges)
	}
	doc.Totals = []printing.Field{{Label: "Montant total", Value: printing.FormatMoney(note.TotalAmount), Strong: true}}
	doc.Signatures = []string{"L'expéditeur", "Le destinataire"}

	return s.renderPDF(ctx, doc, safeName(note.Number)+".pdf")
}

// PurchaseOrderPDF prints a purchase order
func (s *Service) PurchaseOrderPDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	po, err := s.documents.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := s.newDocument("Bon de commande", by)
	doc.Number = po.Number
	doc.Fields = []printing.Field{
		{Label: "Date", Value: printing.FormatDate(po.OrderDate)},
		{Label: "Fournisseur", Value: po.SupplierName},
	}
	if po.Description != "" {
		doc.Fields = append(doc.Fields, printing.Field{Label: "Objet", Value: po.Description})
	}
	lines := printing.Table{
		Columns: []printing.Column{
			{Title: "N°"}, {Title: "Désignation"}, {Title: "Quantité", Numeric: true},
			{Title: "Prix unitaire", Numeric: true}, {Title: "Montant HT", Numeric: true},
		},
	}
	for i, l := range po.Lines {
		lines.AddRow(formatCount(i+1), l.Designation, formatCount(int(l.Quantity)), printing.FormatMoney(l.UnitPrice), printing.FormatMoney(l.Total))
	}
	doc.Tables = []printing.Table{lines}
	doc.Totals = []printing.Field{{Label: "Total HT", Value: printing.FormatMoney(po.TotalHT), Strong: true}}
	doc.Signatures = []string{"Le Gérant"}

	f, err := s.renderPDF(ctx, doc, safeName(po.Number)+".pdf")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "purchase-orders")
	return f, nil
}

// MissionOrderPDF prints a mission order
func (s *Service) MissionOrderPDF(ctx context.Context, id uuid.UUID, by Requester) (*File, error) {
	mo, err := s.documents.GetMissionOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var registrations []string
	for _, r := range []string{mo.Registration, mo.Registration2} {
		if r != "" {
			registrations = append(registrations, r)
		}
	}
	html, err := s.engine.RenderMissionOrder(&printing.MissionOrder{
		Organization:  s.cfg.Organization,
		Number:        mo.Number,
		FullName:      mo.FullName,
		Function:      mo.Function,
		Address:       mo.Address,
		Destination:   mo.Destination,
		Purpose:       mo.Purpose,
		Transport:     mo.TransportMeans,
		Registrations: registrations,
		Departure:     mo.DepartureDate,
		Return:        mo.ReturnDate,
		AccompaniedBy: mo.AccompaniedBy,
		IssuedAt:      mo.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	f, err := s.print(ctx, html, "Ordre de mission "+mo.Number, false, safeName(mo.Number)+".pdf")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, f, "mission-orders")
	return f, nil
}

func deliveryNoteKey(note *docapp.DeliveryNoteView) string {
	return path.Join("delivery-notes", note.ProjectID.String(), safeName(note.Number)+".pdf")
}
