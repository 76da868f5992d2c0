package document

import (
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod of a delivery note
type PaymentMethod string

const (
	PaymentBankCheque   PaymentMethod = "bank_cheque"
	PaymentBankTransfer PaymentMethod = "bank_virement"
	PaymentPostBaridi   PaymentMethod = "poste_baridi"
	PaymentPostCCP      PaymentMethod = "poste_ccp"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentBankCheque, PaymentBankTransfer, PaymentPostBaridi, PaymentPostCCP:
		return true
	}
	return false
}

// Label returns the French label of the method
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentBankCheque:
		return "Chèque bancaire"
	case PaymentBankTransfer:
		return "Virement bancaire"
	case PaymentPostBaridi:
		return "BaridiMob"
	case PaymentPostCCP:
		return "CCP"
	}
	return string(m)
}

// LineItem is one delivered good. Either UnitPrice or Total may be omitted
// on input; the missing one is derived from the other.
type LineItem struct {
	ID          uuid.UUID
	Designation string
	Quantity    int64
	UnitPrice   valueobject.Money
	Total       valueobject.Money
}

// NewLineItem derives the missing price. With neither price the total is zero.
func NewLineItem(designation string, quantity int64, unitPrice, total *valueobject.Money) (LineItem, error) {
	designation = strings.TrimSpace(designation)
	if designation == "" {
		return LineItem{}, shared.NewValidationError("Item designation is required")
	}
	if quantity < 1 {
		return LineItem{}, shared.NewValidationError("Item quantity must be at least 1")
	}
	if (unitPrice != nil && unitPrice.IsNegative()) || (total != nil && total.IsNegative()) {
		return LineItem{}, shared.NewValidationError("Item prices cannot be negative")
	}
	item := LineItem{ID: uuid.New(), Designation: designation, Quantity: quantity}
	switch {
	case unitPrice != nil && (total == nil || total.IsZero()):
		item.UnitPrice = *unitPrice
		item.Total = unitPrice.MulInt(quantity)
	case total != nil && (unitPrice == nil || unitPrice.IsZero()):
		item.Total = *total
		item.UnitPrice = valueobject.NewMoney(total.Amount().Div(decimal.NewFromInt(quantity)))
	case unitPrice != nil && total != nil:
		item.UnitPrice = *unitPrice
		item.Total = *total
	default:
		item.UnitPrice = valueobject.Zero()
		item.Total = valueobject.Zero()
	}
	return item, nil
}

// Charge is an extra cost billed on a delivery note
type Charge struct {
	ID          uuid.UUID
	Description string
	Amount      valueobject.Money
}

// NewCharge validates an additional charge
func NewCharge(description string, amount valueobject.Money) (Charge, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Charge{}, shared.NewValidationError("Charge description is required")
	}
	if !amount.IsPositive() {
		return Charge{}, shared.NewValidationError("Charge amount must be greater than zero")
	}
	return Charge{ID: uuid.New(), Description: description, Amount: amount}, nil
}

// DeliveryNote (bon de livraison)
type DeliveryNote struct {
	shared.AuditedAggregateRoot
	Number             string
	ProjectID          uuid.UUID
	OriginAddress      string
	DestinationAddress string
	Description        string
	PaymentMethod      PaymentMethod
	Items              []LineItem
	Charges            []Charge
	PDFKey             string
	PDFGeneratedAt     *time.Time
	PDFGeneratedBy     *uuid.UUID
}

// DeliveryNoteContent is the editable part of a delivery note
type DeliveryNoteContent struct {
	OriginAddress      string
	DestinationAddress string
	Description        string
	PaymentMethod      PaymentMethod
	Items              []LineItem
	Charges            []Charge
}

func (c DeliveryNoteContent) validate() error {
	if strings.TrimSpace(c.OriginAddress) == "" || strings.TrimSpace(c.DestinationAddress) == "" {
		return shared.NewValidationError("Origin and destination addresses are required")
	}
	if !c.PaymentMethod.IsValid() {
		return shared.NewValidationError("Payment method must be one of bank_cheque, bank_virement, poste_baridi, poste_ccp")
	}
	if len(c.Items) == 0 {
		return shared.NewValidationError("At least one item is required")
	}
	return nil
}

// NewDeliveryNote creates an unnumbered delivery note for a project
func NewDeliveryNote(projectID uuid.UUID, content DeliveryNoteContent, createdBy *uuid.UUID) (*DeliveryNote, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewValidationError("Project is required")
	}
	if err := content.validate(); err != nil {
		return nil, err
	}
	n := &DeliveryNote{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		ProjectID:            projectID,
	}
	n.setContent(content)
	return n, nil
}

// AssignNumber sets the document number once
func (n *DeliveryNote) AssignNumber(projectNumber, seq int64) error {
	if n.Number != "" {
		return shared.NewDomainError(shared.CodeInvalidState, "Delivery note is already numbered")
	}
	n.Number = DeliveryNoteNumber(yearOf(n.CreatedAt), projectNumber, seq)
	return nil
}

// Year returns the numbering year of the note
func (n *DeliveryNote) Year() int {
	return yearOf(n.CreatedAt)
}

// Replace swaps the editable content; the number never changes
func (n *DeliveryNote) Replace(content DeliveryNoteContent) error {
	if err := content.validate(); err != nil {
		return err
	}
	n.setContent(content)
	n.Touch()
	n.IncrementVersion()
	return nil
}

func (n *DeliveryNote) setContent(c DeliveryNoteContent) {
	n.OriginAddress = strings.TrimSpace(c.OriginAddress)
	n.DestinationAddress = strings.TrimSpace(c.DestinationAddress)
	n.Description = c.Description
	n.PaymentMethod = c.PaymentMethod
	n.Items = c.Items
	n.Charges = c.Charges
}

// ItemsTotal sums the line totals
func (n *DeliveryNote) ItemsTotal() valueobject.Money {
	total := valueobject.Zero()
	for _, it := range n.Items {
		total = total.Add(it.Total)
	}
	return total
}

// ChargesTotal sums the additional charges
func (n *DeliveryNote) ChargesTotal() valueobject.Money {
	total := valueobject.Zero()
	for _, c := range n.Charges {
		total = total.Add(c.Amount)
	}
	return total
}

// Total is the derived document total, recomputed from the children every time
func (n *DeliveryNote) Total() valueobject.Money {
	return n.ItemsTotal().Add(n.ChargesTotal())
}

// MarkPDFGenerated records where the rendered PDF was stored
func (n *DeliveryNote) MarkPDFGenerated(key string, by *uuid.UUID) {
	now := time.Now()
	n.PDFKey = key
	n.PDFGeneratedAt = &now
	n.PDFGeneratedBy = by
	n.Touch()
}

// HistoryAction is what happened to a delivery note
type HistoryAction string

const (
	HistoryCreated       HistoryAction = "created"
	HistoryUpdated       HistoryAction = "updated"
	HistoryPDFGenerated  HistoryAction = "pdf_generated"
	HistoryPDFDownloaded HistoryAction = "pdf_downloaded"
	HistoryDeleted       HistoryAction = "deleted"
)

// DeliveryNoteHistory is an audit line that survives deletion of the note
type DeliveryNoteHistory struct {
	ID             uuid.UUID
	ProjectID      uuid.UUID
	DeliveryNoteID *uuid.UUID
	Number         string
	Action         HistoryAction
	UserID         *uuid.UUID
	Description    string
	CreatedAt      time.Time
}

// NewDeliveryNoteHistory records action on n
func NewDeliveryNoteHistory(n *DeliveryNote, action HistoryAction, userID *uuid.UUID, description string) *DeliveryNoteHistory {
	id := n.ID
	return &DeliveryNoteHistory{
		ID:             uuid.New(),
		ProjectID:      n.ProjectID,
		DeliveryNoteID: &id,
		Number:         n.Number,
		Action:         action,
		UserID:         userID,
		Description:    description,
		CreatedAt:      time.Now(),
	}
}
