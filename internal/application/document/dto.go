package document

import (
	"time"

	"github.com/ech/backend/internal/domain/document"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LineItemInput is one delivered good. Either price may be omitted.
type LineItemInput struct {
	Designation string
	Quantity    int64
	UnitPrice   *valueobject.Money
	Total       *valueobject.Money
}

// ChargeInput is an additional charge
type ChargeInput struct {
	Description string
	Amount      valueobject.Money
}

// DeliveryNoteInput creates or replaces a delivery note
type DeliveryNoteInput struct {
	ProjectID          uuid.UUID
	OriginAddress      string
	DestinationAddress string
	Description        string
	PaymentMethod      string
	Items              []LineItemInput
	Charges            []ChargeInput
}

func (in DeliveryNoteInput) content() (document.DeliveryNoteContent, error) {
	c := document.DeliveryNoteContent{
		OriginAddress:      in.OriginAddress,
		DestinationAddress: in.DestinationAddress,
		Description:        in.Description,
		PaymentMethod:      document.PaymentMethod(in.PaymentMethod),
	}
	for _, it := range in.Items {
		item, err := document.NewLineItem(it.Designation, it.Quantity, it.UnitPrice, it.Total)
		if err != nil {
			return c, err
		}
		c.Items = append(c.Items, item)
	}
	for _, ch := range in.Charges {
		charge, err := document.NewCharge(ch.Description, ch.Amount)
		if err != nil {
			return c, err
		}
		c.Charges = append(c.Charges, charge)
	}
	return c, nil
}

// OrderLineInput is one purchase order line
type OrderLineInput struct {
	Designation string
	Quantity    int64
	UnitPrice   valueobject.Money
}

// PurchaseOrderInput creates a purchase order
type PurchaseOrderInput struct {
	OrderDate    time.Time
	SupplierName string
	Description  string
	ProjectID    *uuid.UUID
	Lines        []OrderLineInput
}

// MissionOrderInput creates a mission order
type MissionOrderInput = document.MissionDetails

// LineItemView is a rendered line item
type LineItemView struct {
	ID          uuid.UUID         `json:"id"`
	Designation string            `json:"designation"`
	Quantity    int64             `json:"quantity"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Total       valueobject.Money `json:"total_price"`
}

// ChargeView is a rendered additional charge
type ChargeView struct {
	ID          uuid.UUID         `json:"id"`
	Description string            `json:"description"`
	Amount      valueobject.Money `json:"amount"`
}

// DeliveryNoteView is a delivery note with derived totals
type DeliveryNoteView struct {
	ID                 uuid.UUID         `json:"id"`
	Number             string            `json:"number"`
	ProjectID          uuid.UUID         `json:"project_id"`
	ProjectName        string            `json:"project_name,omitempty"`
	OriginAddress      string            `json:"origin_address"`
	DestinationAddress string            `json:"destination_address"`
	Description        string            `json:"description"`
	PaymentMethod      string            `json:"payment_method"`
	PaymentMethodLabel string            `json:"payment_method_label"`
	Items              []LineItemView    `json:"items"`
	Charges            []ChargeView      `json:"additional_charges"`
	ItemsTotal         valueobject.Money `json:"items_total"`
	ChargesTotal       valueobject.Money `json:"charges_total"`
	TotalAmount        valueobject.Money `json:"total_amount"`
	PDFKey             string            `json:"pdf_key,omitempty"`
	PDFGeneratedAt     *time.Time        `json:"pdf_generated_at,omitempty"`
	CreatedBy          *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// HistoryView is one delivery note audit line
type HistoryView struct {
	ID             uuid.UUID  `json:"id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	DeliveryNoteID *uuid.UUID `json:"delivery_note_id,omitempty"`
	Number         string     `json:"number"`
	Action         string     `json:"action"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
}

// OrderLineView is a rendered purchase order line
type OrderLineView struct {
	ID          uuid.UUID         `json:"id"`
	Designation string            `json:"designation"`
	Quantity    int64             `json:"quantity"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Total       valueobject.Money `json:"total"`
}

// PurchaseOrderView is a purchase order with its derived total
type PurchaseOrderView struct {
	ID           uuid.UUID         `json:"id"`
	Number       string            `json:"number"`
	OrderDate    time.Time         `json:"order_date"`
	SupplierName string            `json:"supplier_name"`
	Description  string            `json:"description"`
	ProjectID    *uuid.UUID        `json:"project_id,omitempty"`
	Lines        []OrderLineView   `json:"lines"`
	TotalHT      valueobject.Money `json:"total_ht"`
	CreatedAt    time.Time         `json:"created_at"`
}

// MissionOrderView is a mission order
type MissionOrderView struct {
	ID             uuid.UUID  `json:"id"`
	Number         string     `json:"number"`
	FullName       string     `json:"full_name"`
	Function       string     `json:"function"`
	Address        string     `json:"address"`
	Destination    string     `json:"destination"`
	Purpose        string     `json:"purpose"`
	TransportMeans string     `json:"transport_means"`
	Registration   string     `json:"registration"`
	Registration2  string     `json:"registration_2,omitempty"`
	DepartureDate  time.Time  `json:"departure_date"`
	ReturnDate     *time.Time `json:"return_date,omitempty"`
	AccompaniedBy  string     `json:"accompanied_by"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toDeliveryNoteView(n *document.DeliveryNote) DeliveryNoteView {
	v := DeliveryNoteView{
		ID:                 n.ID,
		Number:             n.Number,
		ProjectID:          n.ProjectID,
		OriginAddress:      n.OriginAddress,
		DestinationAddress: n.DestinationAddress,
		Description:        n.Description,
		PaymentMethod:      string(n.PaymentMethod),
		PaymentMethodLabel: n.PaymentMethod.Label(),
		Items:              make([]LineItemView, len(n.Items)),
		Charges:            make([]ChargeView, len(n.Charges)),
		ItemsTotal:         n.ItemsTotal(),
		ChargesTotal:       n.ChargesTotal(),
		TotalAmount:        n.Total(),
		PDFKey:             n.PDFKey,
		PDFGeneratedAt:     n.PDFGeneratedAt,
		CreatedBy:          n.CreatedBy,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}
	for i, it := range n.Items {
		v.Items[i] = LineItemView{ID: it.ID, Designation: it.Designation, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Total: it.Total}
	}
	for i, c := range n.Charges {
		v.Charges[i] = ChargeView{ID: c.ID, Description: c.Description, Amount: c.Amount}
	}
	return v
}

func toHistoryView(h *document.DeliveryNoteHistory) HistoryView {
	return HistoryView{
		ID:             h.ID,
		ProjectID:      h.ProjectID,
		DeliveryNoteID: h.DeliveryNoteID,
		Number:         h.Number,
		Action:         string(h.Action),
		UserID:         h.UserID,
		Description:    h.Description,
		CreatedAt:      h.CreatedAt,
	}
}

func toPurchaseOrderView(o *document.PurchaseOrder) PurchaseOrderView {
	v := PurchaseOrderView{
		ID:           o.ID,
		Number:       o.Number,
		OrderDate:    o.OrderDate,
		SupplierName: o.SupplierName,
		Description:  o.Description,
		ProjectID:    o.ProjectID,
		Lines:        make([]OrderLineView, len(o.Lines)),
		TotalHT:      o.TotalHT(),
		CreatedAt:    o.CreatedAt,
	}
	for i, l := range o.Lines {
		v.Lines[i] = OrderLineView{ID: l.ID, Designation: l.Designation, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Total: l.Total()}
	}
	return v
}

func toMissionOrderView(o *document.MissionOrder) MissionOrderView {
	return MissionOrderView{
		ID:             o.ID,
		Number:         o.Number,
		FullName:       o.FullName,
		Function:       o.Function,
		Address:        o.Address,
		Destination:    o.Destination,
		Purpose:        o.Purpose,
		TransportMeans: o.TransportMeans,
		Registration:   o.Registration,
		Registration2:  o.Registration2,
		DepartureDate:  o.DepartureDate,
		ReturnDate:     o.ReturnDate,
		AccompaniedBy:  o.AccompaniedBy,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
	}
}
