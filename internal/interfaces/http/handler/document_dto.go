package handler

import (
	docapp "github.com/ech/backend/internal/application/document"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LineItemRequest is one delivered good. Either price may be omitted and is
// then derived from the other.
type LineItemRequest struct {
	Designation string             `json:"designation" binding:"required,max=500"`
	Quantity    int64              `json:"quantity" binding:"required,gt=0"`
	UnitPrice   *valueobject.Money `json:"unit_price"`
	Total       *valueobject.Money `json:"total"`
}

// ChargeRequest is an additional charge of a delivery note
type ChargeRequest struct {
	Description string            `json:"description" binding:"required,max=500"`
	Amount      valueobject.Money `json:"amount" binding:"gte=0"`
}

// DeliveryNoteRequest creates or replaces a delivery note
type DeliveryNoteRequest struct {
	ProjectID          *uuid.UUID        `json:"project_id" binding:"required"`
	OriginAddress      string            `json:"origin_address" binding:"max=500"`
	DestinationAddress string            `json:"destination_address" binding:"max=500"`
	Description        string            `json:"description" binding:"max=2000"`
	PaymentMethod      string            `json:"payment_method" binding:"omitempty,oneof=bank_cheque bank_virement poste_baridi"`
	Items              []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Charges            []ChargeRequest   `json:"charges" binding:"omitempty,dive"`
}

func (r DeliveryNoteRequest) input() docapp.DeliveryNoteInput {
	in := docapp.DeliveryNoteInput{
		ProjectID:          *r.ProjectID,
		OriginAddress:      r.OriginAddress,
		DestinationAddress: r.DestinationAddress,
		Description:        r.Description,
		PaymentMethod:      r.PaymentMethod,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, docapp.LineItemInput{
			Designation: it.Designation,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	for _, ch := range r.Charges {
		in.Charges = append(in.Charges, docapp.ChargeInput{Description: ch.Description, Amount: ch.Amount})
	}
	return in
}

// OrderLineRequest is one purchase order line
type OrderLineRequest struct {
	Designation string            `json:"designation" binding:"required,max=500"`
	Quantity    int64             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   valueobject.Money `json:"unit_price" binding:"gte=0"`
}

// PurchaseOrderRequest creates a purchase order
type PurchaseOrderRequest struct {
	OrderDate    *Date              `json:"order_date"`
	SupplierName string             `json:"supplier_name" binding:"required,max=200"`
	Description  string             `json:"description" binding:"max=2000"`
	ProjectID    *uuid.UUID         `json:"project_id"`
	Lines        []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r PurchaseOrderRequest) input() docapp.PurchaseOrderInput {
	in := docapp.PurchaseOrderInput{
		OrderDate:    r.OrderDate.OrToday(),
		SupplierName: r.SupplierName,
		Description:  r.Description,
		ProjectID:    r.ProjectID,
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, docapp.OrderLineInput{
			Designation: l.Designation,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return in
}

// MissionOrderRequest creates a mission order
type MissionOrderRequest struct {
	FullName       string `json:"full_name" binding:"required,max=200"`
	Function       string `json:"function" binding:"max=200"`
	Address        string `json:"address" binding:"max=500"`
	Destination    string `json:"destination" binding:"required,max=500"`
	Purpose        string `json:"purpose" binding:"max=2000"`
	TransportMeans string `json:"transport_means" binding:"max=200"`
	Registration   string `json:"registration" binding:"max=50"`
	Registration2  string `json:"registration2" binding:"max=50"`
	DepartureDate  *Date  `json:"departure_date" binding:"required"`
	ReturnDate     *Date  `json:"return_date"`
	AccompaniedBy  string `json:"accompanied_by" binding:"max=500"`
}

func (r MissionOrderRequest) input() docapp.MissionOrderInput {
	return docapp.MissionOrderInput{
		FullName:       r.FullName,
		Function:       r.Function,
		Address:        r.Address,
		Destination:    r.Destination,
		Purpose:        r.Purpose,
		TransportMeans: r.TransportMeans,
		Registration:   r.Registration,
		Registration2:  r.Registration2,
		DepartureDate:  r.DepartureDate.OrToday(),
		ReturnDate:     r.ReturnDate.Ptr(),
		AccompaniedBy:  r.AccompaniedBy,
	}
}
