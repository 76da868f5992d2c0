package models

import (
	"time"

	"github.com/ech/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryNoteModel is the persistence model for a delivery note.
// TotalAmount is derived from the children and rewritten on every save.
type DeliveryNoteModel struct {
	AuditedAggregateModel
	Number             string                    `gorm:"type:varchar(30);not null;uniqueIndex:idx_delivery_notes_number"`
	ProjectID          uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OriginAddress      string                    `gorm:"type:text;not null"`
	DestinationAddress string                    `gorm:"type:text;not null"`
	Description        string                    `gorm:"type:text"`
	PaymentMethod      document.PaymentMethod    `gorm:"type:varchar(20);not null"`
	TotalAmount        decimal.Decimal           `gorm:"type:decimal(15,2);not null;default:0"`
	PDFKey             string                    `gorm:"column:pdf_key;type:varchar(500)"`
	PDFGeneratedAt     *time.Time                `gorm:"column:pdf_generated_at"`
	PDFGeneratedBy     *uuid.UUID                `gorm:"column:pdf_generated_by;type:uuid"`
	Items              []DeliveryNoteItemModel   `gorm:"foreignKey:DeliveryNoteID;references:ID"`
	Charges            []DeliveryNoteChargeModel `gorm:"foreignKey:DeliveryNoteID;references:ID"`
}

// TableName returns the table name for GORM
func (DeliveryNoteModel) TableName() string {
	return "delivery_notes"
}

// ToDomain converts the persistence model to a domain DeliveryNote.
func (m *DeliveryNoteModel) ToDomain() *document.DeliveryNote {
	n := &document.DeliveryNote{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Number:               m.Number,
		ProjectID:            m.ProjectID,
		OriginAddress:        m.OriginAddress,
		DestinationAddress:   m.DestinationAddress,
		Description:          m.Description,
		PaymentMethod:        m.PaymentMethod,
		PDFKey:               m.PDFKey,
		PDFGeneratedAt:       m.PDFGeneratedAt,
		PDFGeneratedBy:       m.PDFGeneratedBy,
		Items:                make([]document.LineItem, len(m.Items)),
		Charges:              make([]document.Charge, len(m.Charges)),
	}
	for i, it := range m.Items {
		n.Items[i] = document.LineItem{
			ID:          it.ID,
			Designation: it.Designation,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
			Total:       money(it.Total),
		}
	}
	for i, c := range m.Charges {
		n.Charges[i] = document.Charge{ID: c.ID, Description: c.Description, Amount: money(c.Amount)}
	}
	return n
}

// FromDomain populates the persistence model and its children from a domain DeliveryNote.
func (m *DeliveryNoteModel) FromDomain(n *document.DeliveryNote) {
	m.FromDomainAuditedAggregateRoot(n.AuditedAggregateRoot)
	m.Number = n.Number
	m.ProjectID = n.ProjectID
	m.OriginAddress = n.OriginAddress
	m.DestinationAddress = n.DestinationAddress
	m.Description = n.Description
	m.PaymentMethod = n.PaymentMethod
	m.TotalAmount = n.Total().Amount()
	m.PDFKey = n.PDFKey
	m.PDFGeneratedAt = n.PDFGeneratedAt
	m.PDFGeneratedBy = n.PDFGeneratedBy
	m.Items = make([]DeliveryNoteItemModel, len(n.Items))
	for i, it := range n.Items {
		m.Items[i] = DeliveryNoteItemModel{
			ID:             it.ID,
			DeliveryNoteID: n.ID,
			Position:       i,
			Designation:    it.Designation,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice.Amount(),
			Total:          it.Total.Amount(),
		}
	}
	m.Charges = make([]DeliveryNoteChargeModel, len(n.Charges))
	for i, c := range n.Charges {
		m.Charges[i] = DeliveryNoteChargeModel{
			ID:             c.ID,
			DeliveryNoteID: n.ID,
			Position:       i,
			Description:    c.Description,
			Amount:         c.Amount.Amount(),
		}
	}
}

// DeliveryNoteItemModel is one delivered line.
type DeliveryNoteItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	DeliveryNoteID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null;default:0"`
	Designation    string          `gorm:"type:varchar(500);not null"`
	Quantity       int64           `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (DeliveryNoteItemModel) TableName() string {
	return "delivery_note_items"
}

// DeliveryNoteChargeModel is one additional charge.
type DeliveryNoteChargeModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	DeliveryNoteID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null;default:0"`
	Description    string          `gorm:"type:varchar(500);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (DeliveryNoteChargeModel) TableName() string {
	return "delivery_note_charges"
}

// DeliveryNoteHistoryModel is an audit line kept after the note is deleted.
type DeliveryNoteHistoryModel struct {
	ID             uuid.UUID              `gorm:"type:uuid;primary_key"`
	ProjectID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	DeliveryNoteID *uuid.UUID             `gorm:"type:uuid;index"`
	Number         string                 `gorm:"type:varchar(30);not null"`
	Action         document.HistoryAction `gorm:"type:varchar(20);not null"`
	UserID         *uuid.UUID             `gorm:"type:uuid"`
	Description    string                 `gorm:"type:text"`
	CreatedAt      time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DeliveryNoteHistoryModel) TableName() string {
	return "delivery_note_history"
}

// ToDomain converts the persistence model to a domain DeliveryNoteHistory.
func (m *DeliveryNoteHistoryModel) ToDomain() *document.DeliveryNoteHistory {
	return &document.DeliveryNoteHistory{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		DeliveryNoteID: m.DeliveryNoteID,
		Number:         m.Number,
		Action:         m.Action,
		UserID:         m.UserID,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain DeliveryNoteHistory.
func (m *DeliveryNoteHistoryModel) FromDomain(h *document.DeliveryNoteHistory) {
	m.ID = h.ID
	m.ProjectID = h.ProjectID
	m.DeliveryNoteID = h.DeliveryNoteID
	m.Number = h.Number
	m.Action = h.Action
	m.UserID = h.UserID
	m.Description = h.Description
	m.CreatedAt = h.CreatedAt
}

// PurchaseOrderModel is the persistence model for a purchase order.
type PurchaseOrderModel struct {
	AuditedAggregateModel
	Number       string                   `gorm:"type:varchar(30);not null;uniqueIndex:idx_purchase_orders_number"`
	OrderDate    time.Time                `gorm:"not null;index"`
	SupplierName string                   `gorm:"type:varchar(200)"`
	Description  string                   `gorm:"type:text"`
	ProjectID    *uuid.UUID               `gorm:"type:uuid;index"`
	TotalHT      decimal.Decimal          `gorm:"column:total_ht;type:decimal(15,2);not null;default:0"`
	Lines        []PurchaseOrderLineModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *document.PurchaseOrder {
	o := &document.PurchaseOrder{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Number:               m.Number,
		OrderDate:            m.OrderDate,
		SupplierName:         m.SupplierName,
		Description:          m.Description,
		ProjectID:            m.ProjectID,
		Lines:                make([]document.OrderLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		o.Lines[i] = document.OrderLine{
			ID:          l.ID,
			Designation: l.Designation,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
		}
	}
	return o
}

// FromDomain populates the persistence model and its lines from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(o *document.PurchaseOrder) {
	m.FromDomainAuditedAggregateRoot(o.AuditedAggregateRoot)
	m.Number = o.Number
	m.OrderDate = o.OrderDate
	m.SupplierName = o.SupplierName
	m.Description = o.Description
	m.ProjectID = o.ProjectID
	m.TotalHT = o.TotalHT().Amount()
	m.Lines = make([]PurchaseOrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i] = PurchaseOrderLineModel{
			ID:              l.ID,
			PurchaseOrderID: o.ID,
			Position:        i,
			Designation:     l.Designation,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice.Amount(),
		}
	}
}

// PurchaseOrderLineModel is one ordered line.
type PurchaseOrderLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"not null;default:0"`
	Designation     string          `gorm:"type:varchar(500);not null"`
	Quantity        int64           `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// MissionOrderModel is the persistence model for a mission order.
type MissionOrderModel struct {
	AuditedAggregateModel
	Number         string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_mission_orders_number"`
	FullName       string     `gorm:"type:varchar(200);not null"`
	Function       string     `gorm:"type:varchar(200)"`
	Address        string     `gorm:"type:text"`
	Destination    string     `gorm:"type:varchar(200);not null"`
	Purpose        string     `gorm:"type:text"`
	TransportMeans string     `gorm:"type:varchar(100)"`
	Registration   string     `gorm:"type:varchar(50)"`
	Registration2  string     `gorm:"column:registration2;type:varchar(50)"`
	DepartureDate  time.Time  `gorm:"not null;index"`
	ReturnDate     *time.Time `gorm:"index"`
	AccompaniedBy  string     `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (MissionOrderModel) TableName() string {
	return "mission_orders"
}

// ToDomain converts the persistence model to a domain MissionOrder.
func (m *MissionOrderModel) ToDomain() *document.MissionOrder {
	return &document.MissionOrder{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Number:               m.Number,
		FullName:             m.FullName,
		Function:             m.Function,
		Address:              m.Address,
		Destination:          m.Destination,
		Purpose:              m.Purpose,
		TransportMeans:       m.TransportMeans,
		Registration:         m.Registration,
		Registration2:        m.Registration2,
		DepartureDate:        m.DepartureDate,
		ReturnDate:           m.ReturnDate,
		AccompaniedBy:        m.AccompaniedBy,
	}
}

// FromDomain populates the persistence model from a domain MissionOrder.
func (m *MissionOrderModel) FromDomain(o *document.MissionOrder) {
	m.FromDomainAuditedAggregateRoot(o.AuditedAggregateRoot)
	m.Number = o.Number
	m.FullName = o.FullName
	m.Function = o.Function
	m.Address = o.Address
	m.Destination = o.Destination
	m.Purpose = o.Purpose
	m.TransportMeans = o.TransportMeans
	m.Registration = o.Registration
	m.Registration2 = o.Registration2
	m.DepartureDate = o.DepartureDate
	m.ReturnDate = o.ReturnDate
	m.AccompaniedBy = o.AccompaniedBy
}
