package document

import (
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OrderLine is one line of a purchase order
type OrderLine struct {
	ID          uuid.UUID
	Designation string
	Quantity    int64
	UnitPrice   valueobject.Money
}

// Total returns quantity x unit price
func (l OrderLine) Total() valueobject.Money {
	return l.UnitPrice.MulInt(l.Quantity)
}

// NewOrderLine validates a purchase order line
func NewOrderLine(designation string, quantity int64, unitPrice valueobject.Money) (OrderLine, error) {
	designation = strings.TrimSpace(designation)
	if designation == "" {
		return OrderLine{}, shared.NewValidationError("Line designation is required")
	}
	if quantity < 1 {
		return OrderLine{}, shared.NewValidationError("Line quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return OrderLine{}, shared.NewValidationError("Unit price cannot be negative")
	}
	return OrderLine{ID: uuid.New(), Designation: designation, Quantity: quantity, UnitPrice: unitPrice}, nil
}

// PurchaseOrder (bon de commande)
type PurchaseOrder struct {
	shared.AuditedAggregateRoot
	Number       string
	OrderDate    time.Time
	SupplierName string
	Description  string
	ProjectID    *uuid.UUID
	Lines        []OrderLine
}

// NewPurchaseOrder creates an unnumbered purchase order
func NewPurchaseOrder(orderDate time.Time, supplier, description string, projectID *uuid.UUID, lines []OrderLine, createdBy *uuid.UUID) (*PurchaseOrder, error) {
	if orderDate.IsZero() {
		return nil, shared.NewValidationError("Order date is required")
	}
	if strings.TrimSpace(description) == "" && len(lines) == 0 {
		return nil, shared.NewValidationError("A description or at least one line is required")
	}
	return &PurchaseOrder{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		OrderDate:            orderDate,
		SupplierName:         strings.TrimSpace(supplier),
		Description:          description,
		ProjectID:            projectID,
		Lines:                lines,
	}, nil
}

// Year returns the numbering year of the order
func (o *PurchaseOrder) Year() int {
	return yearOf(o.OrderDate)
}

// AssignNumber sets the document number once
func (o *PurchaseOrder) AssignNumber(seq int64) error {
	if o.Number != "" {
		return shared.NewDomainError(shared.CodeInvalidState, "Purchase order is already numbered")
	}
	o.Number = PurchaseOrderNumber(o.Year(), seq)
	return nil
}

// TotalHT is the derived pre-tax total
func (o *PurchaseOrder) TotalHT() valueobject.Money {
	total := valueobject.Zero()
	for _, l := range o.Lines {
		total = total.Add(l.Total())
	}
	return total
}
