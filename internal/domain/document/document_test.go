package document

import (
	"errors"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mp(s string) *valueobject.Money {
	v := valueobject.MustMoney(s)
	return &v
}

func TestNumberFormats(t *testing.T) {
	assert.Equal(t, "BL-2024-007-012", DeliveryNoteNumber(2024, 7, 12))
	assert.Equal(t, "BL-2024-1234-1000", DeliveryNoteNumber(2024, 1234, 1000))
	assert.Equal(t, "BC-2024-0001", PurchaseOrderNumber(2024, 1))
	assert.Equal(t, "OM-2025-010", MissionOrderNumber(2025, 10))
	assert.Equal(t, "delivery_note:2024:7", DeliveryNoteScope(2024, 7))
}

func TestNewLineItem_DerivesMissingPrice(t *testing.T) {
	item, err := NewLineItem("Ciment", 4, mp("12.50"), nil)
	require.NoError(t, err)
	assert.Equal(t, "50.00", item.Total.String())

	item, err = NewLineItem("Sable", 3, nil, mp("100"))
	require.NoError(t, err)
	assert.Equal(t, "33.33", item.UnitPrice.String())
	assert.Equal(t, "100.00", item.Total.String())

	item, err = NewLineItem("Gravier", 2, nil, nil)
	require.NoError(t, err)
	assert.True(t, item.Total.IsZero())

	_, err = NewLineItem("X", 0, mp("1"), nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	_, err = NewLineItem("", 1, mp("1"), nil)
	assert.Error(t, err)
}

func TestDeliveryNote_TotalIsDerived(t *testing.T) {
	i1, _ := NewLineItem("Ciment", 4, mp("12.50"), nil)
	i2, _ := NewLineItem("Sable", 1, nil, mp("20"))
	c1, _ := NewCharge("Transport", valueobject.MustMoney("15"))

	n, err := NewDeliveryNote(uuid.New(), DeliveryNoteContent{
		OriginAddress:      "Alger",
		DestinationAddress: "Oran",
		PaymentMethod:      PaymentPostCCP,
		Items:              []LineItem{i1, i2},
		Charges:            []Charge{c1},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "85.00", n.Total().String())

	require.NoError(t, n.AssignNumber(3, 1))
	assert.Equal(t, DeliveryNoteNumber(n.Year(), 3, 1), n.Number)
	assert.Error(t, n.AssignNumber(3, 2))

	require.NoError(t, n.Replace(DeliveryNoteContent{
		OriginAddress:      "Alger",
		DestinationAddress: "Blida",
		PaymentMethod:      PaymentBankCheque,
		Items:              []LineItem{i1},
	}))
	assert.Equal(t, "50.00", n.Total().String())
	assert.Equal(t, DeliveryNoteNumber(n.Year(), 3, 1), n.Number)

	h := NewDeliveryNoteHistory(n, HistoryDeleted, nil, "")
	require.NotNil(t, h.DeliveryNoteID)
	assert.Equal(t, n.ID, *h.DeliveryNoteID)
	assert.Equal(t, n.Number, h.Number)
}

func TestNewDeliveryNote_Validation(t *testing.T) {
	item, _ := NewLineItem("Ciment", 1, mp("1"), nil)
	_, err := NewDeliveryNote(uuid.New(), DeliveryNoteContent{OriginAddress: "A", DestinationAddress: "B", PaymentMethod: "cash", Items: []LineItem{item}}, nil)
	assert.Error(t, err)
	_, err = NewDeliveryNote(uuid.New(), DeliveryNoteContent{OriginAddress: "A", DestinationAddress: "B", PaymentMethod: PaymentPostBaridi}, nil)
	assert.Error(t, err)
	_, err = NewDeliveryNote(uuid.Nil, DeliveryNoteContent{}, nil)
	assert.Error(t, err)
	_, err = NewCharge("Transport", valueobject.Zero())
	assert.Error(t, err)
}

func TestPurchaseOrder(t *testing.T) {
	l1, _ := NewOrderLine("Acier", 10, valueobject.MustMoney("7.25"))
	l2, _ := NewOrderLine("Bois", 2, valueobject.MustMoney("100"))
	po, err := NewPurchaseOrder(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), "ACME", "", nil, []OrderLine{l1, l2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "272.50", po.TotalHT().String())

	require.NoError(t, po.AssignNumber(12))
	assert.Equal(t, "BC-2024-0012", po.Number)

	_, err = NewPurchaseOrder(time.Time{}, "", "x", nil, nil, nil)
	assert.Error(t, err)
}

func TestMissionOrder(t *testing.T) {
	dep := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	back := dep.AddDate(0, 0, -1)
	_, err := NewMissionOrder(MissionDetails{FullName: "A B", Destination: "Oran", DepartureDate: dep, ReturnDate: &back}, nil)
	assert.Error(t, err)

	mo, err := NewMissionOrder(MissionDetails{FullName: "A B", Destination: "Oran", DepartureDate: dep}, nil)
	require.NoError(t, err)
	require.NoError(t, mo.AssignNumber(1))
	assert.Equal(t, "OM-2025-001", mo.Number)
}
