package document

import (
	"fmt"
	"time"
)

// DeliveryNoteScope is the per-project per-year delivery note sequence.
// Each scope is an independent gap-free counter.
func DeliveryNoteScope(year int, projectNumber int64) string {
	return fmt.Sprintf("delivery_note:%d:%d", year, projectNumber)
}

// PurchaseOrderScope is the per-year purchase order sequence
func PurchaseOrderScope(year int) string {
	return fmt.Sprintf("purchase_order:%d", year)
}

// MissionOrderScope is the per-year mission order sequence
func MissionOrderScope(year int) string {
	return fmt.Sprintf("mission_order:%d", year)
}

// DeliveryNoteNumber renders BL-YYYY-PPP-SSS
func DeliveryNoteNumber(year int, projectNumber, seq int64) string {
	return fmt.Sprintf("BL-%d-%03d-%03d", year, projectNumber, seq)
}

// PurchaseOrderNumber renders BC-YYYY-NNNN
func PurchaseOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("BC-%d-%04d", year, seq)
}

// MissionOrderNumber renders OM-YYYY-NNN
func MissionOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("OM-%d-%03d", year, seq)
}

// yearOf returns the numbering year of t, falling back to the current year
func yearOf(t time.Time) int {
	if t.IsZero() {
		return time.Now().Year()
	}
	return t.Year()
}
