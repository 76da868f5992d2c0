package valueobject

import (
	"fmt"
	"strings"
)

// PaymentMode is how cash physically moved
type PaymentMode string

const (
	PaymentModeTransfer PaymentMode = "transfer"
	PaymentModeCash     PaymentMode = "cash"
	PaymentModeCheque   PaymentMode = "cheque"
)

// IsValid reports whether the mode is one of the known values. Empty is allowed.
func (m PaymentMode) IsValid() bool {
	switch m {
	case "", PaymentModeTransfer, PaymentModeCash, PaymentModeCheque:
		return true
	}
	return false
}

// PaymentDetails carries the optional mode-specific attributes of a cash movement.
type PaymentDetails struct {
	Mode         PaymentMode
	SupplierName string
	Bank         string
	ChequeNumber string
}

// NewPaymentDetails validates the mode and drops attributes that do not apply to it:
// bank only for transfer and cheque, cheque number only for cheque.
func NewPaymentDetails(mode PaymentMode, supplier, bank, chequeNumber string) (PaymentDetails, error) {
	mode = PaymentMode(strings.ToLower(strings.TrimSpace(string(mode))))
	if !mode.IsValid() {
		return PaymentDetails{}, fmt.Errorf("unknown payment mode %q", mode)
	}
	d := PaymentDetails{Mode: mode, SupplierName: strings.TrimSpace(supplier)}
	switch mode {
	case PaymentModeTransfer:
		d.Bank = strings.TrimSpace(bank)
	case PaymentModeCheque:
		d.Bank = strings.TrimSpace(bank)
		d.ChequeNumber = strings.TrimSpace(chequeNumber)
	}
	return d, nil
}

// Label returns the French label used on printed documents
func (m PaymentMode) Label() string {
	switch m {
	case PaymentModeTransfer:
		return "Virement"
	case PaymentModeCash:
		return "Espèces"
	case PaymentModeCheque:
		return "Chèque"
	}
	return "-"
}
