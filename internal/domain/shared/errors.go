package shared

import "errors"

// Error codes shared by every bounded context. The HTTP layer maps them to
// status codes; the message text is informational only.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeExcessPayment      = "EXCESS_PAYMENT"
	CodeDebtAlreadySettled = "DEBT_ALREADY_SETTLED"
	CodeInsufficientBudget = "INSUFFICIENT_BUDGET"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeDuplicateCode      = "DUPLICATE_CODE"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeInvalidState       = "INVALID_STATE"
	CodeInUse              = "PROJECT_IN_USE"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a user-correctable validation error
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError creates a not-found error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// Common domain errors
var (
	ErrValidation         = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInsufficientFunds  = NewDomainError(CodeInsufficientFunds, "Insufficient cash balance")
	ErrExcessPayment      = NewDomainError(CodeExcessPayment, "Payment exceeds the remaining debt amount")
	ErrDebtAlreadySettled = NewDomainError(CodeDebtAlreadySettled, "Debt is already fully paid")
	ErrInsufficientBudget = NewDomainError(CodeInsufficientBudget, "Insufficient project budget")
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict           = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrDuplicateCode      = NewDomainError(CodeDuplicateCode, "Code already exists")
	ErrPermissionDenied   = NewDomainError(CodePermissionDenied, "Missing required group permission")
	ErrInvalidState       = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInUse              = NewDomainError(CodeInUse, "Resource is still referenced")
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "Invalid credentials")
)

// IsConflict reports whether err should trigger a retry of the whole unit of work.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
