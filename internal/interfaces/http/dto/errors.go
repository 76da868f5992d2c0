package dto

import (
	"net/http"

	"github.com/ech/backend/internal/domain/shared"
)

// Transport error codes. Domain codes come from the shared package and keep
// their names on the wire.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "INVALID_TOKEN"
	ErrCodeTokenRevoked     = "TOKEN_REVOKED"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeIdempotencyBusy  = "IDEMPOTENCY_KEY_BUSY"
	ErrCodeReportFailed     = "REPORT_FAILED"
	ErrCodeReportsDisabled  = "REPORTS_DISABLED"
	ErrCodeNotFoundRoute    = "ROUTE_NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Business rule violations the client can correct
	shared.CodeValidation:         http.StatusBadRequest,
	shared.CodeInsufficientFunds:  http.StatusBadRequest,
	shared.CodeExcessPayment:      http.StatusBadRequest,
	shared.CodeDebtAlreadySettled: http.StatusBadRequest,
	shared.CodeInsufficientBudget: http.StatusBadRequest,
	shared.CodeInvalidState:       http.StatusBadRequest,

	shared.CodeNotFound:         http.StatusNotFound,
	shared.CodeConflict:         http.StatusConflict,
	shared.CodeDuplicateCode:    http.StatusConflict,
	shared.CodeInUse:            http.StatusConflict,
	shared.CodePermissionDenied: http.StatusForbidden,
	shared.CodeUnauthorized:     http.StatusUnauthorized,

	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeTokenRevoked:     http.StatusUnauthorized,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeIdempotencyBusy:  http.StatusConflict,
	ErrCodeReportFailed:     http.StatusBadGateway,
	ErrCodeReportsDisabled:  http.StatusServiceUnavailable,
	ErrCodeNotFoundRoute:    http.StatusNotFound,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
