package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInsufficientFunds, http.StatusBadRequest},
		{shared.CodeExcessPayment, http.StatusBadRequest},
		{shared.CodeDebtAlreadySettled, http.StatusBadRequest},
		{shared.CodeInsufficientBudget, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeDuplicateCode, http.StatusConflict},
		{shared.CodeInUse, http.StatusConflict},
		{shared.CodePermissionDenied, http.StatusForbidden},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeIdempotencyBusy, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		pageSize   int
		totalPages int
	}{
		{"exact pages", 100, 50, 2},
		{"partial last page", 101, 50, 3},
		{"empty", 0, 50, 0},
		{"zero page size", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.totalPages, resp.Meta.TotalPages)
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	page := &shared.Paginated[string]{Total: 3, Page: 2, PageSize: 2, TotalPages: 2}

	resp := NewPageResponse(page)
	assert.Equal(t, []string{}, resp.Data, "nil items serialise as an empty list")
	assert.Equal(t, &Meta{Total: 3, Page: 2, PageSize: 2, TotalPages: 2}, resp.Meta)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "amount", Message: "This field is required"},
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, shared.CodeValidation, errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
	assert.Len(t, errObj["details"], 1)

	plain, err := json.Marshal(NewErrorResponse(shared.CodeNotFound, "Debt not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"Debt not found"}}`, string(plain))
}
