package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type creditBody struct {
	Amount       valueobject.Money `json:"amount" binding:"required,gt=0"`
	PaymentMode  string            `json:"payment_mode" binding:"omitempty,payment_mode"`
	IncomeSource string            `json:"income_source" binding:"required,income_source"`
	Label        string            `json:"label" binding:"omitempty,min=3"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req creditBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount})
	})
	return router
}

func postJSON(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator_IsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		SetupValidator()
		SetupValidator()
	})
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports each invalid field by its JSON name", func(t *testing.T) {
		w := postJSON(router, `{"amount": "-5", "payment_mode": "bitcoin", "income_source": "lottery"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be greater than 0", fields["amount"])
		assert.Equal(t, "Must be one of: transfer cash cheque", fields["payment_mode"])
		assert.Contains(t, fields, "income_source")
	})

	t.Run("zero money is missing", func(t *testing.T) {
		w := postJSON(router, `{"amount": 0, "income_source": "personal"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "This field is required")
	})

	t.Run("length bounds", func(t *testing.T) {
		w := postJSON(router, `{"amount": "10", "income_source": "personal", "label": "ab"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must be at least 3 characters")
	})

	t.Run("valid input", func(t *testing.T) {
		w := postJSON(router, `{"amount": "1500.50", "payment_mode": "Cash", "income_source": "personal"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"amount":"1500.50"}`, w.Body.String())
	})
}

func TestFieldName(t *testing.T) {
	type query struct {
		Plain  string `json:"plain,omitempty"`
		Query  string `form:"order_by"`
		Hidden string `json:"-"`
		Bare   string
	}
	typ := reflect.TypeOf(query{})
	for i, want := range []string{"plain", "order_by", "", ""} {
		assert.Equal(t, want, fieldName(typ.Field(i)), typ.Field(i).Name)
	}
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"amount": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
