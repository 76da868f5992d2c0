package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// cash request tags registered on gin's validator
var cashValidations = map[string]validator.Func{
	"payment_mode": func(fl validator.FieldLevel) bool {
		return valueobject.PaymentMode(strings.ToLower(fl.Field().String())).IsValid()
	},
	"income_source": func(fl validator.FieldLevel) bool {
		return ledger.IncomeSource(fl.Field().String()).IsValid()
	},
}

// SetupValidator configures gin's validator once: errors name fields by
// their JSON key, Money validates as a number, and the payment_mode and
// income_source tags are known.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if m, ok := field.Interface().(valueobject.Money); ok {
				return m.Amount().InexactFloat64()
			}
			return nil
		}, valueobject.Money{})
		for tag, fn := range cashValidations {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("register %s validation: %v", tag, err))
			}
		}
	})
}

// fieldName is the json key of a field, its form key for query structs
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return ""
}

// HandleValidationError answers 400 listing every rejected field. Malformed
// bodies get the same error without details.
func HandleValidationError(c *gin.Context, err error) {
	var details []dto.ValidationDetail
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", GetRequestID(c), details))
}

var tagMessages = map[string]string{
	"required":      "This field is required",
	"email":         "Invalid email format",
	"uuid":          "Invalid UUID format",
	"oneof":         "Must be one of: %s",
	"gte":           "Must be greater than or equal to %s",
	"gt":            "Must be greater than %s",
	"payment_mode":  "Must be one of: transfer cash cheque",
	"income_source": "Must be one of: personal collaborator debt other",
	"dive":          "Invalid list item",
}

func fieldMessage(fe validator.FieldError) string {
	switch tag := fe.Tag(); tag {
	case "min", "max":
		bound := map[string]string{"min": "least", "max": "most"}[tag]
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at %s %s characters", bound, fe.Param())
		}
		return fmt.Sprintf("Must be at %s %s", bound, fe.Param())
	default:
		msg, ok := tagMessages[tag]
		if !ok {
			return "Invalid value"
		}
		if strings.Contains(msg, "%s") {
			return fmt.Sprintf(msg, fe.Param())
		}
		return msg
	}
}
