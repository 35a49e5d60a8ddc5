package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/apierror"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/dto"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// gt=0 and required work without panicking ("Bad field type decimal.Decimal").
	// Rules see the value rounded to cents, which is what gets stored.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Round(2).Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Optional fields validate their inner value; omitted or null skips omitempty rules.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(dto.Optional[string]); ok && v.Value != nil {
			return *v.Value
		}
		return nil
	}, dto.Optional[string]{})

	// Report JSON / query names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return fields
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false after writing the error response; the caller must return.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{typeErr.Field: "type"}))
			return false
		}
		c.JSON(http.StatusBadRequest, apierror.New(apierror.MsgInvalidJSON+": "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(validationFields(err)))
		return false
	}
	return true
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"query": err.Error()}))
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(validationFields(err)))
		return false
	}
	return true
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, &apierror.ValidationError{
			Detail: apierror.MsgInvalidID,
			Fields: map[string]string{"id": "int"},
		})
		return 0, false
	}
	return id, true
}

// writeServiceError maps service sentinels to HTTP responses. Unknown errors
// are attached to the context for middleware.ErrorHandler to log and answer 500.
func writeServiceError(c *gin.Context, err error, conflictMsg string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, apierror.New(apierror.MsgProductNotFound))
	case errors.Is(err, service.ErrProductConflict):
		c.JSON(http.StatusBadRequest, apierror.New(conflictMsg))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, &apierror.ValidationError{
			Detail: apierror.MsgReactivationDenied,
			Fields: map[string]string{"is_active": "terminal"},
		})
	default:
		_ = c.Error(err)
	}
}
