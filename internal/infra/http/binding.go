package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal как число, чтобы работали gt/gte
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			return v.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	// дата как строка, чтобы работал required
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(values.Date); ok {
			return v.String()
		}
		return nil
	}, values.Date{})
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
}

type errorResponse struct {
	Error     string            `json:"error"`
	Field     string            `json:"field,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// bindAndValidate разбирает JSON и проверяет теги validate. false — ответ уже записан.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			writeError(c, ve)
			return false
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error(), RequestID: c.GetString(RequestIDKey)})
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: c.GetString(RequestIDKey)})
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields, RequestID: c.GetString(RequestIDKey)})
		return false
	}
	return true
}

// writeError ValidationError → 400, NotFoundError → 404, остальное → 500.
func writeError(c *gin.Context, err error) {
	rid := c.GetString(RequestIDKey)

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field, RequestID: rid})
		return
	}
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, errorResponse{Error: nf.Error(), RequestID: rid})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage unavailable", RequestID: rid})
}
