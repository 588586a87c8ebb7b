package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/admissions/internal/app/models/dto"
)

// BindJSON binds the request body into obj. On failure it writes a 400 response
// naming the offending fields and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(bindingErrorDetail(err)))
		return false
	}
	return true
}

func bindingErrorDetail(err error) *dto.ErrorDetail {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		messages := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			messages = append(messages, formatValidationError(fe))
		}
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request body").
			WithField(jsonFieldName(fieldErrors[0])).
			WithDetails(messages)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Malformed JSON body")
	case errors.As(err, &typeErr):
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request body").
			WithField(typeErr.Field).
			WithDetails(typeErr.Field + " has the wrong type")
	}
	return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request body").WithDetails(err.Error())
}

// jsonFieldName lower-cases the first letter of the struct field, matching the JSON tags
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	field := jsonFieldName(e)
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "gt":
		return field + " must be greater than " + e.Param()
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of: " + e.Param()
	default:
		return field + " validation failed: " + e.Tag()
	}
}
