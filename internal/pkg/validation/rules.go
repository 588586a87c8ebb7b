package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	// EmailPattern is applied to lower-cased addresses
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// CourseIDPattern matches catalog codes such as BSC-CS
	CourseIDPattern = `^[A-Za-z0-9][A-Za-z0-9\-_]{0,63}$`

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 100

	// PaymentReferenceMaxLength matches the offers.payment_reference column
	PaymentReferenceMaxLength = 255
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email    *regexp.Regexp
	CourseID *regexp.Regexp
}{
	Email:    regexp.MustCompile(EmailPattern),
	CourseID: regexp.MustCompile(CourseIDPattern),
}

// StringValidation checks one named string field
type StringValidation struct {
	Field    string
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new required string validation
func NewStringValidation(field, value string) *StringValidation {
	return &StringValidation{
		Field:    field,
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length in runes
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length in runes
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate returns a validation error naming the field, or nil
func (v *StringValidation) Validate() error {
	if v.Value == "" {
		if v.Required {
			return apperrors.NewValidationError("%s is required", v.Field)
		}
		return nil
	}

	n := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && n < v.MinLen {
		return apperrors.NewValidationError("%s must be at least %d characters", v.Field, v.MinLen)
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return apperrors.NewValidationError("%s must be at most %d characters", v.Field, v.MaxLen)
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return apperrors.NewValidationError("%s has an invalid format", v.Field)
	}

	return nil
}

// All returns the first failing validation
func All(validations ...*StringValidation) error {
	for _, v := range validations {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
