package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the admissions core wraps exactly one of these.
var (
	// ErrValidation marks malformed input rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// Business rule violations
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOfferExpired      = errors.New("offer expired")

	// Resource errors
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("concurrent modification")

	// ErrForbidden marks an actor whose role may not perform the operation
	ErrForbidden = errors.New("permission denied")

	// ErrExternalService is the family of retryable collaborator failures.
	ErrExternalService    = errors.New("external service error")
	ErrDocumentGeneration = fmt.Errorf("%w: document generation failed", ErrExternalService)
	ErrNotification       = fmt.Errorf("%w: notification delivery failed", ErrExternalService)

	// ErrConfiguration is fatal at startup or first use, never defaulted.
	ErrConfiguration = errors.New("configuration error")
)

// Error codes returned to API clients
const (
	CodeValidation        = "VAL_001"
	CodeInvalidTransition = "ADM_001"
	CodeOfferExpired      = "ADM_002"
	CodeNotFound          = "RES_001"
	CodeConflict          = "RES_004"
	CodeForbidden         = "AUTH_003"
	CodeDocumentFailed    = "EXT_001"
	CodeNotificationFail  = "EXT_002"
	CodeConfiguration     = "SRV_004"
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// NewValidationError creates a validation error with a message
func NewValidationError(format string, args ...interface{}) error {
	return NewCustomError(ErrValidation, fmt.Sprintf(format, args...)).WithCode(CodeValidation)
}

// NewNotFoundError creates a not found error with a message
func NewNotFoundError(format string, args ...interface{}) error {
	return NewCustomError(ErrNotFound, fmt.Sprintf(format, args...)).WithCode(CodeNotFound)
}

// NewConflictError creates a conflict error for stale expected-status preconditions
func NewConflictError(applicationID, expected, actual string) error {
	return NewCustomError(ErrConflict, fmt.Sprintf("application %s is %s, caller expected %s", applicationID, actual, expected)).
		WithCode(CodeConflict).
		WithDetails(map[string]interface{}{
			"applicationId":  applicationID,
			"expectedStatus": expected,
			"actualStatus":   actual,
		})
}

// NewForbiddenError creates a permission error with a message
func NewForbiddenError(format string, args ...interface{}) error {
	return NewCustomError(ErrForbidden, fmt.Sprintf(format, args...)).WithCode(CodeForbidden)
}

// NewInvalidTransitionError creates a business-rule error for a forbidden status change
func NewInvalidTransitionError(from, to string) error {
	return NewCustomError(ErrInvalidTransition, fmt.Sprintf("cannot move from %s to %s", from, to)).
		WithCode(CodeInvalidTransition).
		WithDetails(map[string]interface{}{
			"fromStatus": from,
			"toStatus":   to,
		})
}

// NewDocumentGenerationError wraps a generator failure
func NewDocumentGenerationError(applicationID, letterType string, cause error) error {
	return &CustomError{
		Err:     fmt.Errorf("%w: %v", ErrDocumentGeneration, cause),
		Message: fmt.Sprintf("%s letter for application %s", letterType, applicationID),
		Code:    CodeDocumentFailed,
	}
}

// NewNotificationError wraps a delivery failure
func NewNotificationError(recipient string, cause error) error {
	return &CustomError{
		Err:     fmt.Errorf("%w: %v", ErrNotification, cause),
		Message: "recipient " + recipient,
		Code:    CodeNotificationFail,
	}
}

// NewConfigurationError creates a fatal configuration error
func NewConfigurationError(format string, args ...interface{}) error {
	return NewCustomError(ErrConfiguration, fmt.Sprintf(format, args...)).WithCode(CodeConfiguration)
}

// IsRetryable reports whether a caller-driven retry may change the outcome.
// Only collaborator failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrExternalService)
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}
