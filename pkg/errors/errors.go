// Package errors provides the structured error system for BladeShare with
// error codes, categories, and context. Every error surfaced to the
// orchestrator carries a code from the driver taxonomy so callers can make
// retry decisions without parsing messages.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for driver operations.
type ErrorCode string

// Error code constants organized by category.
const (
	// Configuration errors
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig    ErrorCode = "MISSING_CONFIG"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Lifecycle errors (the orchestrator-facing taxonomy)
	ErrCodeResourceConflict  ErrorCode = "RESOURCE_CONFLICT"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeCapacityError     ErrorCode = "CAPACITY_ERROR"
	ErrCodeBusy              ErrorCode = "BUSY"
	ErrCodeUnsupported       ErrorCode = "UNSUPPORTED"
	ErrCodeInvalidState      ErrorCode = "INVALID_STATE"
	ErrCodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"

	// Transport errors (array unreachable or talking nonsense)
	ErrCodeTransportError ErrorCode = "TRANSPORT_ERROR"

	// Authentication errors against the array management API
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeSessionExpired       ErrorCode = "SESSION_EXPIRED"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryLifecycle     ErrorCategory = "lifecycle"
	CategoryTransport     ErrorCategory = "transport"
	CategoryAuth          ErrorCategory = "auth"
	CategoryInternal      ErrorCategory = "internal"
)

// DriverError represents a structured error with context and metadata.
type DriverError struct {
	Code     ErrorCode      `json:"code"`
	Category ErrorCategory  `json:"category"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`

	Cause     error     `json:"-"` // Not serialized to avoid circular refs
	Timestamp time.Time `json:"timestamp"`

	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`

	// Retryable tells the caller whether re-invoking the same operation
	// can succeed. The driver never retries internally.
	Retryable  bool `json:"retryable"`
	HTTPStatus int  `json:"http_status,omitempty"`
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *DriverError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *DriverError) Is(target error) bool {
	if driverErr, ok := target.(*DriverError); ok {
		return e.Code == driverErr.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *DriverError) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if e.Retryable {
		parts = append(parts, "Retryable=true")
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("DriverError{%s}", strings.Join(parts, ", "))
}

// NewError creates a new driver error with default values for the code.
func NewError(code ErrorCode, message string) *DriverError {
	return &DriverError{
		Code:       code,
		Category:   GetCategory(code),
		Message:    message,
		Timestamp:  time.Now(),
		Retryable:  IsRetryableByDefault(code),
		HTTPStatus: GetDefaultHTTPStatus(code),
	}
}

// Newf creates a new driver error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *DriverError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeInvalidConfig, ErrCodeMissingConfig, ErrCodeConfigValidation:
		return CategoryConfiguration
	case ErrCodeResourceConflict, ErrCodeNotFound, ErrCodeCapacityError,
		ErrCodeBusy, ErrCodeUnsupported, ErrCodeInvalidState,
		ErrCodeInvalidIdentifier:
		return CategoryLifecycle
	case ErrCodeTransportError:
		return CategoryTransport
	case ErrCodeAuthenticationFailed, ErrCodeSessionExpired:
		return CategoryAuth
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
// Only conditions that clear on their own qualify: an array-side operation
// in progress, transport failures, and an expired session.
func IsRetryableByDefault(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		ErrCodeBusy:           true,
		ErrCodeTransportError: true,
		ErrCodeSessionExpired: true,
	}
	return retryableCodes[code]
}

// GetDefaultHTTPStatus returns the default HTTP status for an error code,
// used by the service surface when serializing errors.
func GetDefaultHTTPStatus(code ErrorCode) int {
	statusMap := map[ErrorCode]int{
		ErrCodeInvalidConfig:        400,
		ErrCodeMissingConfig:        400,
		ErrCodeConfigValidation:     400,
		ErrCodeInvalidIdentifier:    400,
		ErrCodeCapacityError:        400,
		ErrCodeAuthenticationFailed: 401,
		ErrCodeSessionExpired:       401,
		ErrCodeNotFound:             404,
		ErrCodeResourceConflict:     409,
		ErrCodeBusy:                 409,
		ErrCodeInvalidState:         409,
		ErrCodeUnsupported:          422,
		ErrCodeInternalError:        500,
		ErrCodeTransportError:       502,
	}

	if status, ok := statusMap[code]; ok {
		return status
	}
	return 500
}

// WithDetail adds detailed information to an error.
func (e *DriverError) WithDetail(key string, value any) *DriverError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithComponent sets the component for an error.
func (e *DriverError) WithComponent(component string) *DriverError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error.
func (e *DriverError) WithOperation(operation string) *DriverError {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause.
func (e *DriverError) WithCause(cause error) *DriverError {
	e.Cause = cause
	return e
}

// WithRetryable overrides the default retryability of an error.
func (e *DriverError) WithRetryable(retryable bool) *DriverError {
	e.Retryable = retryable
	return e
}

// CodeOf extracts the error code from any error. Non-driver errors map to
// INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var driverErr *DriverError
	if stderrors.As(err, &driverErr) {
		return driverErr.Code
	}
	return ErrCodeInternalError
}

// IsCode reports whether err carries the given driver error code.
func IsCode(err error, code ErrorCode) bool {
	var driverErr *DriverError
	if stderrors.As(err, &driverErr) {
		return driverErr.Code == code
	}
	return false
}

// IsRetryable reports whether the caller may safely re-invoke the failed
// operation. Unknown errors are not retryable.
func IsRetryable(err error) bool {
	var driverErr *DriverError
	if stderrors.As(err, &driverErr) {
		return driverErr.Retryable
	}
	return false
}

// HTTPStatusOf returns the HTTP status an error should serialize with.
func HTTPStatusOf(err error) int {
	var driverErr *DriverError
	if stderrors.As(err, &driverErr) {
		if driverErr.HTTPStatus != 0 {
			return driverErr.HTTPStatus
		}
		return GetDefaultHTTPStatus(driverErr.Code)
	}
	return 500
}
