package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to API clients.
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeValidation             = "VALIDATION_ERROR"
	CodeConflict               = "CONFLICT"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeNotFound               = "NOT_FOUND"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
	CodeInternal               = "INTERNAL_ERROR"
	CodeRateLimited            = "RATE_LIMITED"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields maps payload field names to a human readable problem.
	Fields  map[string]string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a structured detail entry and returns the same error.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError reports a single offending payload field.
func NewFieldValidationError(field, message string) *AppError {
	return NewFieldsValidationError(map[string]string{field: message})
}

func NewFieldsValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

func NewAuthenticationRequiredError(message string) *AppError {
	if message == "" {
		message = "Authentication credentials were not provided"
	}
	return &AppError{
		Code:    CodeAuthenticationRequired,
		Message: message,
	}
}

func NewPermissionDeniedError(message string) *AppError {
	return &AppError{
		Code:    CodePermissionDenied,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewInvalidTransitionError(resource, from, action string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot %s %s in status %s", action, resource, from),
		Details: map[string]any{"current_status": from, "action": action},
	}
}

func NewStoreUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: "Storage temporarily unavailable, retry later",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error code onto its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeAuthenticationRequired:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict, CodeInvalidTransition:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError writes the standardized error envelope. Errors that are
// not AppErrors collapse to INTERNAL_ERROR and their text is never sent.
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(err)
	}

	response := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Fields:  appErr.Fields,
		Details: appErr.Details,
	}
	if appErr.Code == CodeInternal {
		response.Error = "Internal server error"
		response.Details = nil
	}

	return c.Status(StatusFor(appErr.Code)).JSON(response)
}
