// Package apierr defines the error taxonomy shared by services and HTTP handlers.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in structured error responses.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidColorCode = "INVALID_COLOR_CODE"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMITED"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when a request lacks valid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable is returned when an optional subsystem is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports bad input shape or range. Code defaults to
// VALIDATION_ERROR but may carry a more specific code.
type ValidationError struct {
	Code    string
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s %s", e.Message, e.Fields[0].Field, e.Fields[0].Message)
}

// Validation builds a ValidationError with the generic code.
func Validation(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Code: CodeValidation, Message: message, Fields: fields}
}

// InvalidColor builds a ValidationError for a malformed color field.
func InvalidColor(field, value string) *ValidationError {
	return &ValidationError{
		Code:    CodeInvalidColorCode,
		Message: "invalid color code",
		Fields: []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("%q must match #RRGGBB", value),
		}},
	}
}

// NotFound wraps ErrNotFound with the name of the missing resource.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Status maps an error to its HTTP status and response code.
func Status(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Code
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds a failed envelope.
func Fail(code, message string, details any) Envelope {
	return Envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}}
}

// FromError builds the status and failed envelope for err. Internal errors
// carry a generic message so store details do not leak to clients.
func FromError(err error) (int, Envelope) {
	status, code := Status(err)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		var details any
		if len(verr.Fields) > 0 {
			details = verr.Fields
		}
		return status, Fail(code, verr.Message, details)
	case status == http.StatusInternalServerError:
		return status, Fail(code, "internal server error", nil)
	default:
		return status, Fail(code, err.Error(), nil)
	}
}
