package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Common application errors
var (
	ErrNotFound      = NewNotFoundError("resource", "resource not found")
	ErrAlreadyExists = NewAlreadyExistsError("resource", "resource already exists")
	ErrInternal      = NewInternalError("internal server error", nil)
)

// FieldError describes a single failed validation rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError represents a validation failure with field-level details.
// All failing fields are collected before the error is returned, so clients
// see every problem at once rather than one per request.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError creates a new validation error from the collected
// field failures
func NewValidationError(fieldErrors ...FieldError) *ValidationError {
	return &ValidationError{Errors: fieldErrors}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		messages[i] = fe.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// HTTPStatus returns the HTTP status code for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a uniqueness conflict. It carries no
// field detail; only the message is exposed to clients.
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error. Conflicts are
// reported as 400, not 409, per the service's API contract.
func (e *AlreadyExistsError) HTTPStatus() int {
	return http.StatusBadRequest
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// HTTPStatuser interface for errors that can provide an HTTP status code
type HTTPStatuser interface {
	HTTPStatus() int
}
