package domain

import "strings"

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// ValidationError reports malformed input. Depending on the failure it
// carries a plain message, field-level messages, or one FieldErrors per item
// of a batch request.
type ValidationError struct {
	Message string
	Fields  FieldErrors
	Items   []FieldErrors
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// AuthError is returned for bad credentials or an inactive account.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError is returned when an operation is not allowed in the current
// state of a record, e.g. borrowing a book that is already lent.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
