// Package apperror defines the error kinds shared by every layer.
//
// The repository and service layers return these; only the handler layer
// knows how they map to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal inconsistency")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing record, e.g. NotFound("Book") → "Book not found".
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a business-rule violation such as borrowing a book that
// is already out.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Inconsistent reports stored state that breaks an invariant the service
// relies on. HTTP handlers map this to 500.
func Inconsistent(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}
