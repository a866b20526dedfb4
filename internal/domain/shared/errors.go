package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrStorageUnavailable  = NewDomainError("STORAGE_UNAVAILABLE", "Underlying store is unavailable")
)

// TerminalError wraps a failure that retrying cannot fix: malformed payload,
// missing linked entity, violated business precondition. The dispatcher fails
// the job immediately instead of consuming the retry budget.
//
// Any error that is not terminal is treated as retryable.
type TerminalError struct {
	Err error
}

// Error implements the error interface
func (e *TerminalError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *TerminalError) Unwrap() error {
	return e.Err
}

// Terminal wraps err as a terminal (non-retryable) failure.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &TerminalError{Err: err}
}

// Terminalf formats a new terminal failure.
func Terminalf(format string, args ...any) error {
	return &TerminalError{Err: fmt.Errorf(format, args...)}
}

// IsTerminal reports whether err is (or wraps) a terminal failure.
func IsTerminal(err error) bool {
	var t *TerminalError
	return errors.As(err, &t)
}
