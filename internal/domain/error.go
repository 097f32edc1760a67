package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// These classify failures for logging and for the run's abort policy.
const (
	ECONFLICT = "conflict"  // counter lost a conditional write to another run
	EINTERNAL = "internal"  // unexpected failure (hide details)
	EINVALID  = "invalid"   // validation error (bad configuration)
	ENOTFOUND = "not_found" // missing resource (artifact, counter row)
	EFATAL    = "fatal"     // aborts the entire run before client work
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, EFATAL).
	Code string

	// Message is a human-readable error message safe to surface to operators.
	Message string

	// Op is the operation where the error occurred (e.g., "counter.reserve").
	Op string

	// Err is the underlying error, if any. Used for error wrapping.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for nil or non-domain errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts the human-readable message from an error.
// Non-domain errors yield a generic message so internals stay hidden.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return "An internal error occurred."
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Errorf creates a new domain error with formatted message.
// Example: domain.Errorf(domain.EINVALID, "config.load", "unreadable roster: %s", path)
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Preserves the underlying error for logging while providing structure.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Fatal creates a run-fatal error (wraps underlying error).
// Fatal errors abort the batch before any per-client work starts.
// Example: domain.Fatal(err, "counter.reserve", "failed to persist counter")
func Fatal(err error, op, message string) error {
	return &Error{
		Code:    EFATAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Invalid creates a validation error for a single issue.
// Example: domain.Invalid("config.validate", "client list is empty")
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error (wraps underlying error).
// Example: domain.Internal(err, "archive.store", "failed to write artifact")
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
