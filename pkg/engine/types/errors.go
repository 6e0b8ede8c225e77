package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the engine error taxonomy. Every failure surfaced at the
// engine boundary carries exactly one kind.
type ErrorKind string

const (
	// ErrInvalidRequest: malformed or missing required field. Rejected
	// before any resource use, never retried.
	ErrInvalidRequest ErrorKind = "invalid_request"

	// ErrContextOverflow: the prompt alone exceeds the context window.
	// The backend is never invoked.
	ErrContextOverflow ErrorKind = "context_overflow"

	// ErrTimeout: the deadline elapsed. Surfaced as a partial result
	// when any output was produced; only a hard error when nothing was.
	ErrTimeout ErrorKind = "timeout"

	// ErrBackendFailure: the native backend reported an error. Never
	// auto-retried; generation is not assumed idempotent.
	ErrBackendFailure ErrorKind = "backend_failure"

	// ErrMemoryPersist: a write to the persistent store failed. Surfaced
	// on the mutating call only.
	ErrMemoryPersist ErrorKind = "memory_persist"

	// ErrLoad: the model failed to load at startup. Fatal to the
	// process, not per-request.
	ErrLoad ErrorKind = "load_error"
)

// EngineError is the structured error used throughout the engine.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewEngineError creates an EngineError with a formatted message.
func NewEngineError(kind ErrorKind, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapEngineError creates an EngineError wrapping a cause.
func WrapEngineError(kind ErrorKind, cause error, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Classify maps any error to an (ErrorKind, message) pair for the result
// boundary. Non-engine errors become backend_failure; raw internal errors
// never pass through unclassified.
func Classify(err error) (ErrorKind, string) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, ee.Message
	}
	return ErrBackendFailure, err.Error()
}
