package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadQuery signals a recoverable query problem that becomes a notice.
	ErrBadQuery = errors.New("bad query")
	// ErrUnknownBackend signals a backend name missing from the registry.
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrUnknownCommand signals a command key missing from the registry.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownMethod signals a public method a backend does not expose.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrUpstreamFailure signals a failed or malformed upstream call.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrCacheUnavailable signals a cache tier that cannot be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrValidationFailed signals malformed external input.
	ErrValidationFailed = errors.New("validation failed")
	// ErrBackendContract signals a backend that broke the merge rules.
	ErrBackendContract = errors.New("backend contract violation")
)

// BadQueryError carries the user-facing notice for a recoverable query problem.
type BadQueryError struct {
	Message string
	cause   error
}

func (e *BadQueryError) Error() string { return e.Message }

// Unwrap exposes both ErrBadQuery and the underlying cause.
func (e *BadQueryError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrBadQuery}
	}
	return []error{ErrBadQuery, e.cause}
}

// NewBadQuery creates a bad query error with a notice message.
func NewBadQuery(format string, args ...any) error {
	return &BadQueryError{Message: fmt.Sprintf(format, args...)}
}

// NewUnknownCommand creates the error raised for an unregistered command.
// It is both ErrUnknownCommand and ErrBadQuery.
func NewUnknownCommand(key string) error {
	return &BadQueryError{
		Message: fmt.Sprintf("Unknown command '%s'.", key),
		cause:   ErrUnknownCommand,
	}
}

// UpstreamError wraps an upstream failure with the backend that produced it.
type UpstreamError struct {
	Backend string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstreamFailure.Error(), e.Backend, e.Err)
}

// Unwrap exposes ErrUpstreamFailure and the underlying error.
func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamFailure, e.Err} }

// NewUpstreamError creates an upstream failure for the named backend.
func NewUpstreamError(backend string, err error) error {
	return &UpstreamError{Backend: backend, Err: err}
}
