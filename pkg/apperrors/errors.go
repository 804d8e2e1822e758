// Package apperrors defines the error taxonomy shared across the engine.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind string

const (
	// KindNotFound means the target table or column does not exist in the
	// warehouse. Fatal for the single-target operation, never for a batch.
	KindNotFound Kind = "not_found"

	// KindContextUnavailable means an optional context source (sample,
	// profile, quality, lineage) could not be fetched. Non-fatal; the
	// corresponding prompt section is simply dropped for that call.
	KindContextUnavailable Kind = "context_unavailable"

	// KindGenerationFailure means the generative-text service failed after
	// all retries were exhausted. Fatal for that target.
	KindGenerationFailure Kind = "generation_failure"

	// KindConfigurationError means the request itself is invalid (unknown
	// strategy, missing documentation URI, unrecognized merge policy).
	// Raised before any external call and aborts a whole batch.
	KindConfigurationError Kind = "configuration_error"

	// KindPartialPersistence means exactly one of the two permanent
	// description writes (warehouse, catalog) succeeded. Reported
	// distinctly so callers can retry just the failed store.
	KindPartialPersistence Kind = "partial_persistence"
)

// ErrNotFound is the sentinel repositories return when a row does not
// exist. Carries KindNotFound for callers that dispatch on kind.
var ErrNotFound = New(KindNotFound, "not found")

// Error is a structured engine error carrying a Kind for dispatch.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a structured error with the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a structured error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a structured error wrapping a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from an error chain, or "" if the chain holds
// no *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
