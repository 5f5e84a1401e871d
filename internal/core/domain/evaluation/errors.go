package evaluation

import (
	"errors"
	"fmt"
)

// ErrorKind tags which of spec.md §7's error kinds a failure belongs to.
type ErrorKind string

const (
	// ErrorKindConfig is a fatal configuration error: conflicting
	// includeMessages, an empty job list, a missing API key when an
	// action needs one. Propagates from the entry point.
	ErrorKindConfig ErrorKind = "config"

	// ErrorKindResolution is a non-fatal datapoint resolution failure:
	// the datapoint is dropped and a warning logged; the run continues.
	ErrorKindResolution ErrorKind = "resolution"

	// ErrorKindUpload is a non-fatal uploader transport failure: logged,
	// the result tree is still returned.
	ErrorKindUpload ErrorKind = "upload"

	// ErrorKindInvariant is a fatal internal invariant violation —
	// indicates a bug in the engine itself, not in user code.
	ErrorKindInvariant ErrorKind = "invariant"
)

// Error is the engine's tagged error type, grounded on the teacher's
// pkg/errors.AppError: a kind tag, a message, and an optional wrapped
// cause so callers can still errors.As/errors.Is through it.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewConfigError builds a fatal configuration error.
func NewConfigError(message string, cause error) *Error {
	return &Error{Kind: ErrorKindConfig, Message: message, Err: cause}
}

// NewResolutionError builds a non-fatal datapoint resolution error.
func NewResolutionError(message string, cause error) *Error {
	return &Error{Kind: ErrorKindResolution, Message: message, Err: cause}
}

// NewUploadError builds a non-fatal uploader transport error.
func NewUploadError(message string, cause error) *Error {
	return &Error{Kind: ErrorKindUpload, Message: message, Err: cause}
}

// NewInvariantError builds a fatal internal invariant violation.
func NewInvariantError(message string) *Error {
	return &Error{Kind: ErrorKindInvariant, Message: message}
}

// IsConfigError reports whether err is a fatal configuration error.
func IsConfigError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrorKindConfig
}

// IsInvariantError reports whether err is an internal invariant violation.
func IsInvariantError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrorKindInvariant
}
