package ollama

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. The set is closed: every error leaving
// this package maps to exactly one Kind.
type Kind string

const (
	// KindModelUnavailable means the backend answered but does not have the model.
	KindModelUnavailable Kind = "MODEL_UNAVAILABLE"
	// KindServiceUnavailable means the backend could not be reached or timed out.
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	// KindModelProcessing means the backend failed with a 5xx while generating.
	KindModelProcessing Kind = "MODEL_PROCESSING_ERROR"
	// KindInternal covers everything else.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks against a Kind.
var (
	ErrModelUnavailable   = &Error{Kind: KindModelUnavailable}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrModelProcessing    = &Error{Kind: KindModelProcessing}
	ErrInternal           = &Error{Kind: KindInternal}
)

// Error is the failure type returned by Client.
type Error struct {
	Kind    Kind
	Message string // Safe to show to API callers
	Err     error  // Underlying cause, for logs
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same Kind, so the
// sentinels above work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf classifies any error. Errors that did not come from the gateway
// are KindInternal.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return "Internal server error"
}
