// Package apperror defines the error taxonomy shared by services and HTTP handlers.
package apperror

import "errors"

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to show to API clients;
// Cause carries the underlying detail for logs.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation reports missing or malformed input.
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound reports an absent entity.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict reports a business-rule violation.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Auth reports a missing, invalid or expired credential.
func Auth(message string) *Error { return New(KindAuth, message) }

// Internal wraps a storage or unexpected failure.
func Internal(message string, cause error) *Error { return Wrap(KindInternal, message, cause) }

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// PublicMessage returns a message safe to expose to clients. Internal errors
// never leak their cause.
func PublicMessage(err error, fallback string) string {
	appErr, ok := As(err)
	if !ok || appErr.Kind == KindInternal || appErr.Message == "" {
		return fallback
	}
	return appErr.Message
}
