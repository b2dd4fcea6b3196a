// Package apperr holds the error taxonomy shared by the HTTP handlers. Each
// sentinel maps to exactly one response status in httpx.
package apperr

import "errors"

var (
	ErrBadRequest         = errors.New("bad request")
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrDownstream         = errors.New("downstream failure")
)

// Error is a taxonomy error with a caller-facing message. errors.Is matches it
// against its kind sentinel; errors.Unwrap returns the underlying cause.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the sentinel the error was created with.
func (e *Error) Kind() error {
	return e.kind
}

func New(kind error, message string) error {
	return &Error{kind: kind, message: message}
}

func Wrap(kind error, message string, cause error) error {
	return &Error{kind: kind, message: message, cause: cause}
}

func BadRequest(message string) error {
	return New(ErrBadRequest, message)
}

func Unauthenticated(message string) error {
	return New(ErrUnauthenticated, message)
}

func Downstream(message string, cause error) error {
	return Wrap(ErrDownstream, message, cause)
}

// Message returns the text that may be shown to the client for err.
func Message(err error) (string, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.message, true
	}
	for _, kind := range []error{ErrBadRequest, ErrDuplicateIdentity, ErrInvalidCredentials, ErrUnauthenticated, ErrTooManyRequests, ErrDownstream} {
		if errors.Is(err, kind) {
			return kind.Error(), true
		}
	}
	return "", false
}
