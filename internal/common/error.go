package common

import "errors"

// Error attaches a kind (one of the sentinel errors) and a client-safe
// message to an optional underlying cause.
//
// errors.Is(err, ErrorConflict) reports true for an Error whose Kind is
// ErrorConflict, and errors.Is/As still reach the wrapped cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Unauthorized(msg string) error { return newError(ErrorUnauthorized, msg, nil) }
func BadRequest(msg string) error   { return newError(ErrorBadRequest, msg, nil) }
func Conflict(msg string) error     { return newError(ErrorConflict, msg, nil) }
func NotFound(msg string) error     { return newError(ErrorNotFound, msg, nil) }
func Forbidden(msg string) error    { return newError(ErrorForbidden, msg, nil) }

// Internal wraps a storage, filesystem or engine failure. The message is
// logged server-side only; clients get a generic text.
func Internal(msg string, cause error) error { return newError(ErrorInternal, msg, cause) }

// Message returns the client-facing message of err. Errors that carry no
// kind are treated as internal and yield an empty string.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
