package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds, matched with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrRateLimited        = errors.New("rate limited")
	ErrStore              = errors.New("store error")
)

// Static error for unexpected type.
var ErrorUnexpectedType = errors.New("unexpected type")

// WrapUnexpectedType wraps the error for unexpected type.
func WrapUnexpectedType(expected string, actual interface{}) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrorUnexpectedType, expected, actual)
}

// Error carries a kind, a message safe to show to the client and an
// optional cause that is only logged.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Kind returns the sentinel error of this error.
func (e *Error) Kind() error {
	return e.kind
}

// Message returns the client facing message.
func (e *Error) Message() string {
	return e.message
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Validation - missing or malformed input.
func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// Unauthenticated - missing caller identity.
func Unauthenticated(format string, args ...any) error {
	return newError(ErrUnauthenticated, format, args...)
}

// InvalidCredentials - unknown username or wrong password.
func InvalidCredentials(format string, args ...any) error {
	return newError(ErrInvalidCredentials, format, args...)
}

// Forbidden - banned account or disallowed action.
func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// NotFound - referenced entity is absent.
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Conflict - uniqueness violation.
func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// RateLimited - caller exceeded the request rate.
func RateLimited(format string, args ...any) error {
	return newError(ErrRateLimited, format, args...)
}

// Store wraps a persistence failure, the cause is never shown to clients.
func Store(op string, cause error) error {
	if cause == nil {
		return nil
	}

	var typed *Error
	if errors.As(cause, &typed) {
		return cause // already classified
	}

	return &Error{kind: ErrStore, message: op, cause: cause}
}

// HTTPStatus maps an error to the HTTP status code of the response.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be sent to the client.
// Store failures and unclassified errors never leak their details.
func PublicMessage(err error) string {
	var typed *Error
	if errors.As(err, &typed) && !errors.Is(typed.kind, ErrStore) {
		return typed.message
	}
	return "internal server error"
}
