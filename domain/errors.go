package domain

import "errors"

// ErrorKind classifies an expected failure so the request boundary can pick
// the right status code. Infrastructure faults stay plain errors and fall
// through as KindUnexpected.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindConflict          ErrorKind = "CONFLICT"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindGatewayRejected   ErrorKind = "GATEWAY_REJECTED"
	KindUnconfigured      ErrorKind = "UNCONFIGURED"
	KindUnexpected        ErrorKind = "UNEXPECTED"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnexpected when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}
