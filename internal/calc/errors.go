// Package calc holds the arithmetic core of the service: the fixed set of
// operations, the validation of incoming requests and the error kinds that
// handlers translate into HTTP responses.
package calc

import "errors"

// Kind classifies a calculation failure. Every kind is a client error.
type Kind uint8

const (
	KindMissingParameters Kind = iota + 1
	KindUnknownOperation
	KindDivisionByZero
	KindInvalidParameters
)

// String returns the kind name used in metric labels.
func (k Kind) String() string {
	switch k {
	case KindMissingParameters:
		return "missing_parameters"
	case KindUnknownOperation:
		return "unknown_operation"
	case KindDivisionByZero:
		return "division_by_zero"
	case KindInvalidParameters:
		return "invalid_parameters"
	}
	return "unknown"
}

// Error is returned by every function in this package. Message is safe to
// show to clients as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so callers can
// match wrapped errors against the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingParameters = &Error{Kind: KindMissingParameters, Message: "Missing required parameters"}
	ErrUnknownOperation  = &Error{Kind: KindUnknownOperation, Message: "Invalid operation"}
	ErrDivisionByZero    = &Error{Kind: KindDivisionByZero, Message: "Division by zero"}
	ErrInvalidParameters = &Error{Kind: KindInvalidParameters, Message: "Parameters a and b must be numbers"}
)

// KindOf extracts the Kind of err. The second result is false when err does
// not come from this package.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
