package facade

import "fmt"

// Kind classifies a façade/handler failure. Kinds are stable vocabulary, not
// wire fields: the dispatcher only puts the message on the wire.
type Kind string

const (
	KindOutOfRange  Kind = "out_of_range"
	KindNotFound    Kind = "not_found"
	KindBadValue    Kind = "bad_value"
	KindConflict    Kind = "conflict"
	KindUnsupported Kind = "unsupported"
	KindInternal    Kind = "internal"
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// KindOf returns the classification of err, or KindInternal for foreign
// errors.
func KindOf(err error) Kind {
	if fe, ok := err.(*Error); ok {
		return fe.Kind
	}
	return KindInternal
}

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// OutOfRangef builds an index-out-of-range error.
func OutOfRangef(format string, args ...any) *Error {
	return newError(KindOutOfRange, format, args...)
}

// NotFoundf builds a lookup-failure error.
func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// BadValuef builds a value-normalization error.
func BadValuef(format string, args ...any) *Error {
	return newError(KindBadValue, format, args...)
}

// Conflictf builds an occupied-resource error.
func Conflictf(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Unsupportedf builds an error for operations the host API does not expose.
func Unsupportedf(format string, args ...any) *Error {
	return newError(KindUnsupported, format, args...)
}
