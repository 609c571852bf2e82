package errors

import "fmt"

// Kind classifies an application error so transport and callers can react
// without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the application error type. Msg is safe to show to clients;
// Err carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation creates a validation error for bad input.
// Raised before any mutation is attempted.
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// NotFound creates an error for a missing profile, request or room.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Authorization creates an error for an action by a non-permitted user.
func Authorization(msg string) error { return &Error{Kind: KindAuthorization, Msg: msg} }

// Conflict creates an error for an action against already-resolved state.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// Unavailable creates an error for a failing backing store.
func Unavailable(msg string) error { return &Error{Kind: KindUnavailable, Msg: msg} }

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}
