package booking

import (
	"errors"
	"fmt"
)

// Kind enumerates the outcomes an orchestrator operation can fail with.
// Callers branch on kind, never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTerminalState
	KindInvalidTransition
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTerminalState:
		return "terminal_state"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown for errors that did not
// originate from this package.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func TerminalStatef(format string, args ...any) error {
	return &Error{Kind: KindTerminalState, Msg: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

func StoreUnavailable(err error) error {
	return &Error{Kind: KindStoreUnavailable, Msg: "appointment store unavailable", Err: err}
}
