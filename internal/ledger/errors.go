package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindConflict          Kind = "conflict"
	KindPersistence       Kind = "persistence"
	KindUnknown           Kind = "unknown"
)

// Error is the typed condition returned by every ledger operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "account not found"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "caller does not own the account"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "account password does not match"}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrAccountConflict   = &Error{Kind: KindConflict, Message: "account number already exists"}
	ErrPersistence       = &Error{Kind: KindPersistence, Message: "operation was not processed"}
	ErrUnknown           = &Error{Kind: KindUnknown, Message: "unknown error"}
)

// Store level sentinels. Store implementations wrap these with %w.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateNumber = errors.New("duplicate account number")
	// ErrConflict marks a unit that lost a serialization race and may be retried.
	ErrConflict = errors.New("transaction conflict")
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func validationError(msg string) *Error {
	return newError(KindValidation, msg, nil)
}

// KindOf reports the kind of err. Errors that did not originate from the
// ledger are classified as KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// classify turns a raw store error into a ledger Error. Errors that are
// already typed pass through untouched.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return newError(KindNotFound, ErrNotFound.Message, err)
	case errors.Is(err, ErrDuplicateNumber):
		return newError(KindConflict, ErrAccountConflict.Message, err)
	case errors.Is(err, ErrConflict):
		return err
	}
	return newError(KindUnknown, msg, err)
}
