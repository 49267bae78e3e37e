package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies structural pipeline failures.
type Kind string

const (
	KindSourceUnavailable     Kind = "SOURCE_UNAVAILABLE"
	KindSheetNotFound         Kind = "SHEET_NOT_FOUND"
	KindUnreadableFormat      Kind = "UNREADABLE_FORMAT"
	KindMissingRequiredColumn Kind = "MISSING_REQUIRED_COLUMN"
	KindNoValidRows           Kind = "NO_VALID_ROWS"
)

// Error carries a kind, a human readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so sentinel comparisons such as
// errors.Is(err, apperr.ErrNoValidRows) work on wrapped values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// With attaches a context value and returns the receiver.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New builds an error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons.
var (
	ErrSourceUnavailable     = &Error{Kind: KindSourceUnavailable, Message: "source unavailable"}
	ErrSheetNotFound         = &Error{Kind: KindSheetNotFound, Message: "sheet not found"}
	ErrUnreadableFormat      = &Error{Kind: KindUnreadableFormat, Message: "unreadable format"}
	ErrMissingRequiredColumn = &Error{Kind: KindMissingRequiredColumn, Message: "missing required column"}
	ErrNoValidRows           = &Error{Kind: KindNoValidRows, Message: "no valid rows"}
)

// KindOf reports the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
