package issue

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error wraps exactly one of these so callers can
// select on the kind with errors.Is.
var (
	ErrParse           = errors.New("parse error")
	ErrStructure       = errors.New("structural error")
	ErrVariantMismatch = errors.New("variant mismatch")
	ErrKeyPattern      = errors.New("key pattern error")
	ErrConfiguration   = errors.New("configuration error")
)

// Error is a fatal validation failure at a single path in the document.
type Error struct {
	// Kind is one of the Err* sentinels above
	Kind error

	// Code is the issue code the failure was reported with
	Code Code

	// Path locates the offending field
	Path Path

	// Message is the human-readable description
	Message string

	// MessageID is the identifier from the diagnostic catalog
	MessageID string

	// Line and Column are filled in when the source text is known
	Line   int
	Column int

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Path) > 0 {
		msg = e.Path.String() + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d, column %d)", msg, e.Line, e.Column)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// SetLocation records the source position of the failure.
func (e *Error) SetLocation(line, col int) {
	e.Line = line
	e.Column = col
}

// kindFor maps an issue code to its error kind.
func kindFor(code Code) error {
	switch code {
	case CodeParse:
		return ErrParse
	case CodeVariantMismatch:
		return ErrVariantMismatch
	case CodeKeyPattern:
		return ErrKeyPattern
	case CodeConfiguration:
		return ErrConfiguration
	default:
		return ErrStructure
	}
}

// NewError creates an error from a code and a free-form message.
func NewError(code Code, path Path, format string, args ...any) *Error {
	return &Error{
		Kind:    kindFor(code),
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a cause to the error and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

// AsError extracts an *Error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
