// Package errors defines the error taxonomy shared by the resolver, the schema
// decoder and the type synthesizer. Every failure that aborts a compilation
// run is reported as an *Error carrying a Code and, when known, the JSON path
// of the offending node.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies compilation failures.
type Code string

const (
	// CodeUnresolvedConstant reports a constant reference whose name is absent
	// from the constant table.
	CodeUnresolvedConstant Code = "unresolved_constant"
	// CodeRecursionLimit reports a constant chain, constant cycle or nesting
	// depth that exceeds the configured bound.
	CodeRecursionLimit Code = "recursion_limit"
	// CodeMalformedField reports a field whose component is not recognised or
	// whose payload does not match its component.
	CodeMalformedField Code = "malformed_field"
	// CodeMalformedSchema reports a resolved document that does not have the
	// pack schema shape (sections/settings).
	CodeMalformedSchema Code = "malformed_schema"
	// CodeNameCollision reports sibling fields or auxiliary declarations that
	// would produce conflicting names.
	CodeNameCollision Code = "name_collision"
	// CodeIO reports loader or sink failures.
	CodeIO Code = "io"
)

// Error is the concrete error type returned by the compiler packages.
type Error struct {
	Code  Code
	Msg   string
	Path  string
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Msg)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error without a cause.
func New(code Code, path, msg string) *Error {
	return &Error{Code: code, Msg: msg, Path: path}
}

// Newf constructs an Error with a formatted message.
func Newf(code Code, path, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Path: path}
}

// Wrap attaches a cause to a new Error.
func Wrap(code Code, path, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Path: path, Cause: cause}
}

// CodeOf returns the Code of the first *Error in err's chain, or "" when none
// is present.
func CodeOf(err error) Code {
	var target *Error
	if stderrors.As(err, &target) {
		return target.Code
	}
	return ""
}

// IsCode reports whether err carries the supplied Code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
