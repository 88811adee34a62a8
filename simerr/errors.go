// Package simerr defines the fixed error taxonomy shared by every layer of
// the simulation engine, from the Builder down to the FFI boundary.
package simerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is one of the fixed failure categories a caller can branch on. Its
// members and their numeric values are stable across releases: they are
// the negative return codes an FFI boundary hands to non-Go callers.
type Code int

// The fixed set of failure codes, grouped by layer as in the engine's error
// handling design.
const (
	// Argument validation
	NullPointer Code = -(iota + 1)
	PointerMisaligned
	InvalidArgument
	ArgumentOutOfRange
	Utf8Encoding
	// Structural
	WireWidthMismatch
	WireWidthIncompatible
	OffsetOutOfRange
	TooFewInputs
	InvalidInputCount
	InvalidComponentType
	InvalidWireId
	InvalidComponentId
	// Resource
	ResourceLimitReached
	// Semantic
	InvalidOperation
	MalformedFormat
	Unsupported
	// Runtime
	Conflict
	Io
)

var codeNames = map[Code]string{
	NullPointer:           "NullPointer",
	PointerMisaligned:     "PointerMisaligned",
	InvalidArgument:       "InvalidArgument",
	ArgumentOutOfRange:    "ArgumentOutOfRange",
	Utf8Encoding:          "Utf8Encoding",
	WireWidthMismatch:     "WireWidthMismatch",
	WireWidthIncompatible: "WireWidthIncompatible",
	OffsetOutOfRange:      "OffsetOutOfRange",
	TooFewInputs:          "TooFewInputs",
	InvalidInputCount:     "InvalidInputCount",
	InvalidComponentType:  "InvalidComponentType",
	InvalidWireId:         "InvalidWireId",
	InvalidComponentId:    "InvalidComponentId",
	ResourceLimitReached:  "ResourceLimitReached",
	InvalidOperation:      "InvalidOperation",
	MalformedFormat:       "MalformedFormat",
	Unsupported:           "Unsupported",
	Conflict:              "Conflict",
	Io:                    "Io",
}

// String returns the code's name, e.g. "WireWidthMismatch".
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the concrete error type returned by every fallible operation in
// this module. It always carries a Code so callers can branch on failure
// category without string matching, and wraps its cause (if any) using
// github.com/pkg/errors so the causal chain survives across layers.
type Error struct {
	Code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

// Unwrap allows errors.Is/errors.As to see through an Error to its
// underlying cause. Error has no Cause method, so github.com/pkg/errors.Cause
// stops at the Error itself.
func (e *Error) Unwrap() error { return e.err }

// New creates an Error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, msg: msg}
}

// Newf creates an Error with the given code and a formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and msg to cause, preserving cause in the chain. If
// cause is nil, Wrap returns nil.
func Wrap(cause error, code Code, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, msg: msg, err: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(cause error, code Code, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, msg: fmt.Sprintf(format, args...), err: errors.WithStack(cause)}
}

// CodeOf extracts the Code from err, returning ok=false if err is nil or
// not (or does not wrap) a *Error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
