// Package derrors provides coded domain errors.
//
// Services attach a Code when translating store or validation failures so the
// HTTP layer can map errors to status codes without inspecting error strings.
// Stores wrap driver errors with fmt.Errorf("...: %w", err); services wrap
// those with derrors.Wrap; handlers pass the result to httputil.WriteError.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeDatabase           Code = "database_error"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a domain error carrying a code, a caller-facing message, and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for readable call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for errors that carry no code.
func CodeOf(err error) Code {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from an error chain. Errors
// without a code have no safe caller-facing message and return "".
func MessageOf(err error) string {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Message
	}
	return ""
}
