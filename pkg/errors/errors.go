// Package errors provides structured error types for the fpgaroute toolchain.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the routing library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (graphs, netlists, configuration)
//   - *_NOT_FOUND / GRAPH_LOOKUP_MISS: Resource not found
//   - UNREACHABLE_SINK / INFEASIBLE / BUDGET_EXHAUSTED: Routing outcomes
//   - INTERNAL_*: Bugs in bookkeeping; never recoverable
//
// Routing outcomes are normally carried as values inside a routing result.
// They are only turned into errors at the boundary, when a caller asks for
// a single go/no-go answer.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidNetlist, "net %q has no sinks", name)
//	if errors.Is(err, errors.ErrCodeInvalidNetlist) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidGraph, origErr, "failed to load %s", path)
//
// Invariant violations abort the run:
//
//	errors.Invariant("occupancy of node %d went negative", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidGraph   Code = "INVALID_GRAPH"
	ErrCodeInvalidNetlist Code = "INVALID_NETLIST"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeGraphLookupMiss Code = "GRAPH_LOOKUP_MISS"

	// Routing outcomes
	ErrCodeUnreachableSink Code = "UNREACHABLE_SINK"
	ErrCodeInfeasible      Code = "INFEASIBLE"
	ErrCodeBudgetExhausted Code = "BUDGET_EXHAUSTED"
	ErrCodeCanceled        Code = "CANCELED"

	// Internal errors
	ErrCodeInternal          Code = "INTERNAL_ERROR"
	ErrCodeInternalInvariant Code = "INTERNAL_INVARIANT"
	ErrCodeUnsupported       Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Invariant panics with an INTERNAL_INVARIANT error. It is reserved for
// states that can only be reached through a bug in cost or tree bookkeeping;
// continuing would corrupt every later routing decision.
func Invariant(format string, args ...any) {
	panic(New(ErrCodeInternalInvariant, format, args...))
}

// RecoverInvariant converts a panic raised by Invariant into an error stored
// in *errp. Other panics are re-raised. Use it with defer at API boundaries
// that prefer an error over a crashed process:
//
//	defer errors.RecoverInvariant(&err)
func RecoverInvariant(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok && e.Code == ErrCodeInternalInvariant {
		*errp = e
		return
	}
	panic(r)
}

// SinkError reports a sink that could not be reached by one net in one
// routing iteration.
type SinkError struct {
	Net    string // Net name
	Sink   int    // Sink pin index within the net (1-based; 0 is the driver)
	Reason string // "unreachable", "budget", "lookup", "congested"
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	return fmt.Sprintf("net %s: sink %d %s", e.Net, e.Sink, e.Reason)
}

// Code returns the error code for this error type.
func (e *SinkError) Code() Code {
	switch e.Reason {
	case "budget":
		return ErrCodeBudgetExhausted
	case "lookup":
		return ErrCodeGraphLookupMiss
	case "congested":
		return ErrCodeInfeasible
	default:
		return ErrCodeUnreachableSink
	}
}
