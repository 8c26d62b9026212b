// Package errors provides structured error types for semsim.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (recoverable by the caller)
//   - ENGINE_*: The simulation engine violated its interface contract
//   - EXPORT_*: Writing an output file failed
//   - UNSUPPORTED: The feature was not compiled into this binary
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "gamma must be > 0, got %g", gamma)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeExportIO, origErr, "create %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidMaterial  Code = "INVALID_MATERIAL"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Engine errors
	ErrCodeEngineContract Code = "ENGINE_CONTRACT"
	ErrCodeEngineSequence Code = "ENGINE_SEQUENCE"

	// Export errors
	ErrCodeExportIO       Code = "EXPORT_IO"
	ErrCodeExportEncoding Code = "EXPORT_ENCODING"

	// Build errors
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// coder is implemented by the domain error types that are not *Error.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a domain error
// with a matching code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns err's message with the code prefixes of every *Error
// in its chain removed, keeping the context added by wrapping.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for e := err; e != nil; e = errors.Unwrap(e) {
		if c, ok := e.(*Error); ok {
			msg = strings.Replace(msg, string(c.Code)+": ", "", 1)
		}
	}
	return msg
}

// InvalidParameterError reports a simulation parameter that failed
// validation at construction time. Field is the canonical snake_case
// parameter name (e.g. "energy_kev").
type InvalidParameterError struct {
	Field      string
	Constraint string
	Value      any
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Constraint)
	}
	return fmt.Sprintf("invalid parameter %s (%v): %s", e.Field, e.Value, e.Constraint)
}

// Code returns the error code for this error type.
func (e *InvalidParameterError) Code() Code {
	return ErrCodeInvalidParameter
}

// EngineContractError reports that the simulation engine broke its interface
// contract: a null result buffer, non-positive dimensions or a buffer shorter
// than its declared shape. There is no safe continuation for the job that
// observed it.
type EngineContractError struct {
	Op     string // engine operation, e.g. "scatter_data"
	Detail string
}

// Error implements the error interface.
func (e *EngineContractError) Error() string {
	return fmt.Sprintf("engine contract violation in %s: %s", e.Op, e.Detail)
}

// Code returns the error code for this error type.
func (e *EngineContractError) Code() Code {
	return ErrCodeEngineContract
}
