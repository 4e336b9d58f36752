// Package errors provides structured error types for inkpipe.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP server
//   - Machine-readable error codes for programmatic handling
//   - A single mapping from failure class to HTTP status
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Most codes describe failures that the pipeline recovers from locally
// (a missing recipe renders a "not found" screen, a failed slot is left
// blank). Only DITHER_INPUT_INVALID, INVALID_LAYOUT, NOT_FOUND and
// PERSISTENCE_UNAVAILABLE are expected to reach a caller.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfigNotFound, "recipe %q not found", slug)
//	if errors.Is(err, errors.ErrCodeConfigNotFound) {
//	    // render fallback
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodePersistenceUnavailable, origErr, "load mixup %s", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Recipe resolution
	ErrCodeConfigNotFound        Code = "CONFIG_NOT_FOUND"
	ErrCodeComponentLoadFailure  Code = "COMPONENT_LOAD_FAILURE"
	ErrCodeDataFetchTimeout      Code = "DATA_FETCH_TIMEOUT"
	ErrCodeDataFetchFailure      Code = "DATA_FETCH_FAILURE"
	ErrCodeDataValidationFailure Code = "DATA_VALIDATION_FAILURE"

	// Rendering and imaging
	ErrCodeRenderEngineFailure Code = "RENDER_ENGINE_FAILURE"
	ErrCodeDitherInputInvalid  Code = "DITHER_INPUT_INVALID"
	ErrCodeSlotResizeFailure   Code = "SLOT_RESIZE_FAILURE"

	// Persistence
	ErrCodePersistenceUnavailable Code = "PERSISTENCE_UNAVAILABLE"

	// Input validation and lookup
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// HTTPStatus maps an error to the status code the server responds with.
// Errors without a code are treated as unexpected failures.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeConfigNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeInvalidLayout, ErrCodeDitherInputInvalid:
		return http.StatusBadRequest
	case ErrCodePersistenceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeDataFetchTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
