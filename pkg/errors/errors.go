// Package errors provides structured error types for grid3d.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - A single human-readable message per failure
//
// # Error Codes
//
// Parameter validation failures map one-to-one to codes:
//
//	NO_CONFIGURATION           no parameter set was supplied at all
//	MISSING_PARAMETER          a required parameter is absent or has the wrong type
//	INVALID_DIMENSION          width, height or depth is not positive
//	INVALID_SPACING            spacing is not positive
//	INVALID_CONNECTIVITY       connectivity is not one of "0", "4", "8"
//	INVALID_RADIUS             neighborhood radius is negative
//	UNKNOWN_NEIGHBORHOOD_TYPE  neighborhood type is not "Circular" or "Square"
//	GRID_TOO_LARGE             width*height*depth does not fit the node count
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSpacing, "Spacing must be positive")
//	if errors.Is(err, errors.ErrCodeInvalidSpacing) {
//	    // Handle validation error
//	}
//
//	fmt.Println(errors.UserMessage(err)) // "Spacing must be positive"
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Parameter validation errors
	ErrCodeNoConfiguration         Code = "NO_CONFIGURATION"
	ErrCodeMissingParameter        Code = "MISSING_PARAMETER"
	ErrCodeInvalidDimension        Code = "INVALID_DIMENSION"
	ErrCodeInvalidSpacing          Code = "INVALID_SPACING"
	ErrCodeInvalidConnectivity     Code = "INVALID_CONNECTIVITY"
	ErrCodeInvalidRadius           Code = "INVALID_RADIUS"
	ErrCodeUnknownNeighborhoodType Code = "UNKNOWN_NEIGHBORHOOD_TYPE"
	ErrCodeGridTooLarge            Code = "GRID_TOO_LARGE"

	// Request errors
	ErrCodeInvalidKind   Code = "INVALID_KIND"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
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

// IsValidation reports whether err carries one of the parameter validation codes.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoConfiguration, ErrCodeMissingParameter, ErrCodeInvalidDimension,
		ErrCodeInvalidSpacing, ErrCodeInvalidConnectivity, ErrCodeInvalidRadius,
		ErrCodeUnknownNeighborhoodType, ErrCodeGridTooLarge:
		return true
	}
	return false
}
