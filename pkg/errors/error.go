// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, malformed fills and configuration
//   - Data/Resource errors (200-299): Missing positions, failed queries
//   - Accounting errors (300-399): Data-quality problems detected while folding fills
//   - Feed errors (400-499): Fill retrieval and parsing failures
//   - Store errors (500-599): Persistence failures and version mismatches
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidFill, "trade quantity must be positive")
//
//	// Attach the offending fill
//	err := errors.Newf(errors.ErrCodeFillOutOfOrder, "fill precedes %s", last).WithFill(fill.ID)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert fill", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeAmbiguousDirection) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	// FillID identifies the fill that caused the error, empty when not fill specific.
	FillID string
	Cause  error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		FillID:  "",
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		FillID:  "",
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		FillID:  "",
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		FillID:  "",
		Cause:   cause,
	}
}

// WithFill returns the error annotated with the id of the offending fill.
func (e *Error) WithFill(fillID string) *Error {
	e.FillID = fillID

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.FillID != "" {
		msg = fmt.Sprintf("[%d] fill %s: %s", e.Code, e.FillID, e.Message)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetFillID returns the fill id attached anywhere in the error chain.
func GetFillID(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}

		if e.FillID != "" {
			return e.FillID
		}

		err = e.Cause
	}

	return ""
}

// IsDataQuality reports whether err describes bad input data rather than a system failure.
// Data-quality errors are surfaced to the caller; the fill feed has to be corrected upstream.
func IsDataQuality(err error) bool {
	code := GetCode(err)

	return code == ErrCodeInvalidFill || code == ErrCodeInvalidTradeLeg ||
		(code >= ErrCodeFillOutOfOrder && code < ErrCodeFeedFetchFailed)
}
