package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an emojicherrypick error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // exit 1
	ErrFetchFailed      ErrorCode = "FETCH_FAILED"      // exit 1
	ErrCatalogMalformed ErrorCode = "CATALOG_MALFORMED" // exit 1
	ErrStrategyFailed   ErrorCode = "STRATEGY_FAILED"   // exit 1
	ErrOutputFailed     ErrorCode = "OUTPUT_FAILED"     // exit 3
	ErrInternal         ErrorCode = "INTERNAL"          // exit 1
)

// Process exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNoSelection = 2
	ExitOutput      = 3
)

// PickError represents a structured error with code, exit status, and details.
type PickError struct {
	Code     ErrorCode
	ExitCode int
	Message  string
	Details  map[string]any
	Err      error
}

// Error implements the error interface.
func (e *PickError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *PickError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates an error for invalid arguments or configuration.
func NewInvalidRequest(msg string) *PickError {
	return &PickError{
		Code:     ErrInvalidRequest,
		ExitCode: ExitFailure,
		Message:  msg,
	}
}

// NewFetchFailed creates an error for a raw database that could not be downloaded.
func NewFetchFailed(url string, err error) *PickError {
	return &PickError{
		Code:     ErrFetchFailed,
		ExitCode: ExitFailure,
		Message:  fmt.Sprintf("failed to fetch emoji database from %s: %v", url, err),
		Details:  map[string]any{"url": url},
		Err:      err,
	}
}

// NewCatalogMalformed creates an error for an emoji database that cannot be parsed.
func NewCatalogMalformed(msg string) *PickError {
	return &PickError{
		Code:     ErrCatalogMalformed,
		ExitCode: ExitFailure,
		Message:  msg,
	}
}

// NewStrategyFailed creates an error for a selection strategy that could not run.
// This is an operational failure, never a user cancellation.
func NewStrategyFailed(strategy string, err error) *PickError {
	msg := fmt.Sprintf("selection with %s failed", strategy)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &PickError{
		Code:     ErrStrategyFailed,
		ExitCode: ExitFailure,
		Message:  msg,
		Details:  map[string]any{"strategy": strategy},
		Err:      err,
	}
}

// NewEmptyCorpus creates a strategy failure for a strategy that needs at least one line.
func NewEmptyCorpus(strategy string) *PickError {
	return &PickError{
		Code:     ErrStrategyFailed,
		ExitCode: ExitFailure,
		Message:  fmt.Sprintf("selection with %s failed: emoji list is empty", strategy),
		Details:  map[string]any{"strategy": strategy},
	}
}

// NewOutputFailed creates an error for a side effect (clipboard, typing, notify) that failed.
func NewOutputFailed(sink string, err error) *PickError {
	return &PickError{
		Code:     ErrOutputFailed,
		ExitCode: ExitOutput,
		Message:  fmt.Sprintf("output to %s failed: %v", sink, err),
		Details:  map[string]any{"sink": sink},
		Err:      err,
	}
}

// NewInternal creates an error for unexpected internal errors.
func NewInternal(err error) *PickError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PickError{
		Code:     ErrInternal,
		ExitCode: ExitFailure,
		Message:  msg,
		Err:      err,
	}
}

// Is checks if an error is (or wraps) a PickError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PickError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// ExitCode returns the process exit status for err.
// A nil error maps to ExitOK, unknown errors to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var pErr *PickError
	if stderrors.As(err, &pErr) && pErr.ExitCode != 0 {
		return pErr.ExitCode
	}
	return ExitFailure
}
