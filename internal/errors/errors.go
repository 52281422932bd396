package errors

import (
	"errors"
	"fmt"
)

// WatchError is the structured error type for tangerine-watch.
// It classifies failures so callers can tell "never started" from
// "took too long" from "used wrongly".
type WatchError struct {
	// Code is the unique error code (e.g., "ERR_301_AWAIT_TIMEOUT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Timeout, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *WatchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *WatchError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work against sentinel WatchErrors.
func (e *WatchError) Is(target error) bool {
	if t, ok := target.(*WatchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *WatchError) WithDetail(key, value string) *WatchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *WatchError) WithSuggestion(suggestion string) *WatchError {
	e.Suggestion = suggestion
	return e
}

// New creates a new WatchError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *WatchError {
	return &WatchError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a WatchError from an existing error.
// The error's message becomes the WatchError message.
func Wrap(code string, err error) *WatchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel returns a bare WatchError for the code, for use with errors.Is.
func Sentinel(code string) *WatchError {
	return New(code, code, nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *WatchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a native watch facility error.
func IOError(message string, cause error) *WatchError {
	return New(ErrCodeRegisterFailed, message, cause)
}

// UsageError creates an illegal-state error with the given code.
func UsageError(code, message string) *WatchError {
	return New(code, message, nil)
}

// TimeoutError creates a timeout error with the given code.
func TimeoutError(code, message string) *WatchError {
	return New(code, message, nil)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *WatchError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first WatchError in err's chain.
func as(err error) (*WatchError, bool) {
	var we *WatchError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if we, ok := as(err); ok {
		return we.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors end the watch session.
func IsFatal(err error) bool {
	if we, ok := as(err); ok {
		return we.Severity == SeverityFatal
	}
	return false
}

// IsTimeout checks if an error is a timeout condition.
func IsTimeout(err error) bool {
	return GetCategory(err) == CategoryTimeout
}

// IsUsage checks if an error reports API misuse.
func IsUsage(err error) bool {
	return GetCategory(err) == CategoryUsage
}

// GetCode extracts the error code from a WatchError.
// Returns empty string if not a WatchError.
func GetCode(err error) string {
	if we, ok := as(err); ok {
		return we.Code
	}
	return ""
}

// GetCategory extracts the category from a WatchError.
// Returns empty string if not a WatchError.
func GetCategory(err error) Category {
	if we, ok := as(err); ok {
		return we.Category
	}
	return ""
}
