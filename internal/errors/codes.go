// Package errors provides structured error handling for tangerine-watch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (native watch facility, filesystem)
//   - 3XX: Timeout errors
//   - 4XX: Usage errors (illegal state, invalid input)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates native watch and filesystem errors.
	CategoryIO Category = "IO"
	// CategoryTimeout indicates a bounded wait that expired.
	CategoryTimeout Category = "TIMEOUT"
	// CategoryUsage indicates API misuse such as a second Start.
	CategoryUsage Category = "USAGE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the session cannot continue.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeWatchUnavailable = "ERR_201_WATCH_UNAVAILABLE"
	ErrCodePermissionDenied = "ERR_202_PERMISSION_DENIED"
	ErrCodeRegisterFailed   = "ERR_203_REGISTER_FAILED"
	ErrCodeNotDirectory     = "ERR_204_NOT_DIRECTORY"
	ErrCodePollFailed       = "ERR_205_POLL_FAILED"
	ErrCodeEventOverflow    = "ERR_206_EVENT_OVERFLOW"
	ErrCodeWatchClosed      = "ERR_207_WATCH_CLOSED"
	ErrCodeLockHeld         = "ERR_208_LOCK_HELD"

	// Timeout errors (300-399)
	ErrCodeAwaitTimeout = "ERR_301_AWAIT_TIMEOUT"
	ErrCodeCloseTimeout = "ERR_302_CLOSE_TIMEOUT"

	// Usage errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeAlreadyStarted = "ERR_402_ALREADY_STARTED"
	ErrCodeClosed         = "ERR_403_CLOSED"
	ErrCodeNotStarted     = "ERR_404_NOT_STARTED"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeListenerPanic = "ERR_502_LISTENER_PANIC"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "301" from "ERR_301_AWAIT_TIMEOUT")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryTimeout
	case '4':
		return CategoryUsage
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeWatchUnavailable, ErrCodePermissionDenied, ErrCodeRegisterFailed,
		ErrCodeNotDirectory, ErrCodeCloseTimeout:
		return SeverityFatal
	}

	// A failed poll is retried on the next cycle
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodePollFailed, ErrCodeEventOverflow:
		return true
	default:
		return false
	}
}
