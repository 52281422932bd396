package watch

import (
	werrors "github.com/opentangerine/watch/internal/errors"
)

// Sentinel errors for use with errors.Is. Errors returned by this package
// match them by code.
var (
	// ErrAlreadyStarted is returned by Start on a running watch.
	ErrAlreadyStarted = werrors.Sentinel(werrors.ErrCodeAlreadyStarted)
	// ErrNotStarted is returned by Await before Start.
	ErrNotStarted = werrors.Sentinel(werrors.ErrCodeNotStarted)
	// ErrClosed is returned when using a watch after Close.
	ErrClosed = werrors.Sentinel(werrors.ErrCodeClosed)

	// ErrAwaitTimeout is returned when registration does not finish in time.
	ErrAwaitTimeout = werrors.Sentinel(werrors.ErrCodeAwaitTimeout)
	// ErrCloseTimeout is returned when the goroutine does not exit in time.
	ErrCloseTimeout = werrors.Sentinel(werrors.ErrCodeCloseTimeout)

	// ErrWatchUnavailable means the native facility could not be created.
	ErrWatchUnavailable = werrors.Sentinel(werrors.ErrCodeWatchUnavailable)
	// ErrPermissionDenied means a directory could not be registered.
	ErrPermissionDenied = werrors.Sentinel(werrors.ErrCodePermissionDenied)
	// ErrRegisterFailed means a directory could not be registered.
	ErrRegisterFailed = werrors.Sentinel(werrors.ErrCodeRegisterFailed)
	// ErrNotDirectory means the root exists but is not a directory.
	ErrNotDirectory = werrors.Sentinel(werrors.ErrCodeNotDirectory)

	// ErrListenerPanic is reported to the error handler when a listener panics.
	ErrListenerPanic = werrors.Sentinel(werrors.ErrCodeListenerPanic)
)

// IsTimeout reports whether err is an Await or Close timeout.
func IsTimeout(err error) bool {
	return werrors.IsTimeout(err)
}

// IsFatal reports whether err ended the watch session.
func IsFatal(err error) bool {
	return werrors.IsFatal(err)
}
