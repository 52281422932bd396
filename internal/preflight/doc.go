// Package preflight provides system checks run by "tangerine-watch doctor"
// to find problems that would stop a watch before it starts.
//
// The package validates:
//   - The watch root exists, is a directory and is readable
//   - The inotify watch budget covers every directory under the root (Linux)
//   - The inotify instance limit (Linux)
//   - File descriptor limits
//   - The lock directory is writable
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, "/path/to/root")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
