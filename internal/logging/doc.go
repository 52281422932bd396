// Package logging provides structured file logging with size-based
// rotation for tangerine-watch.
//
// Logs are written as JSON lines to ~/.tangerine-watch/logs/watch.log.
// Without --debug the CLI logs warnings and errors to stderr only; with
// --debug everything down to debug level also goes to the log file, which
// `tangerine-watch logs` can tail and follow.
package logging
