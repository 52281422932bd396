// Package integration holds end-to-end tests that drive a real watch over
// the local filesystem. Run them without -short.
package integration
