package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opentangerine/watch/internal/lock"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
	procDir string
	lockDir string
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithProcDir sets the directory holding the inotify limits.
// Default: /proc/sys/fs/inotify
func WithProcDir(dir string) Option {
	return func(c *Checker) {
		c.procDir = dir
	}
}

// WithLockDir sets the directory the CLI keeps root locks in.
func WithLockDir(dir string) Option {
	return func(c *Checker) {
		c.lockDir = dir
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:  os.Stdout,
		procDir: DefaultProcDir,
		lockDir: lock.DefaultDir(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs all preflight checks for root and returns the results.
func (c *Checker) RunAll(ctx context.Context, root string) []CheckResult {
	var results []CheckResult

	rootResult, dirs := c.CheckRoot(ctx, root)
	results = append(results, rootResult)

	results = append(results, c.CheckInotifyWatches(dirs))
	results = append(results, c.CheckInotifyInstances())
	results = append(results, c.CheckFileDescriptors())
	results = append(results, c.CheckLockDir())

	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "tangerine-watch doctor")
	_, _ = fmt.Fprintln(c.output, "======================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	status := c.SummaryStatus(results)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(status))

	// Print summary of issues
	var warnings, errors []string
	for _, r := range results {
		if r.IsCritical() {
			errors = append(errors, r.Name+": "+r.Message)
		} else if r.Status == StatusWarn {
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}

	if len(errors) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d error(s):\n", len(errors))
		for _, e := range errors {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", e)
		}
	}

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", w)
		}
	}
}

// CheckRoot checks that root can be registered and counts the directories
// a watch would add. A missing root is a warning: the watch waits for it.
func (c *Checker) CheckRoot(ctx context.Context, root string) (CheckResult, int) {
	result := CheckResult{
		Name:     "watch_root",
		Required: true,
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Status = StatusWarn
		result.Message = "does not exist yet, the watch will wait for it"
		result.Details = root
		return result, 0
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot stat: %v", err)
		return result, 0
	case !info.IsDir():
		result.Status = StatusFail
		result.Message = "is not a directory"
		result.Details = root
		return result, 0
	}

	dirs := 0
	err = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			dirs++
		}
		return nil
	})
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read tree: %v", err)
		result.Details = root
		return result, dirs
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d director%s", dirs, plural(dirs, "y", "ies"))
	result.Details = root
	return result, dirs
}

// CheckLockDir checks that lock files can be created.
func (c *Checker) CheckLockDir() CheckResult {
	result := CheckResult{
		Name:     "lock_dir",
		Required: false,
	}

	if err := os.MkdirAll(c.lockDir, 0755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create: %v", err)
		result.Details = "Run with --no-lock to skip the per-root lock"
		return result
	}

	// Try to create a temp file
	f, err := os.CreateTemp(c.lockDir, ".doctor-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		result.Details = "Run with --no-lock to skip the per-root lock"
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = c.lockDir
	return result
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
