package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultProcDir holds the Linux inotify limits.
const DefaultProcDir = "/proc/sys/fs/inotify"

// MinInotifyInstances is the instance limit below which doctor warns.
// Every running watch holds one instance.
const MinInotifyInstances = 16

// WatchHeadroom is the share of max_user_watches one root may use before
// doctor warns. Other programs hold watches from the same budget.
const WatchHeadroom = 0.8

// CheckInotifyWatches checks that max_user_watches covers dirs directories.
func (c *Checker) CheckInotifyWatches(dirs int) CheckResult {
	result := CheckResult{
		Name:     "inotify_watches",
		Required: true,
	}

	limit, err := readLimit(filepath.Join(c.procDir, "max_user_watches"))
	if errors.Is(err, fs.ErrNotExist) {
		result.Status = StatusPass
		result.Message = "not applicable on this platform"
		return result
	}
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to read limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d needed, limit %d", dirs, limit)
	switch {
	case dirs > limit:
		result.Status = StatusFail
		result.Details = fmt.Sprintf("Run 'sudo sysctl fs.inotify.max_user_watches=%d' to raise the limit", nextLimit(dirs))
	case float64(dirs) > float64(limit)*WatchHeadroom:
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("Run 'sudo sysctl fs.inotify.max_user_watches=%d' to leave headroom", nextLimit(dirs))
	default:
		result.Status = StatusPass
	}
	return result
}

// CheckInotifyInstances checks max_user_instances.
func (c *Checker) CheckInotifyInstances() CheckResult {
	result := CheckResult{
		Name:     "inotify_instances",
		Required: false,
	}

	limit, err := readLimit(filepath.Join(c.procDir, "max_user_instances"))
	if errors.Is(err, fs.ErrNotExist) {
		result.Status = StatusPass
		result.Message = "not applicable on this platform"
		return result
	}
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to read limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", limit, MinInotifyInstances)
	if limit < MinInotifyInstances {
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("Run 'sudo sysctl fs.inotify.max_user_instances=%d'", MinInotifyInstances*8)
		return result
	}
	result.Status = StatusPass
	return result
}

func readLimit(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return n, nil
}

// nextLimit suggests a limit with room to grow: double the need, rounded
// up to a multiple of 8192.
func nextLimit(dirs int) int {
	const step = 8192
	want := dirs * 2
	return (want + step - 1) / step * step
}
