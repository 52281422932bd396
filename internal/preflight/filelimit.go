package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MinFileDescriptors is the descriptor limit below which doctor warns.
// A watch holds one inotify descriptor plus the CLI's log and lock files.
const MinFileDescriptors = 64

// CheckFileDescriptors checks if the file descriptor limit is sufficient.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: false,
	}

	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	currentLimit := rLimit.Cur
	result.Message = fmt.Sprintf("%d (minimum: %d)", currentLimit, MinFileDescriptors)

	if currentLimit < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 1024' to increase the limit"
		return result
	}

	result.Status = StatusPass
	return result
}
