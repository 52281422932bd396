// Package profiling captures CPU, heap, goroutine and execution-trace
// profiles for one CLI run.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
)

// Options names the profile files to write. Empty paths are skipped.
type Options struct {
	// CPU is written continuously from Start until Stop.
	CPU string
	// Trace is written continuously from Start until Stop.
	Trace string
	// Heap is a snapshot taken at Stop.
	Heap string
	// Goroutine is a snapshot of all stacks taken at Stop.
	Goroutine string
}

// Enabled reports whether any profile is requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Trace != "" || o.Heap != "" || o.Goroutine != ""
}

// Session is a running profile capture.
type Session struct {
	opts      Options
	logger    *slog.Logger
	cpuFile   *os.File
	traceFile *os.File
	stopOnce  sync.Once
	stopErr   error
}

// Start begins the continuous profiles in opts.
// If one fails to start, those already started are stopped.
func Start(opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{opts: opts, logger: logger}

	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		s.cpuFile = f
	}

	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			s.stopContinuous()
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopContinuous()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		s.traceFile = f
	}

	if opts.Enabled() {
		logger.Debug("profiling started",
			slog.String("cpu", opts.CPU),
			slog.String("trace", opts.Trace),
			slog.String("heap", opts.Heap),
			slog.String("goroutine", opts.Goroutine))
	}
	return s, nil
}

// Stop ends continuous profiles and writes the snapshots.
// Safe to call more than once; later calls return the first result.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		var errs []error
		errs = append(errs, s.stopContinuous())
		if s.opts.Heap != "" {
			errs = append(errs, WriteHeap(s.opts.Heap))
		}
		if s.opts.Goroutine != "" {
			errs = append(errs, WriteGoroutine(s.opts.Goroutine))
		}
		s.stopErr = errors.Join(errs...)
		if s.stopErr != nil {
			s.logger.Warn("profiling stop failed", slog.String("error", s.stopErr.Error()))
		} else if s.opts.Enabled() {
			s.logger.Debug("profiling stopped")
		}
	})
	return s.stopErr
}

func (s *Session) stopContinuous() error {
	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.traceFile != nil {
		trace.Stop()
		errs = append(errs, s.traceFile.Close())
		s.traceFile = nil
	}
	return errors.Join(errs...)
}

// WriteHeap writes a heap profile to the specified file.
// This is a point-in-time snapshot of memory allocations.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Force garbage collection before profiling for accurate results
	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}

	return nil
}

// WriteGoroutine writes a goroutine profile to the specified file.
// Shows stack traces of all current goroutines.
func WriteGoroutine(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create goroutine profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := pprof.Lookup("goroutine").WriteTo(f, 1); err != nil {
		return fmt.Errorf("failed to write goroutine profile: %w", err)
	}

	return nil
}
