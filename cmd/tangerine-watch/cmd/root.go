// Package cmd provides the CLI commands for tangerine-watch.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	werrors "github.com/opentangerine/watch/internal/errors"
	"github.com/opentangerine/watch/internal/logging"
	"github.com/opentangerine/watch/internal/profiling"
	"github.com/opentangerine/watch/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     *profiling.Session
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for tangerine-watch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tangerine-watch",
		Short: "Watch a directory tree and print every change",
		Long: `tangerine-watch registers a directory and all of its subdirectories
with the operating system's file notification facility and prints one line
for every file that is created, modified or deleted.

The directory does not need to exist yet: the watch waits for it, and
re-registers if it is deleted and created again.

Run 'tangerine-watch watch' in the directory you want to observe.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	cmd.SetVersionTemplate("tangerine-watch version {{.Version}}\n")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.tangerine-watch/logs/ and stderr")

	// Setup profiling and logging hooks
	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	// Add subcommands
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts profiling and logging for one run.
// Without --debug only warnings reach stderr until a command asks for more.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.StderrConfig("warn")
	if debugMode {
		cfg = logging.DebugConfig()
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Short()))
	}

	session, err := profiling.Start(profiling.Options{
		CPU:   profileCPU,
		Trace: profileTrace,
		Heap:  profileMem,
	}, slog.Default())
	if err != nil {
		return err
	}
	profiler = session
	return nil
}

// stopProfilingAndLogging stops profiling and flushes logs.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		if stopErr := profiler.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to write profiles: %w", stopErr)
		}
		profiler = nil
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// setupLogging replaces the default logger, closing the previous log file.
func setupLogging(cfg logging.Config) error {
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if loggingCleanup != nil {
		loggingCleanup()
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// Execute runs the root command.
// Errors are printed once, in CLI form.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
		// PersistentPostRunE is skipped when RunE fails.
		_ = stopProfilingAndLogging(cmd, nil)
	}
	return err
}

// printError prints err to w. Structured errors get code and hint lines.
func printError(w io.Writer, err error) {
	if werrors.GetCode(err) == "" {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprint(w, werrors.FormatForCLI(err))
}
