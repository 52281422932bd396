package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opentangerine/watch/internal/config"
	"github.com/opentangerine/watch/internal/lock"
	"github.com/opentangerine/watch/internal/logging"
	"github.com/opentangerine/watch/internal/output"
	"github.com/opentangerine/watch/internal/ui"
	"github.com/opentangerine/watch/pkg/watch"
)

const (
	// changeBuffer is the number of changes queued between the watch
	// goroutine and the printer before the watch goroutine blocks.
	changeBuffer = 1024
	// faultBuffer is the number of queued errors; extra errors are dropped
	// from the printed stream but still logged.
	faultBuffer = 16
)

type watchOptions struct {
	pollInterval time.Duration
	awaitTimeout time.Duration
	closeTimeout time.Duration
	format       string
	color        string
	noColor      bool
	noLock       bool
	noFollow     bool
	wait         bool
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Print changes under a directory until interrupted",
		Long: `Watch a directory tree and print one line per change.

The directory defaults to watch.root from the configuration, or the
current directory. Subdirectories are watched too, including ones created
after the watch starts.

Text output:
  15:04:05.000 CREATE notes.txt
  15:04:05.120 MODIFY notes.txt
  15:04:06.002 DELETE notes.txt

JSON output (--format json) prints one object per line with time, op,
filename and path.

Changes go to stdout, status and errors to stderr. Press Ctrl+C to stop.`,
		Example: `  # Watch the current directory
  tangerine-watch watch

  # Watch a directory that will be created later
  tangerine-watch watch --wait ./build

  # Machine-readable output
  tangerine-watch watch --format json /srv/content | jq .filename`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", 0, "Upper bound of one native poll (default from config: 250ms)")
	cmd.Flags().DurationVar(&opts.awaitTimeout, "await-timeout", 0, "How long to wait for registration (default from config: 3s)")
	cmd.Flags().DurationVar(&opts.closeTimeout, "close-timeout", 0, "How long shutdown may take (default from config: 1s)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: text or json")
	cmd.Flags().StringVar(&opts.color, "color", "", "Color: auto, always or never")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&opts.noLock, "no-lock", false, "Allow several watches of the same root")
	cmd.Flags().BoolVar(&opts.noFollow, "no-follow", false, "Do not watch directories created after start")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "Wait without a bound for the root to appear")

	return cmd
}

// applyFlags overrides cfg with explicitly set flags.
func (o watchOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("poll-interval") {
		cfg.Watch.PollInterval = o.pollInterval.String()
	}
	if flags.Changed("await-timeout") {
		cfg.Watch.AwaitTimeout = o.awaitTimeout.String()
	}
	if flags.Changed("close-timeout") {
		cfg.Watch.CloseTimeout = o.closeTimeout.String()
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(o.format)
	}
	if flags.Changed("color") {
		cfg.Output.Color = strings.ToLower(o.color)
	}
	if o.noColor {
		cfg.Output.Color = string(ui.ColorNever)
	}
	if o.noLock {
		cfg.Watch.Lock = false
	}
	if o.noFollow {
		cfg.Watch.FollowNewDirs = false
	}
}

func runWatch(cmd *cobra.Command, args []string, opts watchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	opts.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	durations, err := cfg.ParseDurations()
	if err != nil {
		return err
	}

	root, err := cfg.ResolveRoot(dir)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if root, err = filepath.Abs(args[0]); err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
	}

	if !debugMode {
		if err := setupLogging(logging.Config{
			Level:         cfg.Log.Level,
			FilePath:      logging.DefaultLogPath(),
			MaxSizeMB:     cfg.Log.MaxSizeMB,
			MaxFiles:      cfg.Log.MaxFiles,
			WriteToStderr: true,
			StderrLevel:   "error",
		}); err != nil {
			return err
		}
	}
	// session separates interleaved runs in the shared log file
	logger := slog.Default().With(
		slog.String("cmd", "watch"),
		slog.String("session", uuid.NewString()))

	colorMode := ui.ParseColorMode(cfg.Output.Color)
	changesOut := output.New(cmd.OutOrStdout(),
		output.WithFormat(output.ParseFormat(cfg.Output.Format)),
		output.WithColor(ui.UseColor(colorMode, cmd.OutOrStdout())))
	status := output.New(cmd.ErrOrStderr(),
		output.WithColor(ui.UseColor(colorMode, cmd.ErrOrStderr())))

	if cfg.Watch.Lock {
		rootLock := lock.ForRoot(lock.DefaultDir(), root)
		if opts.wait {
			err = rootLock.Acquire(ctx)
		} else {
			err = rootLock.TryAcquire()
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		defer func() {
			if err := rootLock.Release(); err != nil {
				logger.Warn("failed to release root lock", slog.String("error", err.Error()))
			}
		}()
	}

	changes := make(chan watch.Change, changeBuffer)
	faults := make(chan error, faultBuffer)

	w := watch.New(root,
		watch.WithPollInterval(durations.PollInterval),
		watch.WithAwaitTimeout(durations.AwaitTimeout),
		watch.WithCloseTimeout(durations.CloseTimeout),
		watch.WithFollowNewDirs(cfg.Watch.FollowNewDirs),
		watch.WithRecovery(cfg.Watch.Recovery),
		watch.WithLogger(logger),
		watch.WithListener(func(c watch.Change) {
			select {
			case changes <- c:
			case <-ctx.Done():
			}
		}),
		watch.WithErrorHandler(func(err error) {
			select {
			case faults <- err:
			default:
			}
		}),
	)

	if _, err := w.Start(); err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Await has no context; closing the watch ends it early on Ctrl+C.
	stopAwait := context.AfterFunc(ctx, func() { _ = w.Close() })
	if _, statErr := os.Stat(root); errors.Is(statErr, fs.ErrNotExist) {
		status.Warningf("Waiting for %s to be created", root)
	}
	err = awaitReady(ctx, w, opts.wait)
	stopAwait()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	status.Statusf("👀", "Watching %s (Ctrl+C to stop)", w.Root())

	g, gctx := errgroup.WithContext(ctx)

	// Printer
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case c := <-changes:
				changesOut.Change(c)
			case err := <-faults:
				// The failure that ended the watch is returned, not printed.
				failure := w.Err()
				if failure != err {
					status.Fault(err)
				}
				if failure != nil {
					return failure
				}
			}
		}
	})

	// Closer
	g.Go(func() error {
		<-gctx.Done()
		return w.Close()
	})

	err = g.Wait()

	// Changes queued before Close returned were delivered; print them.
	for len(changes) > 0 {
		changesOut.Change(<-changes)
	}

	logger.Info("watch stopped", slog.Int64("delivered", w.Delivered()))
	status.Statusf("🛑", "Stopped after %d change(s)", w.Delivered())
	return err
}

// awaitReady waits for registration. With wait set, await timeouts are
// retried until ctx is done.
func awaitReady(ctx context.Context, w *watch.Watch, wait bool) error {
	for {
		_, err := w.Await()
		if err == nil || !wait || !errors.Is(err, watch.ErrAwaitTimeout) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
