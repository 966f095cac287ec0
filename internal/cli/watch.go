package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/dropzone"
	"github.com/yildizm/ScanSight/internal/emoji"
)

var (
	watchSettle time.Duration
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Analyze images dropped into a folder",
		Long: `Watch a folder and analyze every image copied or saved into it.

A file counts as dropped once it has stopped changing for the settle delay.
Only the first file of each drop is analyzed and the report is printed with the selected
output format. Press Ctrl+C to stop watching.

Examples:
  scansight watch ~/Scans/inbox
  scansight watch --settle 2s -o json ./incoming`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&watchSettle, "settle", 0, "quiet period before a file counts as dropped (default: watch.settle_delay)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	dir := cfg.Watch.DropDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no folder to watch: pass one or set watch.drop_dir")
	}
	if watchSettle > 0 {
		cfg.Watch.SettleDelay = watchSettle
	}

	s, err := newServices(cfg, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := newRunner(s)
	if err != nil {
		return err
	}

	watcher, err := newDropWatcher(cfg, dir, s.log)
	if err != nil {
		return err
	}
	defer watcher.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "%s Watching %s for scans (Ctrl+C to stop)\n", emoji.GetEmoji("folder"), watcher.Dir())

	return runWatchLoop(cmd.Context(), watcher, r, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runWatchLoop runs the main watch loop with signal handling
func runWatchLoop(parent context.Context, watcher *dropzone.Watcher, r *runner, out, errOut io.Writer) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Set up signal handling for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()

	events := watcher.Events()
	for {
		select {
		case <-signals:
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
			}
			cancel()

		case event, ok := <-events:
			if !ok {
				return <-done
			}
			handleDropEvent(ctx, r, event, out, errOut)
		}
	}
}

// handleDropEvent analyzes the first readable file of a drop; the rest are ignored
func handleDropEvent(ctx context.Context, r *runner, event dropzone.Event, out, errOut io.Writer) {
	switch event.Kind {
	case dropzone.DragOver:
		r.ctrl.DragOver()
		if isVerbose() {
			fmt.Fprintf(errOut, "%s Receiving file...\n", emoji.GetEmoji("hourglass"))
		}
		return
	case dropzone.DragLeave:
		r.ctrl.DragLeave()
		return
	}

	if len(event.Paths) == 0 {
		r.ctrl.DragLeave()
		return
	}

	candidates, errs := candidatesFromPaths(event.Paths)
	if len(candidates) == 0 {
		r.ctrl.DragLeave()
		fmt.Fprintln(errOut, describeFailure(filepath.Base(event.Paths[0]), errs[0]))
		return
	}

	name := candidates[0].Name
	if isVerbose() && len(event.Paths) > 1 {
		fmt.Fprintf(errOut, "%s Analyzing %s, ignoring %d other dropped file(s)\n", emoji.GetEmoji("info"), name, len(event.Paths)-1)
	}

	report, err := r.run(ctx, candidates, true)
	if err != nil {
		fmt.Fprintln(errOut, describeFailure(name, err))
		return
	}

	if err := writeReport(out, report, ""); err != nil {
		fmt.Fprintln(errOut, describeFailure(name, err))
	}
}
