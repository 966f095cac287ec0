package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/config"
	"github.com/yildizm/ScanSight/internal/dropzone"
	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/ui"
)

var (
	interactiveDropDir string
)

func newInteractiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactive [image]",
		Aliases: []string{"tui"},
		Short:   "Open the interactive scan viewer",
		Long: `Open a full-screen view for selecting, previewing and analyzing scans.

Type or paste an image path and press Enter to select it, then press Enter
again to analyze. With --drop-dir, images copied into that folder are picked
up as if they had been dropped onto the window.

Examples:
  scansight interactive
  scansight tui scan.png
  scansight interactive --drop-dir ~/Scans/inbox`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInteractive,
	}

	cmd.Flags().StringVar(&interactiveDropDir, "drop-dir", "", "folder watched for dropped images (default: watch.drop_dir)")

	return cmd
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	// stderr shares the terminal with the alt screen, so the controller stays quiet
	log := logger.Nop()
	if isVerbose() {
		log = logger.NewWithCallback("tui", isVerbose)
	}

	s, err := newServices(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := ui.Options{}
	if len(args) > 0 {
		if err := validateFilePath(args[0]); err != nil {
			return err
		}
		opts.InitialPath = args[0]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	dropDir := interactiveDropDir
	if dropDir == "" {
		dropDir = cfg.Watch.DropDir
	}
	if dropDir != "" {
		watcher, err := newDropWatcher(cfg, dropDir, log)
		if err != nil {
			return err
		}
		defer watcher.Close()

		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn("Drop folder watcher stopped: %v", err)
			}
		}()

		opts.Drops = watcher.Events()
		opts.DropDir = watcher.Dir()
	}

	app, err := ui.NewApp(s.client, s.decoder, s.controllerConfig(), opts)
	if err != nil {
		return fmt.Errorf("failed to create interactive view: %w", err)
	}

	if err := ui.Run(app); err != nil {
		return fmt.Errorf("interactive view failed: %w", err)
	}
	return nil
}

// newDropWatcher watches dir, creating it when missing
func newDropWatcher(cfg *config.Config, dir string, log *logger.Logger) (*dropzone.Watcher, error) {
	dir = config.ExpandPath(dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create drop folder %s: %w", dir, err)
	}

	watcher, err := dropzone.New(&dropzone.Config{
		Dir:         dir,
		SettleDelay: cfg.Watch.SettleDelay,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to watch drop folder: %w", err)
	}
	return watcher, nil
}
