package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/config"
	"github.com/yildizm/ScanSight/internal/emoji"
	"github.com/yildizm/ScanSight/internal/formatter"
	"github.com/yildizm/ScanSight/internal/ui"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	noEmoji   bool
	outputFmt string
	endpoint  string

	globalConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	globalConfig = nil

	rootCmd := &cobra.Command{
		Use:   "scansight",
		Short: "Brain MRI scan analysis client",
		Long: `ScanSight submits brain MRI images to a tumour classification service
and shows the predicted class, the model's confidence and the probability of
every class.

Pick an image on the command line, type its path in the interactive view,
or drop it into a watched folder.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			return loadGlobalConfig(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format (text, json, markdown, csv)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "prediction service base URL")

	// Add subcommands
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newInteractiveCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newHealthCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// loadGlobalConfig loads the config file and layers the global flags on top
func loadGlobalConfig(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if endpoint != "" {
		cfg.Service.Endpoint = endpoint
	}
	if verbose {
		cfg.Logging.Verbose = true
	}
	verbose = cfg.Logging.Verbose
	if noColor {
		cfg.Display.ColorMode = "never"
	}
	if noEmoji {
		cfg.Display.Emoji = false
	}
	if !cmd.Flag("output").Changed && cfg.Display.DefaultFormat != "" {
		outputFmt = cfg.Display.DefaultFormat
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateOutputFormat(outputFmt); err != nil {
		return err
	}

	emoji.SetEmojiDisabled(!cfg.Display.Emoji)
	ui.ApplyColorMode(cfg.Display.ColorMode)
	if !ui.SetThemeByName(cfg.Display.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", cfg.Display.Theme, strings.Join(ui.GetAvailableThemes(), ", "))
	}

	globalConfig = cfg
	return nil
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ScanSight %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Global helpers

// GetGlobalConfig returns the loaded configuration, or defaults before loading
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

func isVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}

func isColorEnabled() bool {
	return GetGlobalConfig().Display.ColorMode != "never" && !ui.IsColorDisabled()
}

func validateOutputFormat(format string) error {
	for _, f := range formatter.Formats() {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	if strings.EqualFold(format, "md") {
		return nil
	}
	return fmt.Errorf("unsupported output format %q (available: %s)", format, strings.Join(formatter.Formats(), ", "))
}
