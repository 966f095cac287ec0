package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/config"
	"github.com/yildizm/ScanSight/internal/emoji"
	"gopkg.in/yaml.v3"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ScanSight configuration",
		Long: `Manage ScanSight configuration files and settings.

The config command provides subcommands for initializing, viewing,
validating, and locating configuration files.`,
	}

	// Add subcommands
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigPathsCommand())

	return configCmd
}

// newConfigInitCommand creates the config init subcommand
func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new ScanSight configuration file with default values.`,
		Example: `  # Create config in current directory
  scansight config init

  # Create config at specific path
  scansight config init --output ~/.config/scansight/config.yaml

  # Overwrite existing config
  scansight config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".scansight.yaml"
			}
			outputPath = config.ExpandPath(outputPath)

			// Check if file exists and not forcing
			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			if err := config.Save(config.DefaultConfig(), outputPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration file created at: %s\n", emoji.GetEmoji("success"), outputPath)
			return nil
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for config file (default: .scansight.yaml)")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	return initCmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current effective configuration after loading from all sources.

Shows the merged configuration from all sources including defaults,
config files, environment variable overrides and global flags.`,
		Example: `  # Show config in YAML format
  scansight config show

  # Show config in JSON format
  scansight config show --format json

  # Show config from specific file
  scansight --config /path/to/config.yaml config show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config to YAML: %w", err)
				}
				fmt.Fprint(out, string(data))
			default:
				return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
			}

			return nil
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")

	return showCmd
}

// newConfigValidateCommand creates the config validate subcommand
func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validate the effective ScanSight configuration.

Loading already rejects malformed YAML, bad environment overrides and
out-of-range values; this command reports the result and a short summary.`,
		Example: `  # Validate current config
  scansight config validate

  # Validate specific config file
  scansight --config /path/to/config.yaml config validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			out := cmd.OutOrStdout()

			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "%s Configuration validation failed:\n", emoji.GetEmoji("error"))
				fmt.Fprintf(out, "   %v\n", err)
				return err
			}

			fmt.Fprintf(out, "%s Configuration is valid\n", emoji.GetEmoji("success"))

			fmt.Fprintf(out, "%s Configuration summary:\n", emoji.GetEmoji("statistics"))
			fmt.Fprintf(out, "   Version: %s\n", cfg.Version)
			fmt.Fprintf(out, "   Endpoint: %s\n", cfg.Service.Endpoint)
			fmt.Fprintf(out, "   Accepted types: %d configured\n", len(cfg.Upload.AcceptedTypes))
			fmt.Fprintf(out, "   Output Format: %s\n", cfg.Display.DefaultFormat)
			if cfg.Logging.AuditFile != "" {
				fmt.Fprintf(out, "   Audit log: %s\n", config.ExpandPath(cfg.Logging.AuditFile))
			}

			return nil
		},
	}
}

// newConfigPathsCommand creates the config paths subcommand
func newConfigPathsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "paths",
		Aliases: []string{"path"},
		Short:   "Show configuration file search paths",
		Long: `Display the list of paths ScanSight searches for configuration files.

Shows the search order and indicates which files exist.`,
		Example: `  # Show config search paths
  scansight config paths`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Configuration file search paths (in priority order):\n\n", emoji.GetEmoji("folder"))

			priority := []string{"Highest", "Medium", "Lowest"}
			for i, path := range config.GetConfigPaths() {
				exists := " (not found)"
				if fileExists(path) {
					exists = " " + emoji.GetEmoji("success") + " (exists)"
				}

				fmt.Fprintf(out, "  %d. %s%s\n", i+1, path, exists)
				if i < len(priority) {
					fmt.Fprintf(out, "     Priority: %s\n", priority[i])
				}
				fmt.Fprintln(out)
			}

			// Show current config file being used
			switch {
			case cfgFile != "":
				fmt.Fprintf(out, "%s Current config file: %s\n", emoji.GetEmoji("target"), cfgFile)
			default:
				if current, found := config.FindConfigFile(); found {
					fmt.Fprintf(out, "%s Current config file: %s\n", emoji.GetEmoji("target"), current)
				} else {
					fmt.Fprintln(out, "No config file found, using defaults")
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s Environment variables with %s prefix will override file settings\n", emoji.GetEmoji("info"), config.EnvPrefix)
		},
	}
}

// Helper function to check if file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
