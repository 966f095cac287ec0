package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/emoji"
	"github.com/yildizm/ScanSight/internal/formatter"
)

var (
	analyzeOutputFile string
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <image> [more images ignored]",
		Short: "Analyze a brain MRI image",
		Long: `Upload a PNG or JPEG image to the prediction service and print the result.

The image is checked locally first: only PNG and JPEG files up to 16MB are
sent. When several paths are given only the first one is analyzed.

Examples:
  scansight analyze scan.png
  scansight analyze scan.jpg --output json
  scansight analyze scan.png -o markdown --output-file report.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "write the report to a file instead of stdout")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	if err := validateFilePath(args[0]); err != nil {
		return err
	}
	if len(args) > 1 && isVerbose() {
		fmt.Fprintf(os.Stderr, "Ignoring %d additional file(s)\n", len(args)-1)
	}

	candidates, errs := candidatesFromPaths(args[:1])
	if len(errs) > 0 {
		return errs[0]
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "%s Uploading %s to %s\n", emoji.GetEmoji("upload"), candidates[0].Name, s.client.Endpoint())
	}

	report, err := r.run(ctx, candidates, false)
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), report, analyzeOutputFile)
}

// writeReport formats report with the global output format and writes it to
// outputFile, or to w when no file is given
func writeReport(w io.Writer, report *formatter.Report, outputFile string) error {
	f := formatter.Get(getOutputFormat(), isColorEnabled() && outputFile == "", !emoji.IsEmojiDisabled())

	output, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile == "" {
		_, err = w.Write(output)
		return err
	}

	if err := validateOutputFilePath(outputFile); err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, output, 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	}
	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return nil
}

func validateOutputFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}
	dir := filepath.Dir(filepath.Clean(path))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("output directory does not exist: %s", dir)
	}
	return nil
}

// describeFailure renders one failed analysis line
func describeFailure(name string, err error) string {
	return fmt.Sprintf("%s %s: %s", emoji.GetEmoji("error"), name, err)
}
