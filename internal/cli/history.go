package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/emoji"
	"github.com/yildizm/ScanSight/internal/history"
)

var (
	historyLimit   int
	historySummary bool
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [audit-log]",
		Short: "Show recent analyses",
		Long: `List recent analyses from the audit log, newest first.

The audit log defaults to logging.audit_file from the configuration.

Examples:
  scansight history
  scansight history --limit 50 --summary
  scansight history -o json /var/log/scansight/audit.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of analyses to show (0 for all)")
	cmd.Flags().BoolVarP(&historySummary, "summary", "s", false, "include outcome totals")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := GetGlobalConfig().ToAudit().Filename
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no audit log configured: pass a path or set logging.audit_file")
	}
	if historyLimit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}

	records, err := history.ReadFile(path, historyLimit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s No analyses recorded yet (%s)\n", emoji.GetEmoji("info"), path)
			return nil
		}
		return err
	}

	if getOutputFormat() == "json" {
		return writeHistoryJSON(cmd.OutOrStdout(), records)
	}
	writeHistoryText(cmd.OutOrStdout(), records)
	return nil
}

func writeHistoryJSON(w io.Writer, records []history.Record) error {
	payload := struct {
		Records []history.Record `json:"records"`
		Summary *history.Summary `json:"summary,omitempty"`
	}{Records: records}
	if payload.Records == nil {
		payload.Records = []history.Record{}
	}
	if historySummary {
		s := history.Summarize(records)
		payload.Summary = &s
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeHistoryText(w io.Writer, records []history.Record) {
	fmt.Fprintf(w, "%s Recent analyses\n", emoji.GetEmoji("history"))

	if len(records) == 0 {
		fmt.Fprintln(w, "No analyses recorded yet")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Time", "File", "Outcome", "Confidence", "Duration")
	for _, r := range records {
		outcome := r.Outcome()
		confidence := "-"
		if r.Failed {
			outcome = emoji.GetEmoji("error") + " " + outcome
		} else {
			confidence = fmt.Sprintf("%.1f%%", r.Confidence*100)
		}
		t.Row(
			r.Time.Local().Format(time.DateTime),
			r.File,
			outcome,
			confidence,
			r.Duration.Round(time.Millisecond).String(),
		)
	}
	fmt.Fprintln(w, t.Render())

	if !historySummary {
		return
	}

	s := history.Summarize(records)
	fmt.Fprintf(w, "\n%s Total: %d, failed: %d\n", emoji.GetEmoji("statistics"), s.Total, s.Failed)

	labels := make([]string, 0, len(s.ByPrediction))
	for label := range s.ByPrediction {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(w, "  %s: %d\n", label, s.ByPrediction[label])
	}
}
