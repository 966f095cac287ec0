package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/ScanSight/internal/scan"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(report *Report) ([]byte, error) {
	p, err := report.Presentation()
	if err != nil {
		return nil, err
	}

	var b strings.Builder

	b.WriteString("# Scan Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.generatedAt().Format("2006-01-02 15:04:05"))

	f.writeSummaryTable(&b, report, p)

	if len(p.Rows) > 0 {
		f.writeProbabilityTable(&b, p.Rows)
	}

	b.WriteString("---\n")
	b.WriteString("*Report generated by ScanSight. Predictions are not a medical diagnosis.*\n")

	return []byte(b.String()), nil
}

// writeSummaryTable writes the file and prediction summary
func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, report *Report, p *scan.Presentation) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")

	if report.File != nil {
		fmt.Fprintf(b, "| File | %s |\n", escapeCell(report.File.Name))
		fmt.Fprintf(b, "| Type | %s |\n", report.File.MIME)
		fmt.Fprintf(b, "| Size | %s bytes |\n", formatNumber(int(report.File.Size)))
	}
	if report.Preview != nil {
		fmt.Fprintf(b, "| Dimensions | %dx%d |\n", report.Preview.Width, report.Preview.Height)
	}

	fmt.Fprintf(b, "| Prediction | **%s** |\n", escapeCell(p.Diagnosis))
	fmt.Fprintf(b, "| Confidence | %s (%s) |\n", p.ConfidenceText, bandDescription(p.Band))

	if report.RequestID != "" {
		fmt.Fprintf(b, "| Request ID | `%s` |\n", report.RequestID)
	}
	b.WriteString("\n")
}

// writeProbabilityTable writes the distribution in received order
func (f *markdownFormatter) writeProbabilityTable(b *strings.Builder, rows []scan.ProbabilityRow) {
	b.WriteString("## Probabilities\n\n")
	b.WriteString("| Class | Probability |\n")
	b.WriteString("|-------|-------------|\n")

	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", escapeCell(row.Label), row.Percent)
	}
	b.WriteString("\n")
}

// escapeCell keeps table cells on one line and escapes column separators
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
