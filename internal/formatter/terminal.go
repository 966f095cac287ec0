package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yildizm/ScanSight/internal/scan"
	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter
func NewTerminal(color, emoji bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(report *Report) ([]byte, error) {
	p, err := report.Presentation()
	if err != nil {
		return nil, err
	}

	var b strings.Builder

	f.writeHeader(&b)

	if report.File != nil {
		f.writeImage(&b, report.File, report.Preview)
	}

	f.writeDiagnosis(&b, p)
	f.writeConfidence(&b, report.Result.Confidence, p)

	if len(p.Rows) > 0 {
		f.writeProbabilities(&b, p.Rows)
	}

	if report.RequestID != "" {
		fmt.Fprintf(&b, "Request %s", report.RequestID)
		if report.Duration > 0 {
			fmt.Fprintf(&b, " completed in %s", report.Duration.Round(time.Millisecond))
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

// writeHeader writes a boxed title
func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "Scan Analysis"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

// writeImage writes the file details and, when available, the thumbnail
func (f *terminalFormatter) writeImage(b *strings.Builder, file *scan.SelectedFile, preview *scan.Preview) {
	b.WriteString(getSymbol("image", f.opts) + " Image\n")

	items := []termfmt.TreeItem{
		{Label: "File", Value: file.Name},
		{Label: "Type", Value: file.MIME},
		{Label: "Size", Value: formatBytes(file.Size)},
	}
	if preview != nil {
		items = append(items, termfmt.TreeItem{
			Label: "Dimensions",
			Value: fmt.Sprintf("%dx%d (%s)", preview.Width, preview.Height, preview.Format),
		})
	}
	items[len(items)-1].Last = true

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")

	if preview != nil && len(preview.Art) > 0 {
		for _, row := range preview.Art {
			b.WriteString("  " + row + "\n")
		}
		b.WriteString("\n")
	}
}

// writeDiagnosis writes the predicted label with its icon
func (f *terminalFormatter) writeDiagnosis(b *strings.Builder, p *scan.Presentation) {
	b.WriteString(getSymbol("brain", f.opts) + " Diagnosis\n")
	fmt.Fprintf(b, "└─ %s %s\n\n", getSymbol(p.Icon.EmojiKey(), f.opts), p.Diagnosis)
}

// writeConfidence writes the confidence bar and band
func (f *terminalFormatter) writeConfidence(b *strings.Builder, confidence float64, p *scan.Presentation) {
	b.WriteString(getSymbol("statistics", f.opts) + " Confidence\n")

	bar := termfmt.CreateConfidenceBar(clamp01(confidence), f.opts)
	fmt.Fprintf(b, "└─ %s %s (%s)\n\n", bar, p.ConfidenceText, bandDescription(p.Band))
}

// writeProbabilities writes the distribution in received order
func (f *terminalFormatter) writeProbabilities(b *strings.Builder, rows []scan.ProbabilityRow) {
	b.WriteString(getSymbol("probability", f.opts) + " Probabilities\n")

	items := make([]termfmt.TreeItem, 0, len(rows))
	for i, row := range rows {
		items = append(items, termfmt.TreeItem{
			Label: row.Label,
			Value: row.Percent,
			Last:  i == len(rows)-1,
		})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
