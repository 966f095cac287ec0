package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/ScanSight/internal/scan"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// Report is one finished analysis ready for output
type Report struct {
	File            *scan.SelectedFile
	Preview         *scan.Preview
	Result          *scan.PredictionResult
	ReassuringLabel string
	RequestID       string
	Duration        time.Duration
	GeneratedAt     time.Time
}

// Presentation maps the result onto display fields
func (r *Report) Presentation() (*scan.Presentation, error) {
	if r == nil || r.Result == nil {
		return nil, fmt.Errorf("no prediction result to format")
	}
	return scan.Present(r.Result, r.ReassuringLabel), nil
}

func (r *Report) generatedAt() time.Time {
	if r.GeneratedAt.IsZero() {
		return time.Now()
	}
	return r.GeneratedAt
}

// Get returns the formatter for format, defaulting to terminal text
func Get(format string, color, emoji bool) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return NewJSON()
	case "markdown", "md":
		return NewMarkdown()
	case "csv":
		return NewCSV()
	default:
		return NewTerminal(color, emoji)
	}
}

// Formats lists the accepted --output values
func Formats() []string {
	return []string{"text", "json", "markdown", "csv"}
}
