package formatter

import (
	"fmt"

	"github.com/yildizm/ScanSight/internal/emoji"
	"github.com/yildizm/ScanSight/internal/scan"
	"github.com/yildizm/go-termfmt"
)

// formatBytes renders a byte count with a binary unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// getSymbol resolves a symbol through go-termfmt, falling back to the shared table
func getSymbol(key string, opts *termfmt.TerminalOptions) string {
	if !opts.Emoji {
		return emoji.Fallback(key)
	}
	if symbol := termfmt.GetEmoji(key, opts); symbol != "" {
		return symbol
	}
	return emoji.GetEmoji(key)
}

// bandDescription explains a confidence band in words
func bandDescription(band scan.Band) string {
	switch band {
	case scan.BandStrong:
		return "high confidence"
	case scan.BandCaution:
		return "moderate confidence"
	default:
		return "low confidence"
	}
}
