package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/ScanSight/internal/scan"
)

// Colors are defined locally to avoid an import cycle with the ui package
var (
	primaryColor   = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	successColor   = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	warningColor   = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"}
	errorColor     = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"}
	selectedColor  = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}
)

// BandColor is the meter colour for a confidence band
func BandColor(band scan.Band) lipgloss.AdaptiveColor {
	switch band {
	case scan.BandStrong:
		return successColor
	case scan.BandCaution:
		return warningColor
	default:
		return errorColor
	}
}
