package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/ScanSight/internal/scan"
)

// ConfidenceMeter renders the prediction confidence as a coloured bar
type ConfidenceMeter struct {
	Width   int
	Percent float64 // 0..100
	Text    string
	Band    scan.Band
}

// NewConfidenceMeter creates a meter of the given bar width
func NewConfidenceMeter(width int) *ConfidenceMeter {
	return &ConfidenceMeter{Width: width}
}

// Set updates the meter from the view fields
func (m *ConfidenceMeter) Set(text string, percent float64, band scan.Band) {
	m.Text = text
	m.Percent = percent
	m.Band = band
}

// Filled returns the number of filled cells
func (m *ConfidenceMeter) Filled() int {
	percent := m.Percent
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return int(float64(m.Width) * percent / 100)
}

// Render renders the meter
func (m *ConfidenceMeter) Render() string {
	fillStyle := lipgloss.NewStyle().Foreground(BandColor(m.Band)).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(secondaryColor)

	filled := m.Filled()
	bar := fillStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", m.Width-filled))

	return fmt.Sprintf("[%s] %s", bar, fillStyle.Render(m.Text))
}

// Spinner represents a spinning progress indicator
type Spinner struct {
	Frame int
	Label string
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner
func NewSpinner(label string) *Spinner {
	return &Spinner{Label: label}
}

// Tick advances the spinner animation
func (s *Spinner) Tick() {
	s.Frame = (s.Frame + 1) % len(spinnerFrames)
}

// Render renders the spinner
func (s *Spinner) Render() string {
	spinner := lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(spinnerFrames[s.Frame])
	if s.Label != "" {
		return fmt.Sprintf("%s %s", spinner, s.Label)
	}
	return spinner
}
