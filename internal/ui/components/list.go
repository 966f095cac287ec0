package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/ScanSight/internal/scan"
)

// ProbabilityList renders the per-class probabilities in the order received
type ProbabilityList struct {
	Title     string
	Rows      []scan.ProbabilityRow
	Highlight string // label rendered as selected, normally the prediction
	Width     int
	BarWidth  int
}

// NewProbabilityList creates a new probability list
func NewProbabilityList(title string, width int) *ProbabilityList {
	return &ProbabilityList{
		Title:    title,
		Width:    width,
		BarWidth: 20,
	}
}

// SetRows replaces all rows
func (l *ProbabilityList) SetRows(rows []scan.ProbabilityRow) {
	l.Rows = append(l.Rows[:0:0], rows...)
}

// Render renders the list
func (l *ProbabilityList) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	normalStyle := lipgloss.NewStyle().Foreground(secondaryColor)

	content := []string{headerStyle.Render(l.Title), ""}

	if len(l.Rows) == 0 {
		content = append(content, normalStyle.Render("No probabilities reported"))
	}

	labelWidth := 0
	for _, row := range l.Rows {
		if w := lipgloss.Width(row.Label); w > labelWidth {
			labelWidth = w
		}
	}

	for _, row := range l.Rows {
		content = append(content, l.renderRow(row, labelWidth))
	}

	joined := lipgloss.JoinVertical(lipgloss.Left, content...)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(l.Width).
		Render(joined)
}

// renderRow renders a single label, bar and percentage
func (l *ProbabilityList) renderRow(row scan.ProbabilityRow, labelWidth int) string {
	value := row.Value
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(float64(l.BarWidth) * value)

	bar := lipgloss.NewStyle().Foreground(primaryColor).Render(strings.Repeat("▇", filled)) +
		lipgloss.NewStyle().Foreground(secondaryColor).Render(strings.Repeat(" ", l.BarWidth-filled))

	label := row.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(row.Label))
	line := fmt.Sprintf("%s  %s %6s", label, bar, row.Percent)

	if row.Label == l.Highlight {
		return lipgloss.NewStyle().Background(selectedColor).Foreground(primaryColor).Bold(true).Render(line)
	}
	return lipgloss.NewStyle().Foreground(secondaryColor).Render(line)
}
