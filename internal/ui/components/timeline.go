package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// TimelineEntry is one analysis finished during the session
type TimelineEntry struct {
	Time    time.Time
	File    string
	Outcome string
	Failed  bool
}

// SessionTimeline lists the most recent analyses, newest first
type SessionTimeline struct {
	Title   string
	Entries []TimelineEntry
	Width   int
	Limit   int
}

// NewSessionTimeline creates a new timeline
func NewSessionTimeline(title string, width, limit int) *SessionTimeline {
	return &SessionTimeline{
		Title: title,
		Width: width,
		Limit: limit,
	}
}

// Add records an entry, dropping the oldest beyond Limit
func (t *SessionTimeline) Add(entry TimelineEntry) {
	t.Entries = append([]TimelineEntry{entry}, t.Entries...)
	if t.Limit > 0 && len(t.Entries) > t.Limit {
		t.Entries = t.Entries[:t.Limit]
	}
}

// Render renders the timeline; an empty timeline renders nothing
func (t *SessionTimeline) Render() string {
	if len(t.Entries) == 0 {
		return ""
	}

	content := []string{lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(t.Title)}

	for _, e := range t.Entries {
		color := successColor
		if e.Failed {
			color = errorColor
		}
		line := fmt.Sprintf("%s  %s  %s",
			lipgloss.NewStyle().Foreground(secondaryColor).Render(e.Time.Format("15:04:05")),
			e.File,
			lipgloss.NewStyle().Foreground(color).Render(e.Outcome))
		content = append(content, line)
	}

	joined := lipgloss.JoinVertical(lipgloss.Left, content...)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(t.Width).
		Render(joined)
}
