package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/ScanSight/internal/dropzone"
	"github.com/yildizm/ScanSight/internal/scan"
)

// Message types fed back into the event loop
type (
	selectPathMsg struct {
		path string
	}

	decodeDoneMsg struct {
		outcome scan.DecodeOutcome
	}

	analysisDoneMsg struct {
		outcome scan.AnalysisOutcome
	}

	errorExpiredMsg struct {
		token uint64
	}

	dropMsg struct {
		event dropzone.Event
	}

	dropClosedMsg struct{}

	tickMsg time.Time
)

// runDecode executes a decode task off the event loop
func runDecode(ctx context.Context, task scan.DecodeTask) tea.Cmd {
	return func() tea.Msg {
		return decodeDoneMsg{outcome: task(ctx)}
	}
}

// runAnalysis executes an analysis task off the event loop
func runAnalysis(ctx context.Context, task scan.AnalysisTask) tea.Cmd {
	return func() tea.Msg {
		return analysisDoneMsg{outcome: task(ctx)}
	}
}

// waitForDrop delivers the next drop-zone event
func waitForDrop(events <-chan dropzone.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return dropClosedMsg{}
		}
		return dropMsg{event: event}
	}
}

// expireAfter delivers errorExpiredMsg once delay has passed
func expireAfter(delay time.Duration, token uint64) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return errorExpiredMsg{token: token}
	})
}

// tick drives the spinner while a request is in flight
func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
