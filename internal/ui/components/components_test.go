package components

import (
	"strings"
	"testing"
	"time"

	"github.com/yildizm/ScanSight/internal/scan"
)

func TestConfidenceMeter_Filled(t *testing.T) {
	tests := []struct {
		percent float64
		want    int
	}{
		{0, 0},
		{50, 10},
		{85.1, 17},
		{100, 20},
		{150, 20},
		{-5, 0},
	}

	for _, tt := range tests {
		m := NewConfidenceMeter(20)
		m.Set("x", tt.percent, scan.BandStrong)
		if got := m.Filled(); got != tt.want {
			t.Errorf("Filled() at %.1f = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestConfidenceMeter_Render(t *testing.T) {
	m := NewConfidenceMeter(10)
	m.Set("85.1%", 85.1, scan.BandStrong)

	out := m.Render()
	if !strings.Contains(out, "85.1%") {
		t.Errorf("Render() missing text: %q", out)
	}
	if strings.Count(out, "█") != 8 || strings.Count(out, "░") != 2 {
		t.Errorf("Render() bar = %q", out)
	}
}

func TestBandColor(t *testing.T) {
	if BandColor(scan.BandStrong) != successColor {
		t.Error("strong band should be green")
	}
	if BandColor(scan.BandCaution) != warningColor {
		t.Error("caution band should be amber")
	}
	if BandColor(scan.BandWeak) != errorColor {
		t.Error("weak band should be red")
	}
}

func TestSpinner(t *testing.T) {
	s := NewSpinner("Analyzing")
	for i := 0; i < len(spinnerFrames); i++ {
		s.Tick()
	}
	if s.Frame != 0 {
		t.Errorf("Frame = %d, want wrap to 0", s.Frame)
	}
	if !strings.Contains(s.Render(), "Analyzing") {
		t.Error("Render() missing label")
	}
}

func TestProbabilityList_Order(t *testing.T) {
	l := NewProbabilityList("Probabilities", 60)
	l.SetRows([]scan.ProbabilityRow{
		{Label: "Glioma", Percent: "70.0%", Value: 0.7},
		{Label: "No Tumor Detected", Percent: "20.0%", Value: 0.2},
		{Label: "Meningioma", Percent: "10.0%", Value: 0.1},
	})
	l.Highlight = "Glioma"

	out := l.Render()
	last := -1
	for _, part := range []string{"Glioma", "70.0%", "No Tumor Detected", "20.0%", "Meningioma", "10.0%"} {
		idx := strings.Index(out, part)
		if idx < 0 || idx < last {
			t.Fatalf("%q missing or out of order in\n%s", part, out)
		}
		last = idx
	}
}

func TestProbabilityList_Empty(t *testing.T) {
	if out := NewProbabilityList("Probabilities", 40).Render(); !strings.Contains(out, "No probabilities reported") {
		t.Errorf("Render() = %q", out)
	}
}

func TestProbabilityList_SetRowsCopies(t *testing.T) {
	rows := []scan.ProbabilityRow{{Label: "a"}}
	l := NewProbabilityList("P", 40)
	l.SetRows(rows)
	rows[0].Label = "b"

	if l.Rows[0].Label != "a" {
		t.Error("SetRows should copy its input")
	}
}

func TestSessionTimeline(t *testing.T) {
	tl := NewSessionTimeline("Session", 60, 2)
	if tl.Render() != "" {
		t.Error("empty timeline should render nothing")
	}

	now := time.Now()
	tl.Add(TimelineEntry{Time: now, File: "a.png", Outcome: "Glioma"})
	tl.Add(TimelineEntry{Time: now, File: "b.png", Outcome: "boom", Failed: true})
	tl.Add(TimelineEntry{Time: now, File: "c.png", Outcome: "Meningioma"})

	if len(tl.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(tl.Entries))
	}
	if tl.Entries[0].File != "c.png" || tl.Entries[1].File != "b.png" {
		t.Errorf("entries = %+v, want newest first", tl.Entries)
	}
	if !strings.Contains(tl.Render(), "c.png") {
		t.Error("Render() missing newest entry")
	}
}
