package formatter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/ScanSight/internal/scan"
)

func sampleReport() *Report {
	return &Report{
		File: &scan.SelectedFile{Name: "brain.png", MIME: "image/png", Size: 2048},
		Preview: &scan.Preview{
			Name: "brain.png", Format: "png", Width: 64, Height: 32,
			Art: []string{"..::", "::.."},
		},
		Result: &scan.PredictionResult{
			Prediction: "Glioma",
			Confidence: 0.851,
			AllProbabilities: scan.Probabilities{
				{Label: "Glioma", Probability: 0.7},
				{Label: "No Tumor Detected", Probability: 0.2},
				{Label: "Meningioma", Probability: 0.1},
			},
		},
		RequestID:   "req-1",
		Duration:    1500 * time.Millisecond,
		GeneratedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func assertOrdered(t *testing.T, output string, parts ...string) {
	t.Helper()
	last := -1
	for _, part := range parts {
		idx := strings.Index(output, part)
		if idx < 0 {
			t.Errorf("output missing %q", part)
			continue
		}
		if idx < last {
			t.Errorf("%q appears out of order", part)
		}
		last = idx
	}
}

func TestTerminalFormatter(t *testing.T) {
	out, err := NewTerminal(false, false).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := string(out)

	for _, want := range []string{"Scan Analysis", "brain.png", "2.0 KB", "64x32", "..::", "[WRN] Glioma", "85.1%", "high confidence", "req-1"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
	assertOrdered(t, output, "70.0%", "No Tumor Detected", "20.0%", "Meningioma", "10.0%")
}

func TestTerminalFormatter_ReassuringIcon(t *testing.T) {
	report := sampleReport()
	report.Result.Prediction = "No Tumor Detected"
	report.Result.Confidence = 0.7

	out, err := NewTerminal(false, false).Format(report)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(string(out), "[OK] No Tumor Detected") {
		t.Errorf("expected reassuring icon\n%s", out)
	}
	if !strings.Contains(string(out), "moderate confidence") {
		t.Errorf("expected caution band\n%s", out)
	}
}

func TestTerminalFormatter_MinimalReport(t *testing.T) {
	report := &Report{Result: &scan.PredictionResult{Prediction: "x", Confidence: 0.1}}

	out, err := NewTerminal(false, false).Format(report)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(string(out), "Probabilities") || strings.Contains(string(out), "Image") {
		t.Errorf("empty sections should be omitted\n%s", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	out, err := NewJSON().Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded struct {
		File           FileOutput         `json:"file"`
		Prediction     string             `json:"prediction"`
		ConfidenceText string             `json:"confidence_text"`
		Band           string             `json:"band"`
		Icon           string             `json:"icon"`
		Probabilities  scan.Probabilities `json:"all_probabilities"`
		DurationMS     int64              `json:"duration_ms"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}

	if decoded.Prediction != "Glioma" || decoded.ConfidenceText != "85.1%" || decoded.Band != "strong" || decoded.Icon != "warning" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.File.Name != "brain.png" || decoded.DurationMS != 1500 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Probabilities) != 3 || decoded.Probabilities[2].Label != "Meningioma" {
		t.Errorf("probabilities = %+v", decoded.Probabilities)
	}
	assertOrdered(t, string(out), `"Glioma": 0.7`, `"No Tumor Detected": 0.2`, `"Meningioma": 0.1`)
}

func TestMarkdownFormatter(t *testing.T) {
	report := sampleReport()
	report.Result.AllProbabilities = append(report.Result.AllProbabilities, scan.ClassProbability{Label: "a|b", Probability: 0})

	out, err := NewMarkdown().Format(report)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := string(out)

	for _, want := range []string{"# Scan Analysis Report", "Generated: 2025-01-02 03:04:05", "| Prediction | **Glioma** |", "| Size | 2,048 bytes |", `| a\|b | 0.0% |`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
	assertOrdered(t, output, "| Glioma | 70.0% |", "| No Tumor Detected | 20.0% |", "| Meningioma | 10.0% |")
}

func TestCSVFormatter(t *testing.T) {
	out, err := NewCSV().Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	want := [][]string{
		{"1", "Glioma", "0.7", "70.0%", "true"},
		{"2", "No Tumor Detected", "0.2", "20.0%", "false"},
		{"3", "Meningioma", "0.1", "10.0%", "false"},
	}
	for i, row := range want {
		for j, cell := range row {
			if records[i+1][j] != cell {
				t.Errorf("record %d col %d = %q, want %q", i+1, j, records[i+1][j], cell)
			}
		}
	}
}

func TestFormatters_NilResult(t *testing.T) {
	for _, name := range Formats() {
		if _, err := Get(name, false, false).Format(&Report{}); err == nil {
			t.Errorf("%s: expected error for missing result", name)
		}
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		format string
		want   interface{}
	}{
		{"json", &jsonFormatter{}},
		{"JSON", &jsonFormatter{}},
		{"md", &markdownFormatter{}},
		{"markdown", &markdownFormatter{}},
		{"csv", &csvFormatter{}},
		{"text", &terminalFormatter{}},
		{"unknown", &terminalFormatter{}},
	}

	for _, tt := range tests {
		got := Get(tt.format, false, true)
		switch tt.want.(type) {
		case *jsonFormatter:
			if _, ok := got.(*jsonFormatter); !ok {
				t.Errorf("Get(%q) = %T", tt.format, got)
			}
		case *markdownFormatter:
			if _, ok := got.(*markdownFormatter); !ok {
				t.Errorf("Get(%q) = %T", tt.format, got)
			}
		case *csvFormatter:
			if _, ok := got.(*csvFormatter); !ok {
				t.Errorf("Get(%q) = %T", tt.format, got)
			}
		case *terminalFormatter:
			if _, ok := got.(*terminalFormatter); !ok {
				t.Errorf("Get(%q) = %T", tt.format, got)
			}
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{16 * 1024 * 1024, "16.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
