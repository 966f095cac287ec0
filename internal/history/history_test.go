package history

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/scan"
)

func writeAudit(t *testing.T, records ...scan.AnalysisRecord) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	audit := logger.NewAuditLoggerWithWriter(&buf)
	rec := NewRecorder(audit)
	for _, r := range records {
		rec.RecordAnalysis(r)
	}
	if err := audit.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf
}

func TestRecorderWritesJSONLines(t *testing.T) {
	buf := writeAudit(t,
		scan.AnalysisRecord{RequestID: "r1", FileName: "a.png", Prediction: "Glioma", Confidence: 0.85},
		scan.AnalysisRecord{RequestID: "r2", FileName: "b.png", Kind: scan.KindServerRejected, Message: "model unavailable"},
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"message":"analysis completed"`) || !strings.Contains(lines[0], `"prediction":"Glioma"`) {
		t.Errorf("unexpected success line: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"error"`) || !strings.Contains(lines[1], `"kind":"server_rejected"`) {
		t.Errorf("unexpected failure line: %s", lines[1])
	}
	if strings.Contains(lines[1], `"prediction"`) {
		t.Errorf("failure line should not carry a prediction: %s", lines[1])
	}
}

func TestReadRoundTrip(t *testing.T) {
	buf := writeAudit(t,
		scan.AnalysisRecord{
			RequestID: "r1", FileName: "a.png", MIME: "image/png", Size: 2048,
			Prediction: "Glioma", Confidence: 0.85, Duration: 1500 * time.Millisecond,
		},
		scan.AnalysisRecord{
			RequestID: "r2", FileName: "b.jpg", MIME: "image/jpeg",
			Kind: scan.KindRequestFailed, Message: "Failed to analyze image. Please try again.",
		},
	)

	records, err := Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	ok := records[0]
	if ok.RequestID != "r1" || ok.File != "a.png" || ok.Prediction != "Glioma" || ok.Failed {
		t.Errorf("record 0 = %+v", ok)
	}
	if math.Abs(ok.Confidence-0.85) > 1e-9 || ok.Size != 2048 || ok.Duration != 1500*time.Millisecond {
		t.Errorf("record 0 = %+v", ok)
	}
	if ok.Outcome() != "Glioma" {
		t.Errorf("Outcome() = %q", ok.Outcome())
	}

	failed := records[1]
	if !failed.Failed || failed.Kind != "request_failed" || failed.Outcome() != "Failed to analyze image. Please try again." {
		t.Errorf("record 1 = %+v", failed)
	}
}

func TestReadSkipsForeignLines(t *testing.T) {
	input := "not json at all\n" +
		`{"level":"info","timestamp":"2025-01-02T03:04:05Z","message":"something else"}` + "\n" +
		`{"level":"info","timestamp":"2025-01-02T03:04:06Z","message":"analysis completed","request_id":"r9","file":"x.png","prediction":"Pituitary","confidence":0.5}` + "\n"

	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 1 || records[0].RequestID != "r9" {
		t.Errorf("records = %+v", records)
	}
}

func TestReadEmpty(t *testing.T) {
	records, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestReadFileLimit(t *testing.T) {
	buf := writeAudit(t,
		scan.AnalysisRecord{RequestID: "r1", FileName: "a.png", Prediction: "Glioma"},
		scan.AnalysisRecord{RequestID: "r2", FileName: "b.png", Prediction: "Meningioma"},
		scan.AnalysisRecord{RequestID: "r3", FileName: "c.png", Prediction: "No Tumor Detected"},
	)

	path := filepath.Join(t.TempDir(), "audit.log")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	records, err := ReadFile(path, 2)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}

	all, err := ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d records, want 3", len(all))
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.log"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Prediction: "Glioma"},
		{Prediction: "Glioma"},
		{Prediction: "No Tumor Detected"},
		{Failed: true, Error: "boom"},
	}

	s := Summarize(records)
	if s.Total != 4 || s.Failed != 1 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.ByPrediction["Glioma"] != 2 || s.ByPrediction["No Tumor Detected"] != 1 {
		t.Errorf("ByPrediction = %v", s.ByPrediction)
	}
}
