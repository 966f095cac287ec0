package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogger_VerboseGating(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		wantInfo bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			verbose := tt.verbose
			log := NewWithWriter("test", &callbackChecker{callback: func() bool { return verbose }}, &buf)

			log.Debug("debug %d", 1)
			log.Info("info %d", 2)
			log.Warn("warn %d", 3)

			out := buf.String()
			if got := strings.Contains(out, "info 2"); got != tt.wantInfo {
				t.Errorf("info shown = %v, want %v\n%s", got, tt.wantInfo, out)
			}
			if got := strings.Contains(out, "debug 1"); got != tt.wantInfo {
				t.Errorf("debug shown = %v, want %v\n%s", got, tt.wantInfo, out)
			}
			if !strings.Contains(out, "warn 3") {
				t.Errorf("warnings should always be shown:\n%s", out)
			}
			if !strings.Contains(out, "test") {
				t.Errorf("component name missing:\n%s", out)
			}
		})
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("root", nil, &buf).WithComponent("predict")

	log.WarnWithFields("Upload failed", []Field{F("name", "brain.png"), Error(errors.New("boom"))})

	out := buf.String()
	for _, want := range []string{"predict", "Upload failed", "brain.png", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Warn("dropped")
	log.Error("dropped")
	if log.WithComponent("x").writer == nil {
		t.Error("WithComponent on Nop should stay usable")
	}
}

func TestAuditLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLoggerWithWriter(&buf)

	audit.Record("analysis completed", false, F("file", "brain.png"), Duration(1500*time.Millisecond))
	audit.Record("analysis failed", true, F("kind", "too_large"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first[AuditMessageKey] != "analysis completed" || first[AuditLevelKey] != "info" {
		t.Errorf("first = %v", first)
	}
	if first["duration"] != "1.5s" {
		t.Errorf("duration = %v, want 1.5s", first["duration"])
	}
	if _, err := time.Parse(time.RFC3339Nano, first[AuditTimeKey].(string)); err != nil {
		t.Errorf("timestamp = %v: %v", first[AuditTimeKey], err)
	}

	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if second[AuditLevelKey] != "error" {
		t.Errorf("failed records should be written at error level, got %v", second[AuditLevelKey])
	}
}

func TestNewAuditLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "audit.log")

	audit, err := NewAuditLogger(AuditConfig{Filename: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewAuditLogger() error = %v", err)
	}
	audit.Record("analysis completed", false, F("file", "brain.png"))
	if err := audit.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("audit log not written: %v", err)
	}
	if !strings.Contains(string(data), `"file":"brain.png"`) {
		t.Errorf("audit log = %s", data)
	}
}

func TestNewAuditLogger_Disabled(t *testing.T) {
	audit, err := NewAuditLogger(AuditConfig{})
	if err != nil {
		t.Fatalf("NewAuditLogger() error = %v", err)
	}
	audit.Record("analysis completed", false)
	if err := audit.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
