// Package history writes analysis outcomes to the audit log and reads them back.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/scan"
	"github.com/yildizm/go-logparser"
)

// Audit messages and field keys
const (
	MsgCompleted = "analysis completed"
	MsgFailed    = "analysis failed"

	keyRequestID  = "request_id"
	keyFile       = "file"
	keyMIME       = "mime"
	keySize       = "size"
	keyPrediction = "prediction"
	keyConfidence = "confidence"
	keyKind       = "kind"
	keyError      = "error_message"
	keyDuration   = "duration"
)

// Record is one analysis read back from the audit log
type Record struct {
	Time       time.Time     `json:"time"`
	RequestID  string        `json:"request_id"`
	File       string        `json:"file"`
	MIME       string        `json:"mime,omitempty"`
	Size       int64         `json:"size,omitempty"`
	Prediction string        `json:"prediction,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Failed     bool          `json:"failed"`
	Kind       string        `json:"kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Outcome is the prediction or the failure message
func (r Record) Outcome() string {
	if r.Failed {
		return r.Error
	}
	return r.Prediction
}

// Recorder adapts the audit logger to scan.Recorder
type Recorder struct {
	audit *logger.AuditLogger
}

// NewRecorder creates a recorder writing to audit
func NewRecorder(audit *logger.AuditLogger) *Recorder {
	return &Recorder{audit: audit}
}

// RecordAnalysis writes one audit line
func (r *Recorder) RecordAnalysis(rec scan.AnalysisRecord) {
	fields := []logger.Field{
		logger.F(keyRequestID, rec.RequestID),
		logger.F(keyFile, rec.FileName),
		logger.F(keyMIME, rec.MIME),
		logger.F(keySize, rec.Size),
		logger.F(keyDuration, rec.Duration.String()),
	}

	if rec.Kind != "" {
		fields = append(fields,
			logger.F(keyKind, string(rec.Kind)),
			logger.F(keyError, rec.Message),
		)
		r.audit.Record(MsgFailed, true, fields...)
		return
	}

	fields = append(fields,
		logger.F(keyPrediction, rec.Prediction),
		logger.F(keyConfidence, rec.Confidence),
	)
	r.audit.Record(MsgCompleted, false, fields...)
}

// Read parses audit lines from r in file order. Lines that are not JSON objects are skipped.
func Read(r io.Reader) ([]Record, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "{") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	parser := logparser.NewWithFormat(logparser.FormatJSON)
	entries, err := parser.ParseString(strings.Join(lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse audit log: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for i := range entries {
		if rec, ok := toRecord(&entries[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ReadFile reads the audit log at path and returns at most limit records, newest first.
// A limit of 0 returns everything.
func ReadFile(path string, limit int) ([]Record, error) {
	// #nosec G304 - path comes from configuration or the command line
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() { _ = file.Close() }()

	records, err := Read(file)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time.After(records[j].Time)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func toRecord(entry *logparser.LogEntry) (Record, bool) {
	if entry.Message != MsgCompleted && entry.Message != MsgFailed {
		return Record{}, false
	}

	rec := Record{
		Time:       entry.Timestamp,
		RequestID:  stringField(entry.Fields, keyRequestID),
		File:       stringField(entry.Fields, keyFile),
		MIME:       stringField(entry.Fields, keyMIME),
		Size:       int64(numberField(entry.Fields, keySize)),
		Prediction: stringField(entry.Fields, keyPrediction),
		Confidence: numberField(entry.Fields, keyConfidence),
		Kind:       stringField(entry.Fields, keyKind),
		Error:      stringField(entry.Fields, keyError),
	}
	rec.Failed = entry.Message == MsgFailed || strings.EqualFold(entry.Level, "error")

	if d, err := time.ParseDuration(stringField(entry.Fields, keyDuration)); err == nil {
		rec.Duration = d
	}
	return rec, true
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func numberField(fields map[string]interface{}, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Summary aggregates a set of records
type Summary struct {
	Total        int            `json:"total"`
	Failed       int            `json:"failed"`
	ByPrediction map[string]int `json:"by_prediction"`
}

// Summarize counts outcomes
func Summarize(records []Record) Summary {
	s := Summary{ByPrediction: make(map[string]int)}
	for _, r := range records {
		s.Total++
		if r.Failed {
			s.Failed++
			continue
		}
		s.ByPrediction[r.Prediction]++
	}
	return s
}
