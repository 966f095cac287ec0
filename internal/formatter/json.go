package formatter

import (
	"encoding/json"
	"time"

	"github.com/yildizm/ScanSight/internal/scan"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(report *Report) ([]byte, error) {
	p, err := report.Presentation()
	if err != nil {
		return nil, err
	}

	output := &ReportOutput{
		Prediction:       p.Diagnosis,
		Confidence:       report.Result.Confidence,
		ConfidenceText:   p.ConfidenceText,
		Band:             string(p.Band),
		Icon:             p.Icon.String(),
		AllProbabilities: report.Result.AllProbabilities,
		RequestID:        report.RequestID,
		DurationMS:       report.Duration.Milliseconds(),
		GeneratedAt:      report.generatedAt(),
	}

	if report.File != nil {
		output.File = &FileOutput{
			Name: report.File.Name,
			MIME: report.File.MIME,
			Size: report.File.Size,
		}
	}
	if report.Preview != nil {
		output.Image = &ImageOutput{
			Format: report.Preview.Format,
			Width:  report.Preview.Width,
			Height: report.Preview.Height,
		}
	}

	return json.MarshalIndent(output, "", "  ")
}

// ReportOutput is the JSON document for one analysis
type ReportOutput struct {
	File             *FileOutput        `json:"file,omitempty"`
	Image            *ImageOutput       `json:"image,omitempty"`
	Prediction       string             `json:"prediction"`
	Confidence       float64            `json:"confidence"`
	ConfidenceText   string             `json:"confidence_text"`
	Band             string             `json:"band"`
	Icon             string             `json:"icon"`
	AllProbabilities scan.Probabilities `json:"all_probabilities"`
	RequestID        string             `json:"request_id,omitempty"`
	DurationMS       int64              `json:"duration_ms,omitempty"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// FileOutput describes the submitted file
type FileOutput struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// ImageOutput describes the decoded image
type ImageOutput struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
