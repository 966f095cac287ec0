package scan

import (
	"fmt"
	"math"
)

// ReassuringLabel is the prediction that selects the positive icon
const ReassuringLabel = "No Tumor Detected"

// Confidence band thresholds, inclusive on the lower edge
const (
	StrongThreshold  = 0.85
	CautionThreshold = 0.70
)

// Icon is the result icon policy
type Icon int

const (
	IconWarning Icon = iota
	IconReassuring
)

func (i Icon) String() string {
	if i == IconReassuring {
		return "reassuring"
	}
	return "warning"
}

// EmojiKey maps the icon onto the shared emoji table
func (i Icon) EmojiKey() string {
	if i == IconReassuring {
		return "success"
	}
	return "warning"
}

// Band is the colour band of the confidence meter
type Band string

const (
	BandStrong  Band = "strong"
	BandCaution Band = "caution"
	BandWeak    Band = "weak"
)

// BandFor returns the meter band for a confidence in [0,1]
func BandFor(confidence float64) Band {
	switch {
	case confidence >= StrongThreshold:
		return BandStrong
	case confidence >= CautionThreshold:
		return BandCaution
	default:
		return BandWeak
	}
}

// IconFor selects the result icon by exact label match
func IconFor(prediction, reassuring string) Icon {
	if prediction == reassuring {
		return IconReassuring
	}
	return IconWarning
}

// Percent converts a probability to a percentage rounded to one decimal
func Percent(value float64) float64 {
	return math.Round(value*100*10) / 10
}

// FormatPercent renders a probability as "NN.N%"
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", Percent(value))
}

// ProbabilityRow is one rendered line of the probability list
type ProbabilityRow struct {
	Label   string
	Percent string
	Value   float64
}

// Presentation is the view-ready form of a prediction
type Presentation struct {
	Diagnosis      string
	Icon           Icon
	ConfidenceText string
	MeterPercent   float64
	Band           Band
	Rows           []ProbabilityRow
}

// Present maps a prediction onto display fields
func Present(result *PredictionResult, reassuring string) *Presentation {
	if reassuring == "" {
		reassuring = ReassuringLabel
	}

	meter := Percent(result.Confidence)
	if meter < 0 || math.IsNaN(meter) {
		meter = 0
	}
	if meter > 100 {
		meter = 100
	}

	rows := make([]ProbabilityRow, 0, len(result.AllProbabilities))
	for _, cp := range result.AllProbabilities {
		rows = append(rows, ProbabilityRow{
			Label:   cp.Label,
			Percent: FormatPercent(cp.Probability),
			Value:   cp.Probability,
		})
	}

	return &Presentation{
		Diagnosis:      result.Prediction,
		Icon:           IconFor(result.Prediction, reassuring),
		ConfidenceText: FormatPercent(result.Confidence),
		MeterPercent:   meter,
		Band:           BandFor(result.Confidence),
		Rows:           rows,
	}
}
