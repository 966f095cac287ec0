package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// csvFormatter formats the probability distribution as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(report *Report) ([]byte, error) {
	p, err := report.Presentation()
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{
		"Rank",
		"Label",
		"Probability",
		"Percent",
		"Predicted",
	}

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, row := range p.Rows {
		record := []string{
			strconv.Itoa(i + 1),
			row.Label,
			strconv.FormatFloat(row.Value, 'f', -1, 64),
			row.Percent,
			strconv.FormatBool(row.Label == p.Diagnosis),
		}

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}
