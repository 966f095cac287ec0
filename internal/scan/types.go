package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Upload limits mirrored by the prediction service
const (
	MaxUploadBytes int64 = 16 * 1024 * 1024
)

// AcceptedTypes lists the MIME types the client will submit
var AcceptedTypes = []string{"image/png", "image/jpeg", "image/jpg"}

// Candidate is a file offered by the picker or a drop, not yet validated
type Candidate struct {
	Name string
	MIME string
	Size int64

	open func() (io.ReadCloser, error)
}

// NewCandidate creates an in-memory candidate. An empty mime is sniffed from data.
func NewCandidate(name, mime string, data []byte) Candidate {
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}
	return Candidate{
		Name: name,
		MIME: mime,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// CandidateFromPath stats and sniffs a file on disk without reading all of it
func CandidateFromPath(path string) (Candidate, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Candidate{}, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory, not an image file", cleanPath)
	}

	mtype, err := mimetype.DetectFile(cleanPath)
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to detect file type: %w", err)
	}

	return Candidate{
		Name: filepath.Base(cleanPath),
		MIME: mtype.String(),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) {
			// #nosec G304 - path chosen by the user
			return os.Open(cleanPath)
		},
	}, nil
}

// ReadAll loads at most limit bytes of the candidate's content
func (c Candidate) ReadAll(limit int64) ([]byte, error) {
	if c.open == nil {
		return nil, fmt.Errorf("candidate %q has no content", c.Name)
	}

	rc, err := c.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file grew beyond %d bytes while reading", limit)
	}
	return data, nil
}

// SelectedFile is the validated file owned by the controller
type SelectedFile struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// PredictionResult is the successful payload of the prediction service
type PredictionResult struct {
	Prediction       string        `json:"prediction"`
	Confidence       float64       `json:"confidence"`
	AllProbabilities Probabilities `json:"all_probabilities"`
}

// ClassProbability is one entry of the probability distribution
type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Probabilities keeps the class distribution in the order it was received
type Probabilities []ClassProbability

// UnmarshalJSON decodes a JSON object preserving key order.
// A repeated key keeps its first position and takes the last value.
func (p *Probabilities) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("all_probabilities: expected object, got %v", tok)
	}

	var out Probabilities
	seen := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("all_probabilities: unexpected key %v", keyTok)
		}

		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("all_probabilities[%q]: %w", key, err)
		}

		if idx, dup := seen[key]; dup {
			out[idx].Probability = value
			continue
		}
		seen[key] = len(out)
		out = append(out, ClassProbability{Label: key, Probability: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

// MarshalJSON encodes the distribution as a JSON object in list order
func (p Probabilities) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}

	var b bytes.Buffer
	b.WriteByte('{')
	for i, cp := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(cp.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cp.Probability)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Preview is the displayable form of a selected image
type Preview struct {
	Name   string
	Format string
	Width  int
	Height int
	// Art holds the thumbnail rendered as terminal rows; empty when disabled
	Art []string
}

// UIState is derived from view flags; it is never stored by the controller
type UIState int

const (
	StateIdle UIState = iota
	StatePreviewing
	StateAnalyzing
	StateResults
	StateError
)

func (s UIState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateAnalyzing:
		return "analyzing"
	case StateResults:
		return "results"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
