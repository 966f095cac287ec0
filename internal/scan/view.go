package scan

// View is the rendering surface driven by the controller.
// Implementations are called from the controller's goroutine only.
type View interface {
	// Upload prompt region
	ShowUploadPrompt(visible bool)
	SetDragActive(active bool)
	ClearFileInput()

	// Preview region
	ShowPreview(p *Preview)
	HidePreview()

	// Analyze trigger
	SetAnalyzeEnabled(enabled bool)
	SetAnalyzing(loading bool)

	// Results region
	SetDiagnosis(label string)
	SetIcon(icon Icon)
	SetConfidence(text string, meterPercent float64, band Band)
	SetProbabilities(rows []ProbabilityRow)
	ShowResults(visible bool)
	ScrollToResults()

	// Error banner
	ShowError(message string)
	HideError()
}

// StateView records view flags in memory. It backs one-shot CLI runs and tests.
type StateView struct {
	UploadPromptVisible bool
	DragActive          bool
	FileInputCleared    int

	PreviewVisible bool
	Preview        *Preview

	AnalyzeEnabled bool
	Analyzing      bool

	Diagnosis      string
	Icon           Icon
	ConfidenceText string
	MeterPercent   float64
	Band           Band
	Probabilities  []ProbabilityRow
	ResultsVisible bool
	Scrolls        int

	ErrorVisible bool
	ErrorText    string
}

// NewStateView returns a view in the initial (idle) state
func NewStateView() *StateView {
	return &StateView{UploadPromptVisible: true}
}

func (v *StateView) ShowUploadPrompt(visible bool) { v.UploadPromptVisible = visible }
func (v *StateView) SetDragActive(active bool)     { v.DragActive = active }
func (v *StateView) ClearFileInput()               { v.FileInputCleared++ }

func (v *StateView) ShowPreview(p *Preview) {
	v.Preview = p
	v.PreviewVisible = true
}

func (v *StateView) HidePreview() {
	v.Preview = nil
	v.PreviewVisible = false
}

func (v *StateView) SetAnalyzeEnabled(enabled bool) { v.AnalyzeEnabled = enabled }
func (v *StateView) SetAnalyzing(loading bool)      { v.Analyzing = loading }
func (v *StateView) SetDiagnosis(label string)      { v.Diagnosis = label }
func (v *StateView) SetIcon(icon Icon)              { v.Icon = icon }

func (v *StateView) SetConfidence(text string, meterPercent float64, band Band) {
	v.ConfidenceText = text
	v.MeterPercent = meterPercent
	v.Band = band
}

// SetProbabilities replaces the list; rows are copied so callers may reuse the slice
func (v *StateView) SetProbabilities(rows []ProbabilityRow) {
	v.Probabilities = append(v.Probabilities[:0:0], rows...)
}

func (v *StateView) ShowResults(visible bool) { v.ResultsVisible = visible }
func (v *StateView) ScrollToResults()         { v.Scrolls++ }

func (v *StateView) ShowError(message string) {
	v.ErrorText = message
	v.ErrorVisible = true
}

func (v *StateView) HideError() { v.ErrorVisible = false }

// State derives the UI state from the recorded flags
func (v *StateView) State() UIState {
	switch {
	case v.Analyzing:
		return StateAnalyzing
	case v.ErrorVisible:
		return StateError
	case v.ResultsVisible:
		return StateResults
	case v.PreviewVisible:
		return StatePreviewing
	default:
		return StateIdle
	}
}
