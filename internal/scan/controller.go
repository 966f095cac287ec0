package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yildizm/ScanSight/internal/logger"
)

// DefaultErrorDisplay is how long an error banner stays visible
const DefaultErrorDisplay = 5 * time.Second

// Predictor submits a selected file to the prediction service
type Predictor interface {
	Predict(ctx context.Context, file *SelectedFile) (*PredictionResult, error)
}

// Decoder turns a selected file into a displayable preview
type Decoder interface {
	Decode(ctx context.Context, file *SelectedFile) (*Preview, error)
}

// Scheduler delivers ExpireError(token) back to the controller after delay
type Scheduler interface {
	Schedule(delay time.Duration, token uint64)
}

// Recorder receives one record per finished analysis
type Recorder interface {
	RecordAnalysis(rec AnalysisRecord)
}

// AnalysisRecord describes a finished analysis for auditing
type AnalysisRecord struct {
	RequestID  string
	FileName   string
	MIME       string
	Size       int64
	Prediction string
	Confidence float64
	Kind       ErrorKind
	Message    string
	Duration   time.Duration
}

// Config holds controller limits and collaborators
type Config struct {
	MaxBytes        int64
	AcceptedTypes   []string
	ReassuringLabel string
	ErrorDisplay    time.Duration

	Scheduler Scheduler
	Recorder  Recorder
	Logger    *logger.Logger
}

// DefaultConfig returns the limits enforced by the prediction service
func DefaultConfig() *Config {
	return &Config{
		MaxBytes:        MaxUploadBytes,
		AcceptedTypes:   append([]string(nil), AcceptedTypes...),
		ReassuringLabel: ReassuringLabel,
		ErrorDisplay:    DefaultErrorDisplay,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be greater than 0")
	}
	if len(c.AcceptedTypes) == 0 {
		return fmt.Errorf("accepted_types must not be empty")
	}
	if c.ErrorDisplay < 0 {
		return fmt.Errorf("error_display must be non-negative")
	}
	return nil
}

// DecodeTask decodes the selected file off the event loop
type DecodeTask func(ctx context.Context) DecodeOutcome

// DecodeOutcome is applied with Controller.ApplyPreview
type DecodeOutcome struct {
	generation uint64
	Preview    *Preview
	Err        error
}

// AnalysisTask performs the prediction request off the event loop
type AnalysisTask func(ctx context.Context) AnalysisOutcome

// AnalysisOutcome is applied with Controller.FinishAnalysis
type AnalysisOutcome struct {
	RequestID string
	File      *SelectedFile
	Result    *PredictionResult
	Err       error
	Elapsed   time.Duration
}

// Controller is the upload/analyze state machine.
// It is not safe for concurrent use; tasks it returns may run on any goroutine.
type Controller struct {
	view      View
	predictor Predictor
	decoder   Decoder
	config    *Config
	log       *logger.Logger

	selected   *SelectedFile
	generation uint64
	analyzing  bool
	errorToken uint64
	lastResult *PredictionResult
}

// NewController creates a controller and puts the view in its initial state
func NewController(view View, predictor Predictor, decoder Decoder, config *Config) (*Controller, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if view == nil || predictor == nil || decoder == nil {
		return nil, fmt.Errorf("view, predictor and decoder are required")
	}

	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}

	c := &Controller{
		view:      view,
		predictor: predictor,
		decoder:   decoder,
		config:    config,
		log:       log.WithComponent("controller"),
	}

	view.ShowUploadPrompt(true)
	view.HidePreview()
	view.SetAnalyzeEnabled(false)
	view.ShowResults(false)
	view.HideError()

	return c, nil
}

// Selected returns the currently selected file, if any
func (c *Controller) Selected() *SelectedFile {
	return c.selected
}

// LastResult returns the most recently rendered prediction
func (c *Controller) LastResult() *PredictionResult {
	return c.lastResult
}

// Analyzing reports whether a prediction request is in flight
func (c *Controller) Analyzing() bool {
	return c.analyzing
}

// DragOver marks the upload prompt as an active drop target
func (c *Controller) DragOver() {
	c.view.SetDragActive(true)
}

// DragLeave clears the drop target indication
func (c *Controller) DragLeave() {
	c.view.SetDragActive(false)
}

// HandleDrop clears the drop indication and processes the dropped files
func (c *Controller) HandleDrop(files []Candidate) (DecodeTask, error) {
	c.view.SetDragActive(false)
	return c.SelectFiles(files)
}

// SelectFiles validates the first candidate and, on success, stores it and
// returns the preview decode task. Validation failures show the error banner.
func (c *Controller) SelectFiles(files []Candidate) (DecodeTask, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		c.log.Debug("Ignoring %d additional file(s)", len(files)-1)
	}

	candidate := files[0]
	if err := c.validate(candidate); err != nil {
		c.log.DebugWithFields("Rejected candidate", []logger.Field{
			logger.F("name", candidate.Name),
			logger.F("mime", candidate.MIME),
			logger.F("size", candidate.Size),
		})
		c.ShowError(UserMessage(err))
		return nil, err
	}

	data, err := candidate.ReadAll(c.config.MaxBytes)
	if err != nil {
		decodeErr := NewErrorWithCause(KindDecodeFailed, MsgDecodeFailed, err)
		c.log.Warn("Failed to read %s: %v", candidate.Name, err)
		c.Reset()
		c.ShowError(decodeErr.Message)
		return nil, decodeErr
	}

	file := &SelectedFile{
		Name: candidate.Name,
		MIME: candidate.MIME,
		Size: int64(len(data)),
		Data: data,
	}
	c.selected = file
	c.generation++
	generation := c.generation

	c.log.InfoWithFields("Selected file", []logger.Field{
		logger.F("name", file.Name),
		logger.F("mime", file.MIME),
		logger.F("size", file.Size),
	})

	decoder := c.decoder
	return func(ctx context.Context) DecodeOutcome {
		preview, err := decoder.Decode(ctx, file)
		return DecodeOutcome{generation: generation, Preview: preview, Err: err}
	}, nil
}

// validate applies the MIME check then the size check
func (c *Controller) validate(candidate Candidate) error {
	accepted := false
	for _, t := range c.config.AcceptedTypes {
		if candidate.MIME == t {
			accepted = true
			break
		}
	}
	if !accepted {
		return NewError(KindInvalidType, MsgInvalidType)
	}

	if candidate.Size > c.config.MaxBytes {
		return NewError(KindTooLarge, MsgTooLarge)
	}

	return nil
}

// ApplyPreview shows a finished decode. Outcomes from superseded selections are dropped.
func (c *Controller) ApplyPreview(outcome DecodeOutcome) error {
	if outcome.generation != c.generation || c.selected == nil {
		c.log.Debug("Discarding stale preview")
		return nil
	}

	if outcome.Err != nil {
		err := NewErrorWithCause(KindDecodeFailed, MsgDecodeFailed, outcome.Err)
		c.log.Warn("Preview decode failed for %s: %v", c.selected.Name, outcome.Err)
		c.Reset()
		c.ShowError(err.Message)
		return err
	}

	c.view.ShowPreview(outcome.Preview)
	c.view.ShowUploadPrompt(false)
	c.view.SetAnalyzeEnabled(true)
	return nil
}

// ProcessFiles selects and decodes synchronously
func (c *Controller) ProcessFiles(ctx context.Context, files []Candidate) error {
	task, err := c.SelectFiles(files)
	if err != nil || task == nil {
		return err
	}
	return c.ApplyPreview(task(ctx))
}

// StartAnalysis enters the analyzing state and returns the request task.
// It returns nil when nothing is selected or a request is already in flight.
func (c *Controller) StartAnalysis() AnalysisTask {
	if c.selected == nil || c.analyzing {
		return nil
	}

	c.analyzing = true
	c.view.SetAnalyzing(true)
	c.view.SetAnalyzeEnabled(false)
	c.HideError()

	file := c.selected
	requestID := uuid.NewString()
	predictor := c.predictor

	c.log.InfoWithFields("Submitting scan", []logger.Field{
		logger.F("request_id", requestID),
		logger.F("name", file.Name),
	})

	return func(ctx context.Context) AnalysisOutcome {
		start := time.Now()
		result, err := predictor.Predict(ContextWithRequestID(ctx, requestID), file)
		return AnalysisOutcome{
			RequestID: requestID,
			File:      file,
			Result:    result,
			Err:       err,
			Elapsed:   time.Since(start),
		}
	}
}

// FinishAnalysis renders the outcome. The trigger is restored on every path.
func (c *Controller) FinishAnalysis(outcome AnalysisOutcome) error {
	defer c.restoreTrigger()
	defer c.record(outcome)

	if outcome.Err != nil {
		c.log.WarnWithFields("Analysis failed", []logger.Field{
			logger.F("request_id", outcome.RequestID),
			logger.Error(outcome.Err),
		})
		c.ShowError(UserMessage(outcome.Err))
		return outcome.Err
	}

	if outcome.Result == nil {
		err := NewError(KindServerRejected, MsgUnknownError)
		c.ShowError(err.Message)
		return err
	}

	c.renderResults(outcome.Result)
	return nil
}

// Analyze runs a full analysis cycle synchronously
func (c *Controller) Analyze(ctx context.Context) error {
	task := c.StartAnalysis()
	if task == nil {
		return nil
	}
	return c.FinishAnalysis(task(ctx))
}

func (c *Controller) restoreTrigger() {
	c.analyzing = false
	c.view.SetAnalyzing(false)
	c.view.SetAnalyzeEnabled(c.selected != nil)
}

func (c *Controller) record(outcome AnalysisOutcome) {
	if c.config.Recorder == nil || outcome.File == nil {
		return
	}

	rec := AnalysisRecord{
		RequestID: outcome.RequestID,
		FileName:  outcome.File.Name,
		MIME:      outcome.File.MIME,
		Size:      outcome.File.Size,
		Duration:  outcome.Elapsed,
	}
	if outcome.Err != nil {
		rec.Kind = KindOf(outcome.Err)
		rec.Message = UserMessage(outcome.Err)
	} else if outcome.Result != nil {
		rec.Prediction = outcome.Result.Prediction
		rec.Confidence = outcome.Result.Confidence
	}
	c.config.Recorder.RecordAnalysis(rec)
}

// renderResults maps the prediction onto the results region
func (c *Controller) renderResults(result *PredictionResult) {
	p := Present(result, c.config.ReassuringLabel)

	c.view.SetDiagnosis(p.Diagnosis)
	c.view.SetIcon(p.Icon)
	c.view.SetConfidence(p.ConfidenceText, p.MeterPercent, p.Band)
	c.view.SetProbabilities(p.Rows)
	c.view.ShowResults(true)
	c.view.ScrollToResults()

	c.lastResult = result
}

// Reset returns the upload area to its initial state
func (c *Controller) Reset() {
	c.selected = nil
	c.generation++

	c.view.ClearFileInput()
	c.view.SetDragActive(false)
	c.view.ShowUploadPrompt(true)
	c.view.HidePreview()
	c.view.SetAnalyzeEnabled(false)
	c.HideError()
}

// NewScan hides the results and resets
func (c *Controller) NewScan() {
	c.view.ShowResults(false)
	c.lastResult = nil
	c.Reset()
}

// ShowError shows the banner and schedules its hide; later calls supersede earlier timers
func (c *Controller) ShowError(message string) {
	if message == "" {
		message = MsgAnalyzeFailed
	}

	c.errorToken++
	c.view.ShowError(message)

	if c.config.Scheduler != nil {
		c.config.Scheduler.Schedule(c.config.ErrorDisplay, c.errorToken)
	}
}

// ExpireError hides the banner if token belongs to the latest ShowError
func (c *Controller) ExpireError(token uint64) {
	if token == c.errorToken {
		c.view.HideError()
	}
}

// HideError hides the banner immediately
func (c *Controller) HideError() {
	c.view.HideError()
}

type requestIDKey struct{}

// ContextWithRequestID attaches the analysis request ID to ctx
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached by the controller
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
