package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/ScanSight/internal/dropzone"
	"github.com/yildizm/ScanSight/internal/emoji"
	"github.com/yildizm/ScanSight/internal/scan"
	"github.com/yildizm/ScanSight/internal/ui/components"
)

// Options configures the interactive app
type Options struct {
	// InitialPath is selected on startup when set
	InitialPath string

	// Drops enables drag-and-drop; DropDir is shown in the upload prompt
	Drops   <-chan dropzone.Event
	DropDir string
}

// App is the bubbletea host of the upload/analyze controller.
// It implements scan.View on top of an embedded StateView and scan.Scheduler with tea.Tick.
type App struct {
	*scan.StateView

	controller *scan.Controller
	styles     *Styles
	ctx        context.Context
	cancel     context.CancelFunc

	drops       <-chan dropzone.Event
	dropDir     string
	initialPath string

	input     []rune
	scheduled []tea.Cmd

	meter         *components.ConfidenceMeter
	probabilities *components.ProbabilityList
	timeline      *components.SessionTimeline
	spinner       *components.Spinner

	width    int
	height   int
	quitting bool

	// resultsPinned starts the view at the results panel when everything does not fit
	resultsPinned bool
}

// NewApp creates the app and its controller
func NewApp(predictor scan.Predictor, decoder scan.Decoder, config *scan.Config, opts Options) (*App, error) {
	if config == nil {
		config = scan.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		StateView:     scan.NewStateView(),
		styles:        GetStyles(),
		ctx:           ctx,
		cancel:        cancel,
		drops:         opts.Drops,
		dropDir:       opts.DropDir,
		initialPath:   opts.InitialPath,
		meter:         components.NewConfidenceMeter(30),
		probabilities: components.NewProbabilityList(emoji.GetEmoji("probability")+" Class Probabilities", 60),
		timeline:      components.NewSessionTimeline(emoji.GetEmoji("history")+" This Session", 60, 5),
		spinner:       components.NewSpinner("Analyzing scan..."),
	}

	cfg := *config
	cfg.Scheduler = a

	controller, err := scan.NewController(a, predictor, decoder, &cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	a.controller = controller

	return a, nil
}

// Controller returns the hosted controller
func (a *App) Controller() *scan.Controller {
	return a.controller
}

// Selected returns the file the controller holds, if any
func (a *App) Selected() *scan.SelectedFile {
	return a.controller.Selected()
}

// Input returns the current contents of the path prompt
func (a *App) Input() string {
	return string(a.input)
}

// ClearFileInput clears the path prompt as well as the recorded flag
func (a *App) ClearFileInput() {
	a.StateView.ClearFileInput()
	a.input = a.input[:0]
}

// SetDiagnosis also highlights the predicted row
func (a *App) SetDiagnosis(label string) {
	a.StateView.SetDiagnosis(label)
	a.probabilities.Highlight = label
}

// SetConfidence also fills the meter
func (a *App) SetConfidence(text string, meterPercent float64, band scan.Band) {
	a.StateView.SetConfidence(text, meterPercent, band)
	a.meter.Set(text, meterPercent, band)
}

// SetProbabilities also fills the probability list
func (a *App) SetProbabilities(rows []scan.ProbabilityRow) {
	a.StateView.SetProbabilities(rows)
	a.probabilities.SetRows(rows)
}

// ShowResults unpins the results panel when it is hidden
func (a *App) ShowResults(visible bool) {
	a.StateView.ShowResults(visible)
	if !visible {
		a.resultsPinned = false
	}
}

// ShowUploadPrompt unpins the results so the prompt is back in view
func (a *App) ShowUploadPrompt(visible bool) {
	a.StateView.ShowUploadPrompt(visible)
	if visible {
		a.resultsPinned = false
	}
}

// ScrollToResults pins the results panel to the top of a short terminal
func (a *App) ScrollToResults() {
	a.StateView.ScrollToResults()
	a.resultsPinned = true
}

// Schedule implements scan.Scheduler; the tick is returned from the current Update
func (a *App) Schedule(delay time.Duration, token uint64) {
	a.scheduled = append(a.scheduled, expireAfter(delay, token))
}

// Init starts the drop subscription and the initial selection
func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.drops != nil {
		cmds = append(cmds, waitForDrop(a.drops))
	}
	if a.initialPath != "" {
		path := a.initialPath
		cmds = append(cmds, func() tea.Msg { return selectPathMsg{path: path} })
	}
	return batch(cmds)
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()

	case tea.KeyMsg:
		cmds = append(cmds, a.handleKeyPress(msg))

	case selectPathMsg:
		cmds = append(cmds, a.selectPath(msg.path))

	case decodeDoneMsg:
		_ = a.controller.ApplyPreview(msg.outcome)

	case analysisDoneMsg:
		a.handleAnalysisDone(msg.outcome)

	case errorExpiredMsg:
		a.controller.ExpireError(msg.token)

	case dropMsg:
		cmds = append(cmds, a.handleDrop(msg.event), waitForDrop(a.drops))

	case dropClosedMsg:
		a.drops = nil

	case tickMsg:
		if a.Analyzing {
			a.spinner.Tick()
			cmds = append(cmds, tick())
		}
	}

	cmds = append(cmds, a.scheduled...)
	a.scheduled = nil

	return a, batch(cmds)
}

// batch drops nil commands and returns nil when nothing is left
func batch(cmds []tea.Cmd) tea.Cmd {
	valid := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
		return tea.Batch(valid...)
	}
}

// handleKeyPress handles keyboard input; printable keys edit the path prompt
func (a *App) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	// any key brings the prompt back into view
	a.resultsPinned = false

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		a.quitting = true
		a.cancel()
		return tea.Quit

	case tea.KeyEnter:
		if path := cleanPath(string(a.input)); path != "" {
			a.input = a.input[:0]
			return a.selectPath(path)
		}
		return a.startAnalysis()

	case tea.KeyCtrlN:
		a.controller.NewScan()

	case tea.KeyCtrlX:
		a.controller.Reset()

	case tea.KeyCtrlU:
		a.input = a.input[:0]

	case tea.KeyBackspace:
		if len(a.input) > 0 {
			a.input = a.input[:len(a.input)-1]
		}

	case tea.KeySpace:
		a.input = append(a.input, ' ')

	case tea.KeyRunes:
		a.input = append(a.input, msg.Runes...)
	}
	return nil
}

// selectPath is the file picker: the path becomes the only candidate
func (a *App) selectPath(path string) tea.Cmd {
	candidate, err := scan.CandidateFromPath(path)
	if err != nil {
		a.controller.ShowError(err.Error())
		return nil
	}

	task, _ := a.controller.SelectFiles([]scan.Candidate{candidate})
	if task == nil {
		return nil
	}
	return runDecode(a.ctx, task)
}

func (a *App) startAnalysis() tea.Cmd {
	task := a.controller.StartAnalysis()
	if task == nil {
		return nil
	}
	a.spinner.Frame = 0
	return tea.Batch(runAnalysis(a.ctx, task), tick())
}

func (a *App) handleAnalysisDone(outcome scan.AnalysisOutcome) {
	err := a.controller.FinishAnalysis(outcome)
	if outcome.File == nil {
		return
	}

	entry := components.TimelineEntry{Time: time.Now(), File: outcome.File.Name}
	if err != nil {
		entry.Failed = true
		entry.Outcome = scan.UserMessage(err)
	} else {
		entry.Outcome = fmt.Sprintf("%s (%s)", outcome.Result.Prediction, scan.FormatPercent(outcome.Result.Confidence))
	}
	a.timeline.Add(entry)
}

// handleDrop maps drop-zone events onto the controller's drag-and-drop operations
func (a *App) handleDrop(event dropzone.Event) tea.Cmd {
	switch event.Kind {
	case dropzone.DragOver:
		a.controller.DragOver()
	case dropzone.DragLeave:
		a.controller.DragLeave()
	case dropzone.Drop:
		var candidates []scan.Candidate
		var firstErr error
		for _, path := range event.Paths {
			candidate, err := scan.CandidateFromPath(path)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			candidates = append(candidates, candidate)
		}

		if len(candidates) == 0 {
			a.controller.DragLeave()
			if firstErr != nil {
				a.controller.ShowError(firstErr.Error())
			}
			return nil
		}

		task, _ := a.controller.HandleDrop(candidates)
		if task != nil {
			return runDecode(a.ctx, task)
		}
	}
	return nil
}

func (a *App) resize() {
	width := a.width - 4
	if width > 80 {
		width = 80
	}
	if width < 40 {
		width = 40
	}
	a.probabilities.Width = width
	a.timeline.Width = width
}

// cleanPath strips the quoting terminals add to dragged or pasted paths
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return strings.ReplaceAll(s, `\ `, " ")
}

// View renders the app
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	s := a.styles
	sections := []string{
		s.Title.Render(emoji.GetEmoji("brain") + " ScanSight"),
		s.Subtitle.Render("Brain MRI tumor classification"),
		"",
	}

	if a.ErrorVisible {
		sections = append(sections, s.Banner.Render(emoji.GetEmoji("error")+" "+a.ErrorText), "")
	}

	if a.UploadPromptVisible {
		sections = append(sections, a.renderUploadPrompt())
	}

	if a.PreviewVisible && a.Preview != nil {
		sections = append(sections, a.renderPreview())
	}

	sections = append(sections, a.renderPathInput(), "", a.renderTrigger())

	if a.ResultsVisible {
		results := a.renderResults()
		if a.resultsPinned && a.height > 0 && lipgloss.Height(lipgloss.JoinVertical(lipgloss.Left, sections...))+lipgloss.Height(results)+1 > a.height {
			sections = sections[:1]
		}
		sections = append(sections, "", results)
	}

	if timeline := a.timeline.Render(); timeline != "" {
		sections = append(sections, "", timeline)
	}

	sections = append(sections, "", a.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderUploadPrompt() string {
	s := a.styles

	lines := []string{
		emoji.GetEmoji("upload") + " Type or paste an image path and press Enter",
		s.Muted.Render("PNG, JPG or JPEG up to 16MB"),
	}
	if a.dropDir != "" {
		lines = append(lines, emoji.GetEmoji("folder")+" Or drop a file into "+a.dropDir)
	}

	style := s.DropZone
	if a.DragActive {
		style = s.DropZoneActive
		lines = append(lines, s.Success.Render("Receiving file..."))
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (a *App) renderPreview() string {
	s := a.styles
	p := a.Preview

	lines := []string{
		emoji.GetEmoji("image") + " " + p.Name,
		s.Muted.Render(fmt.Sprintf("%s %dx%d", strings.ToUpper(p.Format), p.Width, p.Height)),
	}
	if len(p.Art) > 0 {
		lines = append(lines, "")
		lines = append(lines, p.Art...)
	}
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (a *App) renderPathInput() string {
	return a.styles.Muted.Render("Path: ") + string(a.input) + "█"
}

func (a *App) renderTrigger() string {
	switch {
	case a.Analyzing:
		return a.spinner.Render()
	case a.AnalyzeEnabled:
		return a.styles.Button.Render("Enter  Analyze scan")
	default:
		return a.styles.ButtonDisabled.Render("Analyze scan")
	}
}

func (a *App) renderResults() string {
	s := a.styles

	diagnosisStyle := s.Warning
	if a.Icon == scan.IconReassuring {
		diagnosisStyle = s.Success
	}
	diagnosis := fmt.Sprintf("%s %s", emoji.GetEmoji(a.Icon.EmojiKey()), diagnosisStyle.Render(a.Diagnosis))

	bandColor := s.Theme.BandColor(a.Band)
	confidence := lipgloss.NewStyle().Foreground(bandColor).Render("Confidence ") + a.meter.Render()

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(emoji.GetEmoji("statistics")+" Results"),
		"",
		"Diagnosis  "+diagnosis,
		confidence,
		"",
		a.probabilities.Render(),
	)
	return s.Panel.Render(content)
}

func (a *App) renderHelp() string {
	parts := []string{
		emoji.GetEmoji("target") + " Enter: select path / analyze",
		emoji.GetEmoji("number") + " Ctrl+N: new scan",
		"Ctrl+X: remove image",
		"Ctrl+U: clear path",
		emoji.GetEmoji("door") + " Esc: quit",
	}
	return a.styles.Muted.Render(strings.Join(parts, " • "))
}

// Run starts the program and blocks until the user quits
func Run(app *App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	app.cancel()
	return err
}
