package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yildizm/ScanSight/internal/config"
	"github.com/yildizm/ScanSight/internal/formatter"
	"github.com/yildizm/ScanSight/internal/history"
	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/predict"
	"github.com/yildizm/ScanSight/internal/preview"
	"github.com/yildizm/ScanSight/internal/scan"
)

// services bundles the collaborators every command builds from config
type services struct {
	cfg      *config.Config
	log      *logger.Logger
	client   *predict.Client
	decoder  *preview.Decoder
	recorder scan.Recorder
	audit    *logger.AuditLogger
}

// newServices builds the prediction client, the preview decoder and the audit recorder
func newServices(cfg *config.Config, log *logger.Logger) (*services, error) {
	if log == nil {
		log = logger.NewWithCallback("cli", isVerbose)
	}

	client, err := predict.New(cfg.ToPredict(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction client: %w", err)
	}

	decoder, err := preview.NewDecoder(cfg.ToPreview(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview decoder: %w", err)
	}

	s := &services{cfg: cfg, log: log, client: client, decoder: decoder}

	if cfg.Logging.AuditFile != "" {
		audit, err := logger.NewAuditLogger(cfg.ToAudit())
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		s.audit = audit
		s.recorder = history.NewRecorder(audit)
	}

	return s, nil
}

// controllerConfig wires the recorder and logger into the controller limits
func (s *services) controllerConfig() *scan.Config {
	cc := s.cfg.ToController()
	cc.Recorder = s.recorder
	cc.Logger = s.log
	return cc
}

// Close flushes the audit log
func (s *services) Close() {
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			s.log.Warn("Failed to close audit log: %v", err)
		}
	}
	s.log.Sync()
}

// runner drives one controller synchronously for non-interactive commands
type runner struct {
	services *services
	view     *scan.StateView
	ctrl     *scan.Controller
}

func newRunner(s *services) (*runner, error) {
	view := scan.NewStateView()
	ctrl, err := scan.NewController(view, s.client, s.decoder, s.controllerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}
	return &runner{services: s, view: view, ctrl: ctrl}, nil
}

// run selects the first candidate, decodes its preview and analyzes it.
// dropped routes the selection through the drag-and-drop entry point.
func (r *runner) run(ctx context.Context, candidates []scan.Candidate, dropped bool) (*formatter.Report, error) {
	r.ctrl.NewScan()

	var (
		task scan.DecodeTask
		err  error
	)
	if dropped {
		task, err = r.ctrl.HandleDrop(candidates)
	} else {
		task, err = r.ctrl.SelectFiles(candidates)
	}
	if err != nil {
		return nil, userError(err)
	}
	if task == nil {
		return nil, errors.New("no file selected")
	}
	if err := r.ctrl.ApplyPreview(task(ctx)); err != nil {
		return nil, userError(err)
	}

	analysis := r.ctrl.StartAnalysis()
	if analysis == nil {
		return nil, errors.New("no file selected")
	}
	outcome := analysis(ctx)
	if err := r.ctrl.FinishAnalysis(outcome); err != nil {
		return nil, userError(err)
	}

	return &formatter.Report{
		File:            r.ctrl.Selected(),
		Preview:         r.view.Preview,
		Result:          outcome.Result,
		ReassuringLabel: r.services.cfg.Upload.ReassuringLabel,
		RequestID:       outcome.RequestID,
		Duration:        outcome.Elapsed,
		GeneratedAt:     time.Now(),
	}, nil
}

// userError replaces the diagnostic error text with the banner message
func userError(err error) error {
	var scanErr *scan.Error
	if errors.As(err, &scanErr) {
		return errors.New(scan.UserMessage(err))
	}
	return err
}

// candidatesFromPaths sniffs every path; unreadable paths are returned as errors
func candidatesFromPaths(paths []string) ([]scan.Candidate, []error) {
	candidates := make([]scan.Candidate, 0, len(paths))
	var errs []error
	for _, path := range paths {
		c, err := scan.CandidateFromPath(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, errs
}
