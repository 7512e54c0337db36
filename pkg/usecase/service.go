// Package usecase provides application-level orchestration for CLI workflows.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"synctidy/pkg/cleaner"
	"synctidy/pkg/filelock"
	"synctidy/pkg/incidents"
	"synctidy/pkg/progress"
	"synctidy/pkg/renamelog"
	"synctidy/pkg/renamer"
	"synctidy/pkg/safepath"
)

// Options configures a Service.
type Options struct {
	// LogDir holds rename logs and lock files. Defaults to ~/logs.
	LogDir string
	// MaxSuffix bounds collision suffixes per entry.
	MaxSuffix int
	Logger    *zerolog.Logger
	Now       func() time.Time
}

// Service orchestrates command workflows without Cobra dependencies.
type Service struct {
	logDir    string
	maxSuffix int
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a use-case service.
func New(opts Options) *Service {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logDir:    opts.LogDir,
		maxSuffix: opts.MaxSuffix,
		logger:    logger,
		now:       now,
	}
}

// CleanRequest contains inputs for the clean workflow.
type CleanRequest struct {
	TargetDir  string
	DryRun     bool
	OnProgress progress.Func
}

// CleanExecution contains clean workflow outputs. LogPath is set once the
// rename log is open, so callers can point at it on later failures too.
type CleanExecution struct {
	RootDir  string
	LogPath  string
	LockPath string
	Duration time.Duration
	Result   cleaner.Result
}

// RunClean executes the clean workflow: open the rename log, lock the
// root, then run the file and folder passes. A failure after the log is
// open is also recorded in it.
func (s *Service) RunClean(req CleanRequest) (execution CleanExecution, err error) {
	start := s.now()

	logDir, err := s.resolveLogDir()
	if err != nil {
		return execution, err
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return execution, fmt.Errorf("create log directory: %w", err)
	}

	log, err := renamelog.Open(filepath.Join(logDir, renamelog.FileName(start)), renamelog.WithClock(s.now))
	if err != nil {
		return execution, err
	}
	execution.LogPath = log.Path()
	defer func() {
		if err != nil {
			if logErr := log.LogError(err); logErr != nil {
				s.logger.Warn().Err(logErr).Msg("Failed to record error in rename log")
			}
		}
		err = errors.Join(err, log.Close())
	}()

	root, err := resolveTarget(req.TargetDir)
	if err != nil {
		return execution, err
	}
	execution.RootDir = root

	execution.LockPath = filelock.PathFor(logDir, root)
	lock, err := filelock.Acquire(execution.LockPath)
	if err != nil {
		return execution, fmt.Errorf("another synctidy process is cleaning this directory: %w", err)
	}
	defer func() {
		err = errors.Join(err, lock.Close())
	}()

	r, err := renamer.New(root, renamer.Options{
		DryRun:      req.DryRun,
		MaxAttempts: s.maxSuffix,
		Sink:        log,
	})
	if err != nil {
		return execution, err
	}

	s.logger.Debug().Str("root", root).Bool("dry_run", req.DryRun).Str("log", execution.LogPath).Msg("Cleaning")

	c := cleaner.New(r, cleaner.Options{Logger: &s.logger, OnProgress: req.OnProgress})
	execution.Result, err = c.Clean()
	execution.Duration = s.now().Sub(start)
	if err != nil {
		return execution, err
	}

	return execution, nil
}

func (s *Service) resolveLogDir() (string, error) {
	if s.logDir != "" {
		return s.logDir, nil
	}

	return renamelog.DefaultDir()
}

func resolveTarget(targetDir string) (string, error) {
	info, err := os.Stat(targetDir)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", targetDir)
	}

	validator, err := safepath.New(targetDir)
	if err != nil {
		return "", fmt.Errorf("cannot create path validator: %w", err)
	}

	return validator.Root(), nil
}

// IncidentsRequest contains inputs for the incidents workflow.
type IncidentsRequest struct {
	APIKey  string
	Email   string
	BaseURL string
	Timeout time.Duration

	// Since is the first day exported. Until defaults to now; a trailing
	// partial day is not exported.
	Since time.Time
	Until time.Time

	OutputDir string

	OnRow      func(incidents.Row)
	OnDayError func(msg string)
	OnProgress progress.Func
}

// IncidentsExecution contains incidents workflow outputs.
type IncidentsExecution struct {
	ReportPath string
	Days       int
	Duration   time.Duration
	Summary    incidents.Summary
}

// RunIncidents exports every incident between Since and Until into a
// dated CSV report in OutputDir.
func (s *Service) RunIncidents(ctx context.Context, req IncidentsRequest) (IncidentsExecution, error) {
	start := s.now()

	client, err := incidents.NewClient(incidents.ClientOptions{
		APIKey:  req.APIKey,
		Email:   req.Email,
		BaseURL: req.BaseURL,
		Timeout: req.Timeout,
	})
	if err != nil {
		return IncidentsExecution{}, err
	}

	until := req.Until
	if until.IsZero() {
		until = start
	}
	if !req.Since.Before(until) {
		return IncidentsExecution{}, fmt.Errorf("since %s must be before until %s",
			req.Since.Format(time.RFC3339), until.Format(time.RFC3339))
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return IncidentsExecution{}, fmt.Errorf("create output directory: %w", err)
	}

	execution := IncidentsExecution{
		ReportPath: filepath.Join(outputDir, incidents.ReportFileName(start)),
		Days:       len(incidents.DayWindows(req.Since, until)),
	}

	execution.Summary, err = s.exportTo(ctx, client, execution.ReportPath, req, until)
	execution.Duration = s.now().Sub(start)

	return execution, err
}

func (s *Service) exportTo(ctx context.Context, lister incidents.Lister, path string, req IncidentsRequest, until time.Time) (summary incidents.Summary, err error) {
	f, err := os.Create(path)
	if err != nil {
		return summary, fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close report: %w", closeErr))
		}
	}()

	report, err := incidents.NewReportWriter(f)
	if err != nil {
		return summary, err
	}

	exporter := incidents.NewExporter(lister, report, incidents.ExporterOptions{
		Logger:     &s.logger,
		Now:        s.now,
		OnProgress: req.OnProgress,
		OnRow:      req.OnRow,
		OnDayError: req.OnDayError,
	})

	summary, err = exporter.Export(ctx, req.Since, until)
	if err != nil {
		return summary, err
	}

	return summary, report.Flush()
}
