package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"change-monitor/core/history"
	"change-monitor/core/logger"
	"change-monitor/core/notify"
	"change-monitor/core/reconcile"
	"change-monitor/core/runner"
	"change-monitor/core/scheduler"
	"change-monitor/core/snapshot"
	"change-monitor/core/vcs"
	"change-monitor/feature/modules"

	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is requested while another one executes.
var ErrRunInProgress = errors.New("a run is already in progress")

// Recorder persists run history. *history.Store satisfies it.
type Recorder interface {
	RecordRun(ctx context.Context, run *history.Run) error
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver stores run reports. *storage.Archive satisfies it.
type Archiver interface {
	Store(ctx context.Context, runID string, startedAt time.Time, report, log []byte) (string, error)
	Prune(ctx context.Context) (int, error)
}

// Options tune a Service.
type Options struct {
	// Concurrency caps the number of modules running at once.
	Concurrency int
	// DryRun computes changes without touching the snapshot.
	DryRun bool
	// Subject prefixes the notification subject.
	Subject string
	// HistoryRetention drops recorded runs older than this; zero keeps everything.
	HistoryRetention time.Duration
}

// Dependencies are the collaborators of a Service. Only Fetcher, Store,
// Registry and Sink are required.
type Dependencies struct {
	Fetcher  runner.Fetcher
	Store    *snapshot.Store
	Registry *modules.Registry
	Sink     vcs.Sink
	Notifier notify.Notifier
	History  Recorder
	Archive  Archiver
	Observer scheduler.Observer
	Metrics  RunObserver
}

// RunObserver receives the outcome of every run. *metrics.Metrics satisfies it.
type RunObserver interface {
	ObserveRun(result string)
}

// Service executes sync runs.
type Service struct {
	deps   Dependencies
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	running sync.Mutex
	mu      sync.RWMutex
	last    *Result
}

// NewService creates a Service.
func NewService(deps Dependencies, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Subject == "" {
		opts.Subject = "Jamf Changes"
	}
	return &Service{deps: deps, opts: opts, logger: logger, now: time.Now}
}

// Last returns the result of the latest run, or nil.
func (s *Service) Last() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Run executes one cycle over the named modules, or all modules when names is
// empty. The error is non-nil only when the run could not take place; module
// failures are reported in the Result.
func (s *Service) Run(ctx context.Context, names []string) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()
	return s.execute(ctx, names)
}

// Start validates names and runs the cycle in the background. It returns
// ErrRunInProgress without starting anything when a run is executing.
func (s *Service) Start(ctx context.Context, names []string) error {
	if _, err := s.deps.Registry.Select(names); err != nil {
		return err
	}
	if !s.running.TryLock() {
		return ErrRunInProgress
	}
	go func() {
		defer s.running.Unlock()
		if _, err := s.execute(ctx, names); err != nil {
			s.logger.Error("Background run failed", zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until the run in progress, if any, has finished.
func (s *Service) Wait() {
	s.running.Lock()
	defer s.running.Unlock()
}

func (s *Service) execute(ctx context.Context, names []string) (*Result, error) {
	selected, err := s.deps.Registry.Select(names)
	if err != nil {
		return nil, err
	}

	start := s.now()
	runLog, buf := logger.Capture(s.logger)
	run := history.NewRun(start, s.opts.DryRun)
	runLog = runLog.With(zap.String("run_id", run.ID))
	runLog.Info("Starting run", zap.Int("modules", len(selected)), zap.Bool("dry_run", s.opts.DryRun))

	if !s.opts.DryRun {
		if swept, err := s.deps.Store.Sweep(); err != nil {
			runLog.Warn("Failed to sweep snapshot", zap.Error(err))
		} else if swept > 0 {
			runLog.Info("Removed stray files", zap.Int("count", swept))
		}
	}

	units := make([]scheduler.Unit, 0, len(selected))
	for _, m := range selected {
		units = append(units, runner.New(m, s.deps.Fetcher, s.deps.Store, runLog, reconcile.Options{DryRun: s.opts.DryRun}))
	}

	var poolOpts []scheduler.PoolOption
	if s.deps.Observer != nil {
		poolOpts = append(poolOpts, scheduler.WithObserver(s.deps.Observer))
	}
	report, err := scheduler.NewPool(s.opts.Concurrency, runLog, poolOpts...).Schedule(ctx, units)
	if err != nil {
		s.observe("error")
		return nil, fmt.Errorf("schedule modules: %w", err)
	}

	res := &Result{ID: run.ID, StartedAt: start, DryRun: s.opts.DryRun, Report: report}
	if s.opts.DryRun {
		added, changed, removed := report.Totals()
		runLog.Info("Dry run complete", zap.Int("added", added), zap.Int("changed", changed), zap.Int("removed", removed))
		return s.finish(res, runLog), nil
	}

	// Changes already on disk must reach the sink even when ctx is cancelled.
	post := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		runLog.Warn("Run cancelled, committing the changes already written")
	}
	s.commit(post, res, runLog)

	res.FinishedAt = s.now()
	run.Fill(report)
	run.Commits = res.Commits
	run.FinishedAt = res.FinishedAt
	s.record(post, run, res, runLog)
	s.archive(post, run, res, runLog, buf)
	s.notify(post, res, runLog, buf)

	return s.finish(res, runLog), nil
}

func (s *Service) commit(ctx context.Context, res *Result, log *zap.Logger) {
	changes := vcs.Changes(res.Report.Records())
	commits, err := s.deps.Sink.Commit(ctx, changes)
	res.Commits = commits
	if err != nil {
		log.Error("Failed to commit changes", zap.Error(err))
		res.addError(fmt.Errorf("commit: %w", err))
	}
	if commits == 0 {
		return
	}

	narration, err := s.deps.Sink.Log(res.StartedAt)
	if err != nil {
		log.Error("Failed to read commit log", zap.Error(err))
		res.addError(fmt.Errorf("log: %w", err))
	}
	res.Log = narration

	if err := s.deps.Sink.Prune(); err != nil {
		log.Warn("Garbage collection failed", zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, run *history.Run, res *Result, log *zap.Logger) {
	if s.deps.History == nil {
		return
	}
	if err := s.deps.History.RecordRun(ctx, run); err != nil {
		log.Error("Failed to record run history", zap.Error(err))
		res.addError(fmt.Errorf("history: %w", err))
		return
	}
	if s.opts.HistoryRetention <= 0 {
		return
	}
	if n, err := s.deps.History.Prune(ctx, run.StartedAt.Add(-s.opts.HistoryRetention)); err != nil {
		log.Warn("Failed to prune run history", zap.Error(err))
	} else if n > 0 {
		log.Info("Pruned run history", zap.Int64("runs", n))
	}
}

func (s *Service) archive(ctx context.Context, run *history.Run, res *Result, log *zap.Logger, buf *logger.Buffer) {
	if s.deps.Archive == nil {
		return
	}
	report, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		res.addError(fmt.Errorf("archive: %w", err))
		return
	}
	folder, err := s.deps.Archive.Store(ctx, run.ID, run.StartedAt, report, buf.Bytes())
	if err != nil {
		log.Error("Failed to archive run", zap.Error(err))
		res.addError(fmt.Errorf("archive: %w", err))
		return
	}
	res.Archive = folder
	if _, err := s.deps.Archive.Prune(ctx); err != nil {
		log.Warn("Failed to prune archive", zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, res *Result, log *zap.Logger, buf *logger.Buffer) {
	if res.Commits == 0 {
		log.Info("Repo is clean, no email sent")
		return
	}
	if s.deps.Notifier == nil {
		return
	}

	msg := notify.Message{
		Subject: fmt.Sprintf("%s @ %s", s.opts.Subject, res.StartedAt.Format(time.ANSIC)),
		Body:    res.Log + "\n-------------------------\n" + notify.Summary(res.Report) + "\n",
		Report:  res.Report,
		Attachment: notify.Attachment{
			Name:    fmt.Sprintf("change-monitor-%s.txt", res.StartedAt.Format("20060102-150405")),
			Content: buf.Bytes(),
		},
	}
	if err := s.deps.Notifier.Notify(ctx, msg); err != nil {
		log.Error("Failed to send notification", zap.Error(err))
		res.addError(fmt.Errorf("notify: %w", err))
		return
	}
	res.Notified = true
}

func (s *Service) finish(res *Result, log *zap.Logger) *Result {
	if res.FinishedAt.IsZero() {
		res.FinishedAt = s.now()
	}
	outcome := res.Outcome()
	s.observe(outcome)
	log.Info("Completed run",
		zap.String("result", outcome),
		zap.Int("commits", res.Commits),
		zap.Int("failed_modules", len(res.Report.Failed())),
		zap.Duration("runtime", res.FinishedAt.Sub(res.StartedAt)))

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	return res
}

func (s *Service) observe(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRun(outcome)
	}
}
