package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"change-monitor/core/reconcile"

	"go.uber.org/zap"
)

// Unit is one module's unit of work.
type Unit interface {
	Name() string
	Run(ctx context.Context) (*reconcile.ModuleReport, error)
}

type funcUnit struct {
	name string
	run  func(ctx context.Context) (*reconcile.ModuleReport, error)
}

func (u funcUnit) Name() string { return u.name }

func (u funcUnit) Run(ctx context.Context) (*reconcile.ModuleReport, error) { return u.run(ctx) }

// NewUnit adapts a function to Unit.
func NewUnit(name string, run func(ctx context.Context) (*reconcile.ModuleReport, error)) Unit {
	return funcUnit{name: name, run: run}
}

// Observer is notified of unit transitions. Implementations must be safe for concurrent use.
type Observer interface {
	UnitStarted(module string, inUse int)
	UnitFinished(result ModuleResult, inUse int)
}

// Pool schedules units under the ceiling of its limiter.
type Pool struct {
	limiter  *Limiter
	logger   *zap.Logger
	observer Observer
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithObserver attaches an observer to the pool.
func WithObserver(o Observer) PoolOption {
	return func(p *Pool) { p.observer = o }
}

// NewPool creates a pool with a ceiling of capacity concurrent units.
func NewPool(capacity int, logger *zap.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{limiter: NewLimiter(capacity), logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Limiter returns the limiter owned by the pool.
func (p *Pool) Limiter() *Limiter { return p.limiter }

// Schedule runs every unit and blocks until all of them are terminal.
// Unit failures are recorded in the report; the returned error is non-nil only
// for scheduling defects, in which case the report is still complete.
func (p *Pool) Schedule(ctx context.Context, units []Unit) (*SyncReport, error) {
	report := newSyncReport()
	for _, u := range units {
		if _, dup := report.Get(u.Name()); dup {
			return nil, &SchedulingError{Op: "schedule", Unit: u.Name(), Err: ErrDuplicateUnit}
		}
		report.set(u.Name(), Pending)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fatal []error
	)
	for _, u := range units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			if err := p.run(ctx, u, report); err != nil {
				mu.Lock()
				fatal = append(fatal, err)
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	return report, errors.Join(fatal...)
}

// run drives one unit through its states and returns scheduling errors only.
func (p *Pool) run(ctx context.Context, u Unit, report *SyncReport) error {
	name := u.Name()

	token, err := p.limiter.Acquire(ctx)
	if err != nil {
		// Never started: the run was cancelled while the unit was queued.
		p.complete(report, ModuleResult{Module: name, State: Failed, Err: fmt.Errorf("not started: %w", err)})
		return nil
	}

	report.set(name, Running)
	if p.observer != nil {
		p.observer.UnitStarted(name, p.limiter.InUse())
	}

	start := time.Now()
	modReport, runErr := p.invoke(ctx, u)
	res := ModuleResult{Module: name, State: Completed, Report: modReport, Duration: time.Since(start)}
	if runErr != nil {
		res.State = Failed
		res.Err = runErr
	}

	releaseErr := token.Release()
	p.complete(report, res)
	if releaseErr != nil {
		var schedErr *SchedulingError
		if errors.As(releaseErr, &schedErr) {
			schedErr.Unit = name
		}
		return releaseErr
	}
	return nil
}

// invoke calls u.Run and turns a panic into an error.
func (p *Pool) invoke(ctx context.Context, u Unit) (report *reconcile.ModuleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Unit panicked",
				zap.String("module", u.Name()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			report = reconcile.NewModuleReport(u.Name())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return u.Run(ctx)
}

func (p *Pool) complete(report *SyncReport, res ModuleResult) {
	if res.Report == nil {
		res.Report = reconcile.NewModuleReport(res.Module)
	}
	report.finish(res)

	if res.State == Failed {
		p.logger.Error("Module failed", zap.String("module", res.Module), zap.Error(res.Err))
	} else {
		p.logger.Debug("Module completed", zap.String("module", res.Module), zap.Duration("duration", res.Duration))
	}
	if p.observer != nil {
		p.observer.UnitFinished(res, p.limiter.InUse())
	}
}
