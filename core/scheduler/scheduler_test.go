package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"change-monitor/core/fetch"
	"change-monitor/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUnit runs fn under a module name.
type fakeUnit struct {
	name string
	fn   func(ctx context.Context) (*reconcile.ModuleReport, error)
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) Run(ctx context.Context) (*reconcile.ModuleReport, error) { return u.fn(ctx) }

func reportWith(module string, added ...string) *reconcile.ModuleReport {
	r := reconcile.NewModuleReport(module)
	for _, id := range added {
		r.Added = append(r.Added, reconcile.ChangeRecord{Module: module, Kind: reconcile.Added, ID: id})
	}
	return r
}

func TestLimiter_DoubleRelease(t *testing.T) {
	l := NewLimiter(1)
	token, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, l.InUse())

	require.NoError(t, token.Release())
	err = token.Release()

	var schedErr *SchedulingError
	require.ErrorAs(t, err, &schedErr)
	assert.ErrorIs(t, err, ErrDoubleRelease)
	assert.Equal(t, 0, l.InUse())

	// The limiter still hands out exactly one slot.
	_, err = l.Acquire(context.Background())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_MinimumCapacity(t *testing.T) {
	assert.Equal(t, 1, NewLimiter(0).Capacity())
	assert.Equal(t, 25, NewLimiter(25).Capacity())
}

func TestPool_CeilingHolds(t *testing.T) {
	const ceiling, total = 2, 10

	var active, peak atomic.Int64
	units := make([]Unit, 0, total)
	for i := 0; i < total; i++ {
		name := fmt.Sprintf("module-%02d", i)
		units = append(units, &fakeUnit{name: name, fn: func(context.Context) (*reconcile.ModuleReport, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return reportWith(name), nil
		}})
	}

	pool := NewPool(ceiling, nil)
	report, err := pool.Schedule(context.Background(), units)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int64(ceiling))
	assert.LessOrEqual(t, pool.Limiter().Peak(), ceiling)
	assert.Equal(t, 0, pool.Limiter().InUse())
	assert.Equal(t, total, report.Len())
	assert.Len(t, report.Results(), total)
	for _, res := range report.Results() {
		assert.Equal(t, Completed, res.State)
	}
}

func TestPool_FailingModuleIsolated(t *testing.T) {
	fetchErr := &fetch.FetchError{Path: "computergroups", Err: &fetch.StatusError{Status: 500}}
	units := []Unit{
		&fakeUnit{name: "computergroups", fn: func(context.Context) (*reconcile.ModuleReport, error) {
			return reconcile.NewModuleReport("computergroups"), fetchErr
		}},
		&fakeUnit{name: "categories", fn: func(context.Context) (*reconcile.ModuleReport, error) {
			return reportWith("categories", "1", "2"), nil
		}},
		&fakeUnit{name: "scripts", fn: func(context.Context) (*reconcile.ModuleReport, error) {
			return reportWith("scripts", "5"), nil
		}},
	}

	report, err := NewPool(25, nil).Schedule(context.Background(), units)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "computergroups", failed[0].Module)
	assert.Empty(t, failed[0].Report.Records())
	assert.NotEmpty(t, failed[0].Reason)
	var fe *fetch.FetchError
	assert.ErrorAs(t, failed[0].Err, &fe)

	categories, ok := report.Get("categories")
	require.True(t, ok)
	assert.Equal(t, Completed, categories.State)
	assert.Len(t, categories.Report.Added, 2)

	assert.Len(t, report.Records(), 3)
	added, changed, removed := report.Totals()
	assert.Equal(t, []int{3, 0, 0}, []int{added, changed, removed})
}

func TestPool_PanicBecomesFailure(t *testing.T) {
	units := []Unit{
		&fakeUnit{name: "broken", fn: func(context.Context) (*reconcile.ModuleReport, error) {
			panic("nil map")
		}},
		&fakeUnit{name: "fine", fn: func(context.Context) (*reconcile.ModuleReport, error) {
			return reportWith("fine"), nil
		}},
	}

	pool := NewPool(1, nil)
	report, err := pool.Schedule(context.Background(), units)
	require.NoError(t, err)

	broken, _ := report.Get("broken")
	assert.Equal(t, Failed, broken.State)
	assert.Contains(t, broken.Reason, "nil map")
	fine, _ := report.Get("fine")
	assert.Equal(t, Completed, fine.State)
	assert.Equal(t, 0, pool.Limiter().InUse())
}

func TestPool_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var units []Unit
	for i := 0; i < 3; i++ {
		units = append(units, &fakeUnit{name: fmt.Sprintf("queued-%d", i), fn: func(context.Context) (*reconcile.ModuleReport, error) {
			return nil, errors.New("must not run")
		}})
	}

	var started []string
	var mu sync.Mutex
	pool := NewPool(1, nil, WithObserver(observerFunc(func(module string) {
		mu.Lock()
		defer mu.Unlock()
		started = append(started, module)
	})))

	report, err := pool.Schedule(ctx, units)
	require.NoError(t, err)
	require.Len(t, report.Failed(), 3)
	for _, res := range report.Failed() {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
	assert.Empty(t, started)
}

func TestPool_DuplicateUnit(t *testing.T) {
	unit := &fakeUnit{name: "scripts", fn: func(context.Context) (*reconcile.ModuleReport, error) { return nil, nil }}
	_, err := NewPool(2, nil).Schedule(context.Background(), []Unit{unit, unit})

	var schedErr *SchedulingError
	require.ErrorAs(t, err, &schedErr)
	assert.ErrorIs(t, err, ErrDuplicateUnit)
}

func TestPool_NilReportIsFilled(t *testing.T) {
	unit := &fakeUnit{name: "scripts", fn: func(context.Context) (*reconcile.ModuleReport, error) { return nil, nil }}
	report, err := NewPool(2, nil).Schedule(context.Background(), []Unit{unit})
	require.NoError(t, err)

	res, _ := report.Get("scripts")
	require.NotNil(t, res.Report)
	assert.Equal(t, "scripts", res.Report.Module)
}

// observerFunc reports started units only.
type observerFunc func(module string)

func (f observerFunc) UnitStarted(module string, _ int) { f(module) }

func (f observerFunc) UnitFinished(ModuleResult, int) {}
