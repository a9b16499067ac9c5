package scheduler

import (
	"sort"
	"sync"
	"time"

	"change-monitor/core/reconcile"
)

// State is the lifecycle state of a unit.
type State string

const (
	Pending   State = "pending"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
)

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// ModuleResult is the outcome of one unit.
type ModuleResult struct {
	Module   string                  `json:"module"`
	State    State                   `json:"state"`
	Report   *reconcile.ModuleReport `json:"report,omitempty"`
	Err      error                   `json:"-"`
	Reason   string                  `json:"reason,omitempty"`
	Duration time.Duration           `json:"duration"`
}

// SyncReport aggregates the results of one run. It is safe for concurrent use.
type SyncReport struct {
	mu      sync.RWMutex
	results map[string]*ModuleResult
	order   []string
}

func newSyncReport() *SyncReport {
	return &SyncReport{results: make(map[string]*ModuleResult)}
}

func (r *SyncReport) set(name string, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[name]; ok {
		res.State = state
		return
	}
	r.results[name] = &ModuleResult{Module: name, State: state}
}

func (r *SyncReport) finish(res ModuleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.Err != nil {
		res.Reason = res.Err.Error()
	}
	r.results[res.Module] = &res
	r.order = append(r.order, res.Module)
}

// Get returns the result of a module.
func (r *SyncReport) Get(module string) (ModuleResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[module]
	if !ok {
		return ModuleResult{}, false
	}
	return *res, true
}

// Len returns the number of scheduled modules.
func (r *SyncReport) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}

// Results returns the terminal results in completion order.
func (r *SyncReport) Results() []ModuleResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModuleResult, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.results[name])
	}
	return out
}

// Sorted returns the terminal results ordered by module name.
func (r *SyncReport) Sorted() []ModuleResult {
	out := r.Results()
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// Failed returns the failed modules ordered by name.
func (r *SyncReport) Failed() []ModuleResult {
	var out []ModuleResult
	for _, res := range r.Sorted() {
		if res.State == Failed {
			out = append(out, res)
		}
	}
	return out
}

// Records returns every ChangeRecord of completed modules, grouped per module
// in name order and in add, change, remove order within a module.
func (r *SyncReport) Records() []reconcile.ChangeRecord {
	var out []reconcile.ChangeRecord
	for _, res := range r.Sorted() {
		if res.State == Completed && res.Report != nil {
			out = append(out, res.Report.Records()...)
		}
	}
	return out
}

// Totals sums the change counts of every module.
func (r *SyncReport) Totals() (added, changed, removed int) {
	for _, res := range r.Results() {
		if res.Report == nil {
			continue
		}
		added += len(res.Report.Added)
		changed += len(res.Report.Changed)
		removed += len(res.Report.Removed)
	}
	return added, changed, removed
}
