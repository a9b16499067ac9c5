package monitor

import (
	"errors"
	"time"

	"change-monitor/core/scheduler"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// Result is the outcome of one run.
type Result struct {
	ID         string                `json:"id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	DryRun     bool                  `json:"dry_run"`
	Report     *scheduler.SyncReport `json:"-"`
	Commits    int                   `json:"commits"`
	Log        string                `json:"log,omitempty"`
	Archive    string                `json:"archive,omitempty"`
	Notified   bool                  `json:"notified"`
	Errors     []string              `json:"errors,omitempty"`

	errs []error
}

func (r *Result) addError(err error) {
	r.errs = append(r.errs, err)
	r.Errors = append(r.Errors, err.Error())
}

// Err joins the errors that happened after the modules ran.
func (r *Result) Err() error {
	return errors.Join(r.errs...)
}

// Outcome classifies the run: success, partial when some modules or
// post-processing steps failed, error when every module failed.
func (r *Result) Outcome() string {
	failed := len(r.Report.Failed())
	switch {
	case r.Report.Len() > 0 && failed == r.Report.Len():
		return OutcomeError
	case failed > 0 || len(r.errs) > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// Summary is the JSON view of a Result, including per-module outcomes.
type Summary struct {
	*Result
	Outcome string                   `json:"outcome"`
	Modules []scheduler.ModuleResult `json:"modules"`
}

// Summary returns the JSON view of r.
func (r *Result) Summary() Summary {
	return Summary{Result: r, Outcome: r.Outcome(), Modules: r.Report.Sorted()}
}
