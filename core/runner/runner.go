package runner

import (
	"context"
	"errors"
	"fmt"

	"change-monitor/core/fetch"
	"change-monitor/core/logger"
	"change-monitor/core/reconcile"
	"change-monitor/core/record"

	"go.uber.org/zap"
)

// Fetcher retrieves the objects of a query. *fetch.Fetcher satisfies it.
type Fetcher interface {
	FetchAll(ctx context.Context, q fetch.Query) (*fetch.Result, error)
}

// Runner syncs one module.
type Runner struct {
	module  *Module
	fetcher Fetcher
	store   reconcile.Store
	logger  *zap.Logger
	opts    reconcile.Options
}

// New creates a Runner for module.
func New(module *Module, fetcher Fetcher, store reconcile.Store, log *zap.Logger, opts reconcile.Options) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		module:  module,
		fetcher: fetcher,
		store:   store,
		logger:  logger.WithModule(log, module.Name),
		opts:    opts,
	}
}

// Name returns the module name.
func (r *Runner) Name() string { return r.module.Name }

// Run executes one cycle. The returned report is never nil.
func (r *Runner) Run(ctx context.Context) (*reconcile.ModuleReport, error) {
	r.logger.Debug("Starting module")

	res, err := r.fetcher.FetchAll(ctx, r.module.Query)
	if err != nil {
		var fetchErr *fetch.FetchError
		if !errors.As(err, &fetchErr) {
			err = &fetch.FetchError{Path: r.module.Query.Path, Err: err}
		}
		r.logger.Error("Failed to retrieve module", zap.Error(err))
		return reconcile.NewModuleReport(r.module.Name), err
	}

	records, keep, failures := r.normalize(res)

	spec := &reconcile.Spec{
		Module: r.module.Name,
		Units:  r.module.Units(),
		Namer:  r.module.Normalizer.NameFromStored,
	}
	report, err := reconcile.DiffAndApply(ctx, spec, records, keep, r.store, r.opts)
	if err != nil {
		r.logger.Error("Failed to reconcile module", zap.Error(err))
		return reconcile.NewModuleReport(r.module.Name), fmt.Errorf("reconcile %s: %w", r.module.Name, err)
	}
	report.Failures = append(failures, report.Failures...)

	for _, f := range report.Failures {
		r.logger.Warn("Unit failed", zap.String("id", f.ID), zap.String("unit", f.Unit), zap.String("reason", f.Reason))
	}
	r.logger.Info("Completed module",
		zap.Int("added", len(report.Added)),
		zap.Int("changed", len(report.Changed)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// normalize converts fetched objects, skipping the ones that fail.
// Identities that cannot be normalized are kept so their snapshot survives.
func (r *Runner) normalize(res *fetch.Result) ([]record.Record, []string, []reconcile.Failure) {
	records := make([]record.Record, 0, len(res.Raws))
	keep := append([]string(nil), res.Skipped...)
	var failures []reconcile.Failure

	for _, raw := range res.Raws {
		rec, err := r.module.Normalizer.Normalize(raw)
		if err == nil {
			records = append(records, rec)
			continue
		}

		id, idErr := r.module.Normalizer.Identity(raw)
		if idErr == nil {
			keep = append(keep, id)
		}
		r.logger.Warn("Skipping object", zap.String("id", id), zap.Error(err))
		failures = append(failures, reconcile.Failure{ID: id, Reason: err.Error(), Err: err})
	}
	return records, keep, failures
}
