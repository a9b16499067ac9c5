package reconcile

import (
	"context"
	"fmt"

	"change-monitor/core/record"
)

// ApplyPlan executes the actions of plan against store and reports every
// successful mutation as a ChangeRecord. Unit failures are collected in the
// report instead of being returned. A cancelled context stops before the next
// action and the remaining actions are reported as failures.
//
// With opts.DryRun the report lists the planned changes and the store is not touched.
func ApplyPlan(ctx context.Context, plan *Plan, store Store, opts Options) *ModuleReport {
	report := NewModuleReport(plan.Module)
	report.Unchanged = plan.Summary.Unchanged
	report.Skipped = append(report.Skipped, plan.Skipped...)
	report.Failures = append(report.Failures, plan.Failures...)

	if opts.DryRun {
		for _, action := range plan.Actions {
			report.add(action.Change)
		}
		return report
	}

	// Objects whose earlier unit failed to write.
	abandoned := make(map[string]struct{})

	for _, action := range plan.Actions {
		change := action.Change

		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, newFailure(change.ID, change.Unit, err))
			continue
		}

		switch action.Type {
		case ActionWrite:
			if _, ok := abandoned[change.ID]; ok {
				report.Failures = append(report.Failures, newFailure(change.ID, change.Unit,
					fmt.Errorf("update of %s abandoned after an earlier unit failed", change.ID)))
				continue
			}
			if err := store.Write(plan.Module, change.ID, change.Unit, action.Content); err != nil {
				abandoned[change.ID] = struct{}{}
				report.Failures = append(report.Failures, newFailure(change.ID, change.Unit, err))
				continue
			}
		case ActionDelete:
			if _, err := store.Delete(plan.Module, change.ID, change.Unit); err != nil {
				report.Failures = append(report.Failures, newFailure(change.ID, change.Unit, err))
				continue
			}
		default:
			report.Failures = append(report.Failures, newFailure(change.ID, change.Unit,
				fmt.Errorf("unknown action %q", action.Type)))
			continue
		}

		report.add(change)
	}

	return report
}

// DiffAndApply plans and applies in one step.
func DiffAndApply(ctx context.Context, spec *Spec, current []record.Record, keep []string, store Store, opts Options) (*ModuleReport, error) {
	plan, err := Diff(spec, current, keep, store)
	if err != nil {
		return nil, err
	}
	return ApplyPlan(ctx, plan, store, opts), nil
}
