package reconcile

import (
	"bytes"
	"fmt"

	"change-monitor/core/record"
	"change-monitor/core/snapshot"
)

// Diff plans the actions that make the snapshot of spec.Module equal to current.
// Records are joined on identity; a repeated identity keeps its first record.
// Persisted objects whose identity is in keep are never removed or rewritten.
// Unreadable persisted units are reported as plan failures and left alone.
func Diff(spec *Spec, current []record.Record, keep []string, store Store) (*Plan, error) {
	entries, err := store.List(spec.Module, spec.units())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", spec.Module, err)
	}

	persisted := make(map[string]map[string]struct{}, len(entries))
	for _, e := range entries {
		if persisted[e.ID] == nil {
			persisted[e.ID] = make(map[string]struct{})
		}
		persisted[e.ID][e.Unit] = struct{}{}
	}

	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	plan := &Plan{Module: spec.Module, Skipped: keep}
	plan.Summary.Persisted = len(persisted)

	// Writes in fetch order.
	seen := make(map[string]*record.Record, len(current))
	for i := range current {
		rec := &current[i]
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = rec
		plan.Summary.Current++

		for _, unit := range rec.Units {
			change := ChangeRecord{
				Module: spec.Module,
				ID:     rec.ID,
				Name:   rec.Name,
				Unit:   unit.Suffix,
				Path:   store.RelPath(spec.Module, rec.ID, unit.Suffix),
			}

			if _, ok := persisted[rec.ID][unit.Suffix]; !ok {
				change.Kind = Added
				plan.Actions = append(plan.Actions, Action{Type: ActionWrite, Change: change, Content: unit.Content})
				plan.Summary.Added++
				continue
			}

			old, err := store.Read(spec.Module, rec.ID, unit.Suffix)
			if err != nil {
				plan.Failures = append(plan.Failures, newFailure(rec.ID, unit.Suffix, err))
				continue
			}
			if bytes.Equal(old, unit.Content) {
				plan.Summary.Unchanged++
				continue
			}
			change.Kind = Changed
			plan.Actions = append(plan.Actions, Action{Type: ActionWrite, Change: change, Content: unit.Content})
			plan.Summary.Changed++
		}
	}

	// Deletes in listing order.
	names := make(map[string]string)
	for _, e := range entries {
		if rec, ok := seen[e.ID]; ok {
			if _, still := rec.Unit(e.Unit); still {
				continue
			}
			plan.Actions = append(plan.Actions, removal(spec, store, e, rec.Name))
			plan.Summary.Removed++
			continue
		}
		if _, ok := kept[e.ID]; ok {
			plan.Summary.Kept++
			continue
		}

		name, ok := names[e.ID]
		if !ok {
			name = spec.nameOf(store, e.ID)
			names[e.ID] = name
		}
		plan.Actions = append(plan.Actions, removal(spec, store, e, name))
		plan.Summary.Removed++
	}

	return plan, nil
}

func removal(spec *Spec, store Store, e snapshot.Entry, name string) Action {
	return Action{
		Type: ActionDelete,
		Change: ChangeRecord{
			Module: spec.Module,
			Kind:   Removed,
			ID:     e.ID,
			Name:   name,
			Unit:   e.Unit,
			Path:   store.RelPath(spec.Module, e.ID, e.Unit),
		},
	}
}
