// Package reconcile compares the freshly fetched records of one module against
// its snapshot and applies the difference.
//
// # Planning
//
// Diff joins the current records with the persisted units on identity and unit
// suffix and produces a Plan of write and delete actions:
//
//   - a unit with no persisted file is Added
//   - a unit whose persisted bytes differ from the canonical content is Changed
//   - a unit with identical bytes produces no action
//   - a persisted unit whose identity (or unit) is absent from the current set is
//     Removed, unless the identity is listed in keep (objects whose detail fetch
//     failed this cycle)
//
// Writes follow the order in which the records were fetched, units in record
// order. Deletes follow the listing order of the store.
//
// # Applying
//
// ApplyPlan executes the actions and turns each successful one into exactly one
// ChangeRecord. A failed write abandons the remaining units of that object; a
// failed delete is reported and the unit is not recorded as removed. Neither
// aborts the module.
//
// # Usage Example
//
//	spec := &reconcile.Spec{Module: "scripts", Units: []string{".data", ".script"}, Namer: norm.NameFromStored}
//	plan, err := reconcile.Diff(spec, records, skipped, store)
//	if err != nil {
//	    return err
//	}
//	report := reconcile.ApplyPlan(ctx, plan, store, reconcile.Options{})
package reconcile
