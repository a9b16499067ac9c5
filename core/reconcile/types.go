package reconcile

import "fmt"

// Kind classifies a change of one file unit.
type Kind string

const (
	// Added marks a unit persisted for the first time.
	Added Kind = "added"
	// Changed marks a unit whose content was rewritten.
	Changed Kind = "changed"
	// Removed marks a unit deleted because its object disappeared.
	Removed Kind = "removed"
)

// ChangeRecord describes one changed file unit.
type ChangeRecord struct {
	// Module is the module that owns the unit.
	Module string `json:"module"`

	// Kind is the classification of the change.
	Kind Kind `json:"kind"`

	// ID is the object identity.
	ID string `json:"id"`

	// Name is the display name of the object.
	Name string `json:"name"`

	// Unit is the unit suffix.
	Unit string `json:"unit"`

	// Path is the unit path relative to the snapshot root.
	Path string `json:"path"`
}

// Failure is a unit-scoped error recorded in a ModuleReport.
type Failure struct {
	ID     string `json:"id"`
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func newFailure(id, unit string, err error) Failure {
	return Failure{ID: id, Unit: unit, Reason: err.Error(), Err: err}
}

// ModuleReport is the outcome of one module's cycle.
type ModuleReport struct {
	Module    string         `json:"module"`
	Added     []ChangeRecord `json:"added"`
	Changed   []ChangeRecord `json:"changed"`
	Removed   []ChangeRecord `json:"removed"`
	Unchanged int            `json:"unchanged"`

	// Skipped lists identities left untouched because their detail fetch failed.
	Skipped []string `json:"skipped,omitempty"`

	// Failures lists units that could not be read, written or deleted.
	Failures []Failure `json:"failures,omitempty"`
}

// NewModuleReport returns an empty report for module.
func NewModuleReport(module string) *ModuleReport {
	return &ModuleReport{Module: module}
}

// Records returns every ChangeRecord in add, change, remove order.
func (r *ModuleReport) Records() []ChangeRecord {
	out := make([]ChangeRecord, 0, len(r.Added)+len(r.Changed)+len(r.Removed))
	out = append(out, r.Added...)
	out = append(out, r.Changed...)
	return append(out, r.Removed...)
}

// Empty reports whether the module produced no ChangeRecords.
func (r *ModuleReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Changed) == 0 && len(r.Removed) == 0
}

func (r *ModuleReport) String() string {
	return fmt.Sprintf("%s: %d added, %d changed, %d removed, %d unchanged, %d skipped, %d failed",
		r.Module, len(r.Added), len(r.Changed), len(r.Removed), r.Unchanged, len(r.Skipped), len(r.Failures))
}

func (r *ModuleReport) add(rec ChangeRecord) {
	switch rec.Kind {
	case Added:
		r.Added = append(r.Added, rec)
	case Changed:
		r.Changed = append(r.Changed, rec)
	case Removed:
		r.Removed = append(r.Removed, rec)
	}
}

// ActionType is the mutation an Action performs on the store.
type ActionType string

const (
	// ActionWrite replaces a unit with new content.
	ActionWrite ActionType = "write"
	// ActionDelete removes a unit.
	ActionDelete ActionType = "delete"
)

// Action is one planned mutation.
type Action struct {
	// Type specifies the mutation to perform.
	Type ActionType `json:"type"`

	// Change is the record emitted when the action succeeds.
	Change ChangeRecord `json:"change"`

	// Content is the new unit content of a write.
	Content []byte `json:"-"`
}

// PlanSummary provides aggregate counts of a plan.
type PlanSummary struct {
	Current   int `json:"current"`
	Persisted int `json:"persisted"`
	Added     int `json:"added"`
	Changed   int `json:"changed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Kept      int `json:"kept"`
}

// Plan is the set of actions that brings a module's snapshot up to date.
type Plan struct {
	Module  string      `json:"module"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`

	// Skipped is carried into the report unchanged.
	Skipped []string `json:"skipped,omitempty"`

	// Failures found while planning, typically unreadable persisted units.
	Failures []Failure `json:"failures,omitempty"`
}

// Options control ApplyPlan.
type Options struct {
	// DryRun reports the planned changes without touching the store.
	DryRun bool
}
