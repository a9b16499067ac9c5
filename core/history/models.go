package history

import "time"

// Run is one sync run.
type Run struct {
	ID         string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	StartedAt  time.Time   `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt time.Time   `gorm:"column:finished_at" json:"finished_at"`
	DryRun     bool        `gorm:"column:dry_run" json:"dry_run"`
	Added      int         `gorm:"column:added" json:"added"`
	Changed    int         `gorm:"column:changed" json:"changed"`
	Removed    int         `gorm:"column:removed" json:"removed"`
	Failed     int         `gorm:"column:failed" json:"failed"`
	Commits    int         `gorm:"column:commits" json:"commits"`
	Modules    []ModuleRun `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	Changes    []Change    `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"changes,omitempty"`
}

func (Run) TableName() string { return "runs" }

// ModuleRun is the outcome of one module within a run.
type ModuleRun struct {
	ID         uint   `gorm:"primaryKey;column:id" json:"-"`
	RunID      string `gorm:"column:run_id;type:varchar(36);index" json:"-"`
	Module     string `gorm:"column:module;type:varchar(255)" json:"module"`
	State      string `gorm:"column:state;type:varchar(16)" json:"state"`
	Reason     string `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Added      int    `gorm:"column:added" json:"added"`
	Changed    int    `gorm:"column:changed" json:"changed"`
	Removed    int    `gorm:"column:removed" json:"removed"`
	Unchanged  int    `gorm:"column:unchanged" json:"unchanged"`
	Skipped    int    `gorm:"column:skipped" json:"skipped"`
	DurationMs int64  `gorm:"column:duration_ms" json:"duration_ms"`
}

func (ModuleRun) TableName() string { return "module_runs" }

// Change is one persisted change of a run.
type Change struct {
	ID       uint   `gorm:"primaryKey;column:id" json:"-"`
	RunID    string `gorm:"column:run_id;type:varchar(36);index" json:"-"`
	Module   string `gorm:"column:module;type:varchar(255)" json:"module"`
	Kind     string `gorm:"column:kind;type:varchar(16)" json:"kind"`
	ObjectID string `gorm:"column:object_id;type:varchar(255)" json:"id"`
	Name     string `gorm:"column:name;type:varchar(255)" json:"name"`
	Path     string `gorm:"column:path;type:varchar(1024)" json:"path"`
}

func (Change) TableName() string { return "changes" }
