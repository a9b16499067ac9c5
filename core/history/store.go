package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"change-monitor/core/database"
	"change-monitor/core/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// ErrSchemaMismatch is returned by Migrate when a table lacks expected columns.
var ErrSchemaMismatch = errors.New("history schema mismatch")

var tables = []string{"runs", "module_runs", "changes"}

var expectedColumns = map[string][]string{
	"runs":        {"id", "started_at", "finished_at", "dry_run", "added", "changed", "removed", "failed", "commits"},
	"module_runs": {"id", "run_id", "module", "state", "reason", "added", "changed", "removed", "unchanged", "skipped", "duration_ms"},
	"changes":     {"id", "run_id", "module", "kind", "object_id", "name", "path"},
}

// Store reads and writes run history.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a Store on db.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Migrate creates or updates the tables and verifies their columns.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Run{}, &ModuleRun{}, &Change{}); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	missing, err := s.CheckSchema(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if cols := missing[table]; len(cols) > 0 {
			return fmt.Errorf("%w: %s lacks %v", ErrSchemaMismatch, table, cols)
		}
	}
	return nil
}

// CheckSchema returns the expected columns each history table lacks.
// Tables with every column are left out.
func (s *Store) CheckSchema(ctx context.Context) (map[string][]string, error) {
	db := s.db.WithContext(ctx)
	out := map[string][]string{}
	for _, table := range tables {
		missing, err := database.MissingColumns(db, table, expectedColumns[table])
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			out[table] = missing
		}
	}
	return out, nil
}

// NewRun starts a Run with a fresh id.
func NewRun(startedAt time.Time, dryRun bool) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: startedAt, DryRun: dryRun}
}

// Fill copies the per-module outcome and change records of report into run.
func (r *Run) Fill(report *scheduler.SyncReport) {
	r.Modules = nil
	r.Changes = nil
	r.Added, r.Changed, r.Removed = report.Totals()
	r.Failed = len(report.Failed())

	for _, res := range report.Sorted() {
		m := ModuleRun{
			RunID:      r.ID,
			Module:     res.Module,
			State:      string(res.State),
			Reason:     res.Reason,
			DurationMs: res.Duration.Milliseconds(),
		}
		if rep := res.Report; rep != nil {
			m.Added, m.Changed, m.Removed = len(rep.Added), len(rep.Changed), len(rep.Removed)
			m.Unchanged, m.Skipped = rep.Unchanged, len(rep.Skipped)
		}
		r.Modules = append(r.Modules, m)
	}
	for _, rec := range report.Records() {
		r.Changes = append(r.Changes, Change{
			RunID:    r.ID,
			Module:   rec.Module,
			Kind:     string(rec.Kind),
			ObjectID: rec.ID,
			Name:     rec.Name,
			Path:     rec.Path,
		})
	}
}

// RecordRun stores run with its modules and changes in one transaction.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	s.logger.Debug("Recorded run", zap.String("run_id", run.ID), zap.Int("changes", len(run.Changes)))
	return nil
}

// ListRuns returns the latest runs first, without modules and changes.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its modules and changes.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("module") }).
		Preload("Changes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&Run{}).Select("id").Where("started_at < ?", cutoff)
		if err := tx.Where("run_id IN (?)", old).Delete(&Change{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id IN (?)", old).Delete(&ModuleRun{}).Error; err != nil {
			return err
		}
		res := tx.Where("started_at < ?", cutoff).Delete(&Run{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return deleted, nil
}
