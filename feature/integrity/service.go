package integrity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"change-monitor/core/snapshot"
	"change-monitor/feature/modules"

	"go.uber.org/zap"
)

// SchemaChecker reports missing history columns. *history.Store satisfies it.
type SchemaChecker interface {
	CheckSchema(ctx context.Context) (map[string][]string, error)
}

// Issue is one file flagged by a check.
type Issue struct {
	Module string `json:"module"`
	File   string `json:"file"`
}

// Path returns the file path relative to the snapshot root.
func (i Issue) Path() string { return i.Module + "/" + i.File }

// Report is the outcome of Check.
type Report struct {
	Missing    []string            `json:"missing"`
	Orphans    []string            `json:"orphans"`
	Stray      []Issue             `json:"stray"`
	Incomplete []Issue             `json:"incomplete"`
	Schema     map[string][]string `json:"schema,omitempty"`
	Fixed      int                 `json:"fixed"`
}

// Healthy reports whether nothing needs attention. Missing modules are normal
// before the first sync and do not count.
func (r *Report) Healthy() bool {
	return len(r.Orphans) == 0 && len(r.Stray) == 0 && len(r.Incomplete) == 0 && len(r.Schema) == 0
}

// Service handles integrity checks.
type Service struct {
	store    *snapshot.Store
	registry *modules.Registry
	schema   SchemaChecker
	logger   *zap.Logger
}

// NewService creates a new integrity service. schema may be nil.
func NewService(store *snapshot.Store, registry *modules.Registry, schema SchemaChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, registry: registry, schema: schema, logger: logger}
}

// Check runs every check.
func (s *Service) Check(ctx context.Context) (*Report, error) {
	report := &Report{Missing: []string{}, Orphans: []string{}, Stray: []Issue{}, Incomplete: []Issue{}}

	present, err := s.store.Modules()
	if err != nil {
		return nil, fmt.Errorf("list snapshot: %w", err)
	}
	known := map[string]bool{}
	for _, name := range s.registry.Names() {
		known[name] = true
	}
	for _, dir := range present {
		if !known[dir] {
			report.Orphans = append(report.Orphans, dir)
		}
		delete(known, dir)
	}
	for name := range known {
		report.Missing = append(report.Missing, name)
	}
	sort.Strings(report.Missing)

	for _, name := range s.registry.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, _ := s.registry.Get(name)
		if err := s.checkModule(name, m.Units(), report); err != nil {
			return nil, err
		}
	}

	if s.schema != nil {
		missing, err := s.schema.CheckSchema(ctx)
		if err != nil {
			return nil, fmt.Errorf("check history schema: %w", err)
		}
		if len(missing) > 0 {
			report.Schema = missing
		}
	}
	return report, nil
}

func (s *Service) checkModule(name string, units []string, report *Report) error {
	files, err := s.store.Files(name)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	entries, err := s.store.List(name, units)
	if err != nil {
		return err
	}

	listed := make(map[string]bool, len(entries))
	base := map[string]bool{}
	for _, e := range entries {
		listed[e.Name] = true
		if e.Unit == units[0] {
			base[e.ID] = true
		}
	}
	for _, f := range files {
		if !listed[f] {
			report.Stray = append(report.Stray, Issue{Module: name, File: f})
		}
	}
	for _, e := range entries {
		if e.Unit != units[0] && !base[e.ID] {
			report.Incomplete = append(report.Incomplete, Issue{Module: name, File: e.Name})
		}
	}
	return nil
}

// Fix removes the stray and incomplete files of report and counts them in Fixed.
func (s *Service) Fix(report *Report) error {
	var failed []string
	for _, issue := range append(append([]Issue(nil), report.Stray...), report.Incomplete...) {
		if err := s.store.Remove(issue.Module, issue.File); err != nil {
			failed = append(failed, issue.Path())
			continue
		}
		s.logger.Info("Removed file", zap.String("path", issue.Path()))
		report.Fixed++
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to remove %s", strings.Join(failed, ", "))
	}
	return nil
}
