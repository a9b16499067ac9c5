package modules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"change-monitor/core/runner"

	"github.com/spf13/afero"
)

// ErrUnknownModule is returned by Select for names not in the registry.
var ErrUnknownModule = errors.New("unknown module")

// Registry is the effective set of modules.
type Registry struct {
	modules map[string]*runner.Module
}

// NewRegistry creates a registry holding modules.
func NewRegistry(modules []*runner.Module) *Registry {
	r := &Registry{modules: make(map[string]*runner.Module, len(modules))}
	for _, m := range modules {
		r.modules[m.Name] = m
	}
	return r
}

// Load builds the registry from the built-in catalogue and the definition
// file named by cfg, read from fs.
func Load(fs afero.Fs, cfg Config) (*Registry, error) {
	r := NewRegistry(Builtin())
	if cfg.File == "" {
		return r, nil
	}

	f, err := fs.Open(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("open module definitions: %w", err)
	}
	defer f.Close()

	defs, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if err := r.Apply(defs); err != nil {
		return nil, err
	}
	return r, nil
}

// Apply adds, replaces or removes modules according to defs.
func (r *Registry) Apply(defs []Definition) error {
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("%w: definition without name", runner.ErrInvalidModule)
		}
		if d.Disabled {
			delete(r.modules, d.Name)
			continue
		}
		m, err := d.Build()
		if err != nil {
			return err
		}
		r.modules[m.Name] = m
	}
	return nil
}

// Names returns the module names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns one module.
func (r *Registry) Get(name string) (*runner.Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Select returns the named modules in order, or every module when names is empty.
func (r *Registry) Select(names []string) ([]*runner.Module, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	var unknown []string
	seen := make(map[string]struct{}, len(names))
	out := make([]*runner.Module, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		m, ok := r.modules[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, m)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownModule,
			strings.Join(unknown, ", "), strings.Join(r.Names(), ", "))
	}
	return out, nil
}
