package runner

import (
	"errors"
	"fmt"

	"change-monitor/core/fetch"
	"change-monitor/core/record"
)

// ErrInvalidModule is returned by Validate for incomplete module definitions.
var ErrInvalidModule = errors.New("invalid module")

// Module is the declarative definition of one synchronized collection.
type Module struct {
	// Name is the module name and the name of its snapshot directory.
	Name string

	// Query locates the objects of the module.
	Query fetch.Query

	// Normalizer turns fetched objects into records.
	Normalizer *record.Normalizer
}

// Units returns the unit suffixes of the module, metadata unit first.
func (m *Module) Units() []string {
	return m.Normalizer.Suffixes()
}

// Validate checks that the definition can be run.
func (m *Module) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidModule)
	case !record.SafeIdentity(m.Name):
		return fmt.Errorf("%w: %q is not a directory name", ErrInvalidModule, m.Name)
	case m.Query.Path == "":
		return fmt.Errorf("%w: %s has no query path", ErrInvalidModule, m.Name)
	case m.Normalizer == nil:
		return fmt.Errorf("%w: %s has no normalizer", ErrInvalidModule, m.Name)
	case m.Normalizer.FixedID == "" && m.Normalizer.IDPath == "":
		return fmt.Errorf("%w: %s has no identity path", ErrInvalidModule, m.Name)
	case m.Normalizer.FixedID != "" && !record.SafeIdentity(m.Normalizer.FixedID):
		return fmt.Errorf("%w: %s has unsafe fixed identity %q", ErrInvalidModule, m.Name, m.Normalizer.FixedID)
	}

	seen := map[string]struct{}{}
	for _, suffix := range m.Units() {
		if _, dup := seen[suffix]; dup {
			return fmt.Errorf("%w: %s declares unit %q twice", ErrInvalidModule, m.Name, suffix)
		}
		seen[suffix] = struct{}{}
	}
	return nil
}
