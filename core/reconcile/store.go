package reconcile

import "change-monitor/core/snapshot"

// Store is the snapshot storage the engine reads and mutates.
// *snapshot.Store satisfies it.
type Store interface {
	Read(module, id, unit string) ([]byte, error)
	Write(module, id, unit string, content []byte) error
	Delete(module, id, unit string) (bool, error)
	List(module string, units []string) ([]snapshot.Entry, error)
	RelPath(module, id, unit string) string
}

// Namer recovers a display name from the persisted metadata unit of an object.
type Namer func(id string, content []byte) string

// Spec describes the module being reconciled.
type Spec struct {
	// Module names the snapshot directory.
	Module string

	// Units lists every unit suffix of the module, metadata unit first.
	Units []string

	// Namer names removed objects. The identity is used when nil.
	Namer Namer
}

// units returns the unit suffixes, defaulting to a single unsuffixed file.
func (s *Spec) units() []string {
	if len(s.Units) == 0 {
		return []string{""}
	}
	return s.Units
}

func (s *Spec) baseUnit() string { return s.units()[0] }

// nameOf returns the display name of a persisted object.
func (s *Spec) nameOf(store Store, id string) string {
	if s.Namer == nil {
		return id
	}
	content, err := store.Read(s.Module, id, s.baseUnit())
	if err != nil {
		return id
	}
	return s.Namer(id, content)
}
