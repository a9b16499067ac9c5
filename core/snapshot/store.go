package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one persisted unit discovered by List.
type Entry struct {
	// ID is the identity parsed from the file name.
	ID string
	// Unit is the unit suffix parsed from the file name.
	Unit string
	// Name is the file name within the module directory.
	Name string
}

// Store reads and writes snapshot files below a root directory.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a store rooted at root on fs.
func NewStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// NewOSStore creates a store on the local filesystem.
func NewOSStore(root string) *Store {
	return NewStore(afero.NewOsFs(), root)
}

// Root returns the root directory of the store.
func (s *Store) Root() string { return s.root }

// Dir returns the directory of a module.
func (s *Store) Dir(module string) string {
	return filepath.Join(s.root, module)
}

// Path returns the file path of one unit.
func (s *Store) Path(module, id, unit string) string {
	return filepath.Join(s.root, module, id+unit)
}

// RelPath returns the unit path relative to the store root, using forward slashes.
func (s *Store) RelPath(module, id, unit string) string {
	return module + "/" + id + unit
}

// ErrUnsafeID is returned for identities that would escape the module directory.
var ErrUnsafeID = errors.New("unsafe identity")

// checkID rejects identities with path separators or a leading dot.
func checkID(id string) error {
	if id == "" || strings.HasPrefix(id, ".") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w %q", ErrUnsafeID, id)
	}
	return nil
}

// Exists reports whether the unit file exists.
func (s *Store) Exists(module, id, unit string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, &PersistenceError{Op: OpRead, Module: module, ID: id, Unit: unit, Err: err}
	}
	ok, err := afero.Exists(s.fs, s.Path(module, id, unit))
	if err != nil {
		return false, &PersistenceError{Op: OpRead, Module: module, ID: id, Unit: unit, Err: err}
	}
	return ok, nil
}

// Read returns the content of a unit file.
func (s *Store) Read(module, id, unit string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, &PersistenceError{Op: OpRead, Module: module, ID: id, Unit: unit, Err: err}
	}
	data, err := afero.ReadFile(s.fs, s.Path(module, id, unit))
	if err != nil {
		return nil, &PersistenceError{Op: OpRead, Module: module, ID: id, Unit: unit, Err: err}
	}
	return data, nil
}

// Write replaces the unit file with content.
func (s *Store) Write(module, id, unit string, content []byte) error {
	wrap := func(err error) error {
		return &PersistenceError{Op: OpWrite, Module: module, ID: id, Unit: unit, Err: err}
	}
	if err := checkID(id); err != nil {
		return wrap(err)
	}

	dir := s.Dir(module)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return wrap(err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".tmp-"+id+"-")
	if err != nil {
		return wrap(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return wrap(err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return wrap(err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		_ = s.fs.Remove(tmpName)
		return wrap(err)
	}
	if err := s.fs.Rename(tmpName, s.Path(module, id, unit)); err != nil {
		_ = s.fs.Remove(tmpName)
		return wrap(err)
	}
	return nil
}

// Delete removes a unit file. It returns false when the file did not exist.
// A failed removal falls back to making the file writable and unlinking it again.
func (s *Store) Delete(module, id, unit string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, &PersistenceError{Op: OpDelete, Module: module, ID: id, Unit: unit, Err: err}
	}
	path := s.Path(module, id, unit)

	err := s.fs.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	// Retry with permissions forced open on the file and its directory.
	_ = s.fs.Chmod(filepath.Dir(path), 0o755)
	_ = s.fs.Chmod(path, 0o644)
	if retryErr := s.fs.Remove(path); retryErr != nil && !errors.Is(retryErr, os.ErrNotExist) {
		return false, &PersistenceError{Op: OpDelete, Module: module, ID: id, Unit: unit, Err: errors.Join(err, retryErr)}
	}
	return true, nil
}

// List returns the persisted units of a module in file name order.
// Hidden files and files that match none of the given unit suffixes are skipped.
// A module that was never written lists as empty.
func (s *Store) List(module string, units []string) ([]Entry, error) {
	infos, err := afero.ReadDir(s.fs, s.Dir(module))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: OpList, Module: module, Err: err}
	}

	// Longest suffix first so ".data" is not shadowed by "".
	suffixes := append([]string(nil), units...)
	sort.SliceStable(suffixes, func(i, j int) bool { return len(suffixes[i]) > len(suffixes[j]) })

	var entries []Entry
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if id, unit, ok := splitName(name, suffixes); ok {
			entries = append(entries, Entry{ID: id, Unit: unit, Name: name})
		}
	}
	return entries, nil
}

// Modules returns the non-hidden top-level directories in name order.
func (s *Store) Modules() ([]string, error) {
	return s.names(s.root, true)
}

// Files returns the non-hidden file names of a module directory in name order.
func (s *Store) Files(module string) ([]string, error) {
	return s.names(s.Dir(module), false)
}

// Remove deletes one file of a module directory by name.
func (s *Store) Remove(module, name string) error {
	if err := s.fs.Remove(filepath.Join(s.Dir(module), name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &PersistenceError{Op: OpDelete, Module: module, ID: name, Err: err}
	}
	return nil
}

func (s *Store) names(dir string, dirs bool) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: OpList, Module: filepath.Base(dir), Err: err}
	}
	var out []string
	for _, info := range infos {
		if info.IsDir() == dirs && !strings.HasPrefix(info.Name(), ".") {
			out = append(out, info.Name())
		}
	}
	return out, nil
}

func splitName(name string, suffixes []string) (id, unit string, ok bool) {
	for _, suffix := range suffixes {
		if suffix == "" {
			if filepath.Ext(name) == "" {
				return name, "", true
			}
			continue
		}
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix), suffix, true
		}
	}
	return "", "", false
}

// Sweep removes Finder litter (.DS_Store) anywhere below the root.
// It returns the number of files removed.
func (s *Store) Sweep() (int, error) {
	removed := 0
	err := afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() && info.Name() == ".git" {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.EqualFold(info.Name(), ".ds_store") {
			if err := s.fs.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
