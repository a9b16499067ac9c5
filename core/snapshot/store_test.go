package snapshot

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewStore(fs, "/repo"), fs
}

func TestStore_WriteReadExists(t *testing.T) {
	s, _ := newTestStore()

	ok, err := s.Exists("categories", "7", "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write("categories", "7", "", []byte("first version\n")))
	ok, err = s.Exists("categories", "7", "")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Read("categories", "7", "")
	require.NoError(t, err)
	assert.Equal(t, "first version\n", string(data))
}

func TestStore_WriteReplacesWholeFile(t *testing.T) {
	s, _ := newTestStore()

	require.NoError(t, s.Write("scripts", "1", ".script", []byte("a much longer payload")))
	require.NoError(t, s.Write("scripts", "1", ".script", []byte("short")))

	data, err := s.Read("scripts", "1", ".script")
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestStore_WriteLeavesNoTempFiles(t *testing.T) {
	s, fs := newTestStore()
	require.NoError(t, s.Write("scripts", "1", ".data", []byte("{}\n")))

	infos, err := afero.ReadDir(fs, "/repo/scripts")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "1.data", infos[0].Name())
}

func TestStore_ReadMissing(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Read("categories", "404", "")

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpRead, perr.Op)
	assert.Equal(t, "categories", perr.Module)
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Write("categories", "1", "", []byte("x")))

	removed, err := s.Delete("categories", "1", "")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete("categories", "1", "")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_WriteFileMode(t *testing.T) {
	s, fs := newTestStore()
	require.NoError(t, s.Write("categories", "1", "", []byte("x")))

	info, err := fs.Stat(s.Path("categories", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStore_UnsafeIdentity(t *testing.T) {
	s, fs := newTestStore()
	require.NoError(t, s.Write("categories", "7", "", []byte("original")))

	for _, id := range []string{"../categories/7", "a/b", `a\b`, "..", ".DS_Store", ""} {
		t.Run(id, func(t *testing.T) {
			err := s.Write("scripts", id, "", []byte("clobbered"))
			assert.ErrorIs(t, err, ErrUnsafeID)
			var perr *PersistenceError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, OpWrite, perr.Op)

			_, err = s.Exists("scripts", id, "")
			assert.ErrorIs(t, err, ErrUnsafeID)
			_, err = s.Read("scripts", id, "")
			assert.ErrorIs(t, err, ErrUnsafeID)
			_, err = s.Delete("scripts", id, "")
			assert.ErrorIs(t, err, ErrUnsafeID)
		})
	}

	content, err := afero.ReadFile(fs, s.Path("categories", "7", ""))
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
	ok, err := afero.DirExists(fs, s.Dir("scripts"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/repo/categories/1", []byte("x"), 0o644))
	s := NewStore(afero.NewReadOnlyFs(base), "/repo")

	removed, err := s.Delete("categories", "1", "")
	assert.False(t, removed)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, OpDelete, perr.Op)

	ok, _ := afero.Exists(base, "/repo/categories/1")
	assert.True(t, ok)
}

func TestStore_List(t *testing.T) {
	s, fs := newTestStore()
	for _, name := range []string{"3.data", "1.data", "1.script", "2.data", ".hidden", "notes.txt"} {
		require.NoError(t, afero.WriteFile(fs, "/repo/scripts/"+name, []byte("x"), 0o644))
	}

	entries, err := s.List("scripts", []string{".data", ".script"})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: "1", Unit: ".data", Name: "1.data"},
		{ID: "1", Unit: ".script", Name: "1.script"},
		{ID: "2", Unit: ".data", Name: "2.data"},
		{ID: "3", Unit: ".data", Name: "3.data"},
	}, entries)
}

func TestStore_ListSingleFileModule(t *testing.T) {
	s, fs := newTestStore()
	require.NoError(t, afero.WriteFile(fs, "/repo/computercheckin/data", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/computercheckin/stray.json", []byte("x"), 0o644))

	entries, err := s.List("computercheckin", []string{""})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{ID: "data", Unit: "", Name: "data"}}, entries)
}

func TestStore_ListMissingModule(t *testing.T) {
	s, _ := newTestStore()
	entries, err := s.List("never-written", []string{""})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_ModulesAndFiles(t *testing.T) {
	s, fs := newTestStore()
	for _, name := range []string{"/repo/scripts/1.data", "/repo/scripts/.hidden", "/repo/categories/2", "/repo/.git/HEAD", "/repo/README"} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0o644))
	}

	mods, err := s.Modules()
	require.NoError(t, err)
	assert.Equal(t, []string{"categories", "scripts"}, mods)

	files, err := s.Files("scripts")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.data"}, files)

	files, err = s.Files("missing")
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, s.Remove("scripts", "1.data"))
	require.NoError(t, s.Remove("scripts", "1.data"))
	files, err = s.Files("scripts")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStore_Sweep(t *testing.T) {
	s, fs := newTestStore()
	require.NoError(t, afero.WriteFile(fs, "/repo/.DS_Store", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/scripts/.DS_Store", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/scripts/1.data", []byte("x"), 0o644))

	removed, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ok, _ := afero.Exists(fs, "/repo/scripts/1.data")
	assert.True(t, ok)
	ok, _ = afero.Exists(fs, "/repo/scripts/.DS_Store")
	assert.False(t, ok)
}

func TestStore_Paths(t *testing.T) {
	s, _ := newTestStore()
	assert.Equal(t, "/repo/scripts/5.script", s.Path("scripts", "5", ".script"))
	assert.Equal(t, "scripts/5.script", s.RelPath("scripts", "5", ".script"))
}
