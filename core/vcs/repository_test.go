package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"change-monitor/core/reconcile"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func messages(t *testing.T, r *Repository) []string {
	t.Helper()
	iter, err := r.repo.Log(&git.LogOptions{})
	require.NoError(t, err)
	var out []string
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		out = append([]string{c.Message}, out...)
		return nil
	}))
	return out
}

func TestMessage(t *testing.T) {
	tests := []struct {
		kind reconcile.Kind
		want string
	}{
		{reconcile.Added, "Add scripts:Install Rosetta"},
		{reconcile.Changed, "Changed scripts:Install Rosetta"},
		{reconcile.Removed, "Removed scripts:Install Rosetta"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			rec := reconcile.ChangeRecord{Module: "scripts", Kind: tt.kind, Name: "Install Rosetta"}
			assert.Equal(t, tt.want, Message(rec))
		})
	}
}

func TestRepository_CommitInOrder(t *testing.T) {
	root := t.TempDir()
	repo, err := Open(root, Config{Name: "Tester", Email: "tester@example.com"}, nil)
	require.NoError(t, err)

	writeFile(t, root, "scripts/1.data", "{}\n")
	writeFile(t, root, "scripts/1.script", "echo 1\n")
	records := []reconcile.ChangeRecord{
		{Module: "scripts", Kind: reconcile.Added, Name: "one", Path: "scripts/1.data"},
		{Module: "scripts", Kind: reconcile.Added, Name: "one", Path: "scripts/1.script"},
	}
	n, err := repo.Commit(context.Background(), Changes(records))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	writeFile(t, root, "scripts/1.script", "echo 2\n")
	require.NoError(t, os.Remove(filepath.Join(root, "scripts/1.data")))
	records = []reconcile.ChangeRecord{
		{Module: "scripts", Kind: reconcile.Changed, Name: "one", Path: "scripts/1.script"},
		{Module: "scripts", Kind: reconcile.Removed, Name: "one", Path: "scripts/1.data"},
	}
	n, err = repo.Commit(context.Background(), Changes(records))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{
		"Add scripts:one",
		"Add scripts:one",
		"Changed scripts:one",
		"Removed scripts:one",
	}, messages(t, repo))
}

func TestRepository_CommitSkipsNoops(t *testing.T) {
	root := t.TempDir()
	repo, err := Open(root, Config{Name: "Tester", Email: "tester@example.com"}, nil)
	require.NoError(t, err)

	writeFile(t, root, "categories/1", "a")
	_, err = repo.Commit(context.Background(), []Change{{Path: "categories/1", Kind: reconcile.Added, Message: "Add categories:a"}})
	require.NoError(t, err)

	n, err := repo.Commit(context.Background(), []Change{
		// Same content again, and a removal of a file git never saw.
		{Path: "categories/1", Kind: reconcile.Changed, Message: "Changed categories:a"},
		{Path: "categories/99", Kind: reconcile.Removed, Message: "Removed categories:ghost"},
	})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepository_Log(t *testing.T) {
	root := t.TempDir()
	repo, err := Open(root, Config{Name: "Tester", Email: "tester@example.com"}, nil)
	require.NoError(t, err)

	empty, err := repo.Log(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)

	start := time.Now().Add(-time.Second)
	writeFile(t, root, "categories/7", "line one\nline two\n")
	_, err = repo.Commit(context.Background(), []Change{{Path: "categories/7", Kind: reconcile.Added, Message: "Add categories:Old"}})
	require.NoError(t, err)

	log, err := repo.Log(start)
	require.NoError(t, err)
	assert.Contains(t, log, "Author: Tester <tester@example.com>")
	assert.Contains(t, log, "    Add categories:Old")
	assert.Contains(t, log, "2\t0\tcategories/7")

	later, err := repo.Log(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, later)

	assert.NoError(t, repo.Prune())
}

func TestRepository_Repair(t *testing.T) {
	root := t.TempDir()
	repo, err := Open(root, Config{Name: "Tester", Email: "tester@example.com"}, nil)
	require.NoError(t, err)

	writeFile(t, root, "scripts/1.data", "{}")
	writeFile(t, root, "categories/1", "a")
	writeFile(t, root, ".hidden", "x")
	_, err = repo.Commit(context.Background(), []Change{{Path: "scripts/1.data", Kind: reconcile.Added, Message: "Add scripts:1"}})
	require.NoError(t, err)

	n, err := repo.Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"Initializing: categories", "Initializing: scripts"}, messages(t, repo))

	_, err = os.Stat(filepath.Join(root, "scripts/1.data"))
	assert.NoError(t, err)
}

func TestOpen_ExistingRepository(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	repo, err := Open(root, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, root, repo.Root())
}
