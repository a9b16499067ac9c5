package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"change-monitor/core/reconcile"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// Repository is a git working tree holding the snapshot.
type Repository struct {
	root   string
	repo   *git.Repository
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// Open opens the repository at root, initializing it when root holds none.
func Open(root string, cfg Config, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create repository dir: %w", err)
	}

	repo, err := git.PlainOpen(root)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Info("Initializing repository", zap.String("path", root))
		repo, err = git.PlainInit(root, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}
	return &Repository{root: root, repo: repo, cfg: cfg, logger: logger, now: time.Now}, nil
}

// Root returns the working tree root.
func (r *Repository) Root() string { return r.root }

func (r *Repository) signature() *object.Signature {
	return &object.Signature{Name: r.cfg.Name, Email: r.cfg.Email, When: r.now()}
}

// Commit stages and commits every change in order, one commit per change.
// Changes that leave the tree unchanged are skipped. It returns the number of
// commits created.
func (r *Repository) Commit(ctx context.Context, changes []Change) (int, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return 0, err
	}

	commits := 0
	for _, change := range changes {
		if err := ctx.Err(); err != nil {
			return commits, err
		}

		path := filepath.ToSlash(change.Path)
		if change.Kind == reconcile.Removed {
			if _, err := wt.Remove(path); err != nil {
				if errors.Is(err, index.ErrEntryNotFound) {
					r.logger.Debug("Removed file was never tracked", zap.String("path", path))
					continue
				}
				return commits, fmt.Errorf("remove %s: %w", path, err)
			}
		} else if _, err := wt.Add(path); err != nil {
			return commits, fmt.Errorf("add %s: %w", path, err)
		}

		staged, err := r.staged(path)
		if err != nil {
			return commits, err
		}
		if !staged {
			r.logger.Debug("Nothing to commit", zap.String("path", path))
			continue
		}

		sig := r.signature()
		_, err = wt.Commit(change.Message, &git.CommitOptions{Author: sig, Committer: sig})
		if errors.Is(err, git.ErrEmptyCommit) {
			r.logger.Debug("Nothing to commit", zap.String("path", path))
			continue
		}
		if err != nil {
			return commits, fmt.Errorf("commit %s: %w", path, err)
		}
		commits++
		r.logger.Info(change.Message, zap.String("path", path))
	}
	return commits, nil
}

// staged reports whether the index entry for path differs from HEAD.
func (r *Repository) staged(path string) (bool, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return false, err
	}
	entry, err := idx.Entry(path)
	if err != nil && !errors.Is(err, index.ErrEntryNotFound) {
		return false, err
	}
	indexed := err == nil

	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return indexed, nil
	}
	if err != nil {
		return false, err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return false, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return false, err
	}
	file, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return indexed, nil
	}
	if err != nil {
		return false, err
	}
	if !indexed {
		return true, nil
	}
	return entry.Hash != file.Hash || entry.Mode != file.Mode, nil
}

// Log narrates the commits made since the given time, newest first, with
// per-file line statistics. It returns an empty string when there are none.
func (r *Repository) Log(since time.Time) (string, error) {
	if _, err := r.repo.Head(); err != nil {
		// No commits yet.
		return "", nil
	}

	iter, err := r.repo.Log(&git.LogOptions{Since: &since})
	if err != nil {
		return "", err
	}
	defer iter.Close()

	var b strings.Builder
	err = iter.ForEach(func(c *object.Commit) error {
		fmt.Fprintf(&b, "commit %s\n", c.Hash)
		fmt.Fprintf(&b, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
		fmt.Fprintf(&b, "Date:   %s\n\n", c.Author.When.Format(time.RFC1123Z))
		fmt.Fprintf(&b, "    %s\n\n", strings.TrimSpace(c.Message))

		stats, err := c.Stats()
		if err != nil {
			return err
		}
		for _, s := range stats {
			fmt.Fprintf(&b, "%d\t%d\t%s\n", s.Addition, s.Deletion, s.Name)
		}
		b.WriteString("\n")
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Prune deletes unreachable loose objects older than a day.
func (r *Repository) Prune() error {
	err := r.repo.Prune(git.PruneOptions{
		OnlyObjectsOlderThan: r.now().Add(-24 * time.Hour),
		Handler:              r.repo.DeleteObject,
	})
	if errors.Is(err, git.ErrLooseObjectsNotSupported) {
		return nil
	}
	return err
}

// Repair discards the git history and re-creates it, committing every
// top-level entry that does not start with a dot as "Initializing: <entry>".
// It returns the number of commits created.
func (r *Repository) Repair(ctx context.Context) (int, error) {
	if err := os.RemoveAll(filepath.Join(r.root, git.GitDirName)); err != nil {
		return 0, fmt.Errorf("remove history: %w", err)
	}
	repo, err := git.PlainInit(r.root, false)
	if err != nil {
		return 0, fmt.Errorf("init repository: %w", err)
	}
	r.repo = repo

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	wt, err := repo.Worktree()
	if err != nil {
		return 0, err
	}

	commits := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return commits, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, err := wt.Add(name); err != nil {
			return commits, fmt.Errorf("add %s: %w", name, err)
		}
		sig := r.signature()
		if _, err := wt.Commit("Initializing: "+name, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
			if errors.Is(err, git.ErrEmptyCommit) {
				continue
			}
			return commits, fmt.Errorf("commit %s: %w", name, err)
		}
		commits++
		r.logger.Info("Initializing", zap.String("item", name))
	}
	return commits, nil
}

var _ Sink = (*Repository)(nil)
