package vcs

import (
	"context"
	"fmt"
	"time"

	"change-monitor/core/reconcile"
)

// Sink records snapshot changes in version control. *Repository satisfies it.
type Sink interface {
	Commit(ctx context.Context, changes []Change) (int, error)
	Log(since time.Time) (string, error)
	Prune() error
}

// Change is one file to stage and commit.
type Change struct {
	// Path is relative to the working tree root.
	Path string
	// Kind selects between staging the file and removing it.
	Kind reconcile.Kind
	// Message is the commit message.
	Message string
}

// Message returns the commit message for a change record.
func Message(rec reconcile.ChangeRecord) string {
	verb := "Add"
	switch rec.Kind {
	case reconcile.Changed:
		verb = "Changed"
	case reconcile.Removed:
		verb = "Removed"
	}
	return fmt.Sprintf("%s %s:%s", verb, rec.Module, rec.Name)
}

// Changes converts change records into commit requests, preserving order.
func Changes(records []reconcile.ChangeRecord) []Change {
	out := make([]Change, 0, len(records))
	for _, rec := range records {
		out = append(out, Change{Path: rec.Path, Kind: rec.Kind, Message: Message(rec)})
	}
	return out
}
