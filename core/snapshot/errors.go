package snapshot

import "fmt"

// Persistence operations reported in PersistenceError.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDelete = "delete"
	OpList   = "list"
)

// PersistenceError reports a failed read, write or delete of one unit.
type PersistenceError struct {
	Op     string
	Module string
	ID     string
	Unit   string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s/%s%s: %v", e.Op, e.Module, e.ID, e.Unit, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
