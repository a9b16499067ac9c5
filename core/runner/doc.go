// Package runner drives one module through a sync cycle: fetch, normalize,
// diff against the snapshot and apply.
//
// A Runner touches nothing outside its module's snapshot directory, so runners
// of different modules share only the fetch capability and the filesystem and
// need no locking between them.
//
// Errors are scoped as narrowly as possible. A failed collection fetch ends the
// module with an empty report and a *fetch.FetchError. Objects that fail their
// detail fetch or cannot be normalized are skipped: they are neither rewritten
// nor removed and show up in the report's Skipped and Failures lists.
package runner
