// Package vcs records snapshot changes in a git repository using go-git.
//
// The snapshot directory is the working tree. Commit receives one Change per
// changed file unit, in the order the engine emitted them, and creates one
// commit per change with a message of the form
//
//	Add <module>:<name>
//	Changed <module>:<name>
//	Removed <module>:<name>
//
// Log narrates the commits made since a point in time together with their
// per-file line statistics; the monitor mails it as the body of the change
// report. Repair throws away the history and rebuilds it with one
// "Initializing: <item>" commit per top-level entry of the working tree.
//
// No git binary is required: everything goes through go-git.
package vcs
