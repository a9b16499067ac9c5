// Package snapshot persists the last known state of every module as plain files.
//
// The layout is one directory per module and one file per object unit:
//
//	<root>/<module>/<id><suffix>
//
// Writes replace the whole file through a temporary file and a rename, so a
// crash never leaves a half-written or tail-padded snapshot behind. Module
// directories are created lazily on first write.
//
// The store is backed by an afero.Fs so tests run against an in-memory
// filesystem while production uses the OS filesystem rooted at the git
// working tree.
package snapshot
