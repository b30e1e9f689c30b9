// Package vfs implements the per-owner virtual filesystem behind the
// terminal.
//
// Entries are flat records addressed by (owner, path, name), where path is
// the parent directory. Folders hold no children directly; a child is any
// entry whose path equals the folder's full path. Store layers hierarchy
// on top of a Repository: sanitization, existence walks, ordering and
// cascading deletes. Two repositories are provided, an in-memory map and a
// GORM/SQLite table with a unique (owner, path, name) index.
package vfs
