package vfs

import "context"

// Repository is the document store holding Entry records. Every call is
// scoped to one owner. Implementations return ErrNotFound and
// ErrAlreadyExists unwrapped; any other error is a persistence failure.
type Repository interface {
	// FindOne returns the entry named name inside dir.
	FindOne(ctx context.Context, owner, dir, name string) (Entry, error)
	// Find returns the direct children of dir in no particular order.
	Find(ctx context.Context, owner, dir string) ([]Entry, error)
	// Insert stores a new entry, enforcing uniqueness of (owner, path, name).
	Insert(ctx context.Context, e Entry) error
	// Update replaces content, size, permissions and UpdatedAt of an existing entry.
	Update(ctx context.Context, e Entry) error
	// Remove deletes the entry named name inside dir.
	Remove(ctx context.Context, owner, dir, name string) error
	// RemoveTree deletes every entry whose Path is prefix or lies beneath it.
	RemoveTree(ctx context.Context, owner, prefix string) (int64, error)
}
