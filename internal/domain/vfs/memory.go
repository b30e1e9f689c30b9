package vfs

import (
	"context"
	"sync"
)

type entryKey struct {
	dir  string
	name string
}

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	owners map[string]map[entryKey]Entry
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{owners: make(map[string]map[entryKey]Entry)}
}

func (r *MemoryRepository) FindOne(_ context.Context, owner, dir, name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.owners[owner][entryKey{dir, name}]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryRepository) Find(_ context.Context, owner, dir string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for k, e := range r.owners[owner] {
		if k.dir == dir {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Insert(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.owners[e.Owner]
	if !ok {
		entries = make(map[entryKey]Entry)
		r.owners[e.Owner] = entries
	}
	k := entryKey{e.Path, e.Name}
	if _, exists := entries[k]; exists {
		return ErrAlreadyExists
	}
	entries[k] = e
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := entryKey{e.Path, e.Name}
	cur, ok := r.owners[e.Owner][k]
	if !ok {
		return ErrNotFound
	}
	cur.Content = e.Content
	cur.Size = e.Size
	cur.Permissions = e.Permissions
	cur.UpdatedAt = e.UpdatedAt
	r.owners[e.Owner][k] = cur
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, owner, dir, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := entryKey{dir, name}
	if _, ok := r.owners[owner][k]; !ok {
		return ErrNotFound
	}
	delete(r.owners[owner], k)
	return nil
}

func (r *MemoryRepository) RemoveTree(_ context.Context, owner, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k := range r.owners[owner] {
		if IsDescendant(k.dir, prefix) {
			delete(r.owners[owner], k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of entries held for owner.
func (r *MemoryRepository) Len(owner string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners[owner])
}
