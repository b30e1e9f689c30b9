package vfs

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// Recorder receives the outcome of every store operation.
type Recorder interface {
	ObserveStoreOperation(op string, err error, duration time.Duration)
}

// HomeDir is the working directory every new session starts in.
const HomeDir = "/home/user"

// Store is the owner-scoped virtual filesystem. Paths passed in are
// sanitized before use; names are validated.
type Store struct {
	repo    Repository
	locks   *keyedMutex
	now     func() time.Time
	metrics Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics reports operation outcomes to r.
func WithMetrics(r Recorder) Option {
	return func(s *Store) { s.metrics = r }
}

// NewStore creates a Store over repo.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize ensures /home and /home/user exist for owner. Safe to repeat.
func (s *Store) Initialize(ctx context.Context, owner string) (err error) {
	defer s.observe("initialize", time.Now(), &err)

	dir := Root
	for _, name := range Segments(HomeDir) {
		if err := s.ensureFolder(ctx, owner, dir, name); err != nil {
			return err
		}
		dir = Join(dir, name)
	}
	return nil
}

func (s *Store) ensureFolder(ctx context.Context, owner, dir, name string) error {
	e, err := s.repo.FindOne(ctx, owner, dir, name)
	switch {
	case err == nil:
		if !e.IsFolder() {
			return &PathError{Kind: ErrTypeMismatch, Type: TypeFolder, Name: name}
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return &StoreError{Op: "initialize", Err: err}
	}

	_, err = s.create(ctx, owner, dir, name, TypeFolder, "")
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
}

// List returns the children of dir, folders first, then by name.
func (s *Store) List(ctx context.Context, owner, dir string) (_ []Entry, err error) {
	defer s.observe("list", time.Now(), &err)

	entries, err := s.repo.Find(ctx, owner, SanitizePath(dir))
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	if entries == nil {
		entries = []Entry{}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].IsFolder()
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Create adds a new entry. Folders ignore content.
func (s *Store) Create(ctx context.Context, owner, dir, name string, typ EntryType, content string) (_ Entry, err error) {
	defer s.observe("create", time.Now(), &err)
	return s.create(ctx, owner, SanitizePath(dir), name, typ, content)
}

func (s *Store) create(ctx context.Context, owner, dir, name string, typ EntryType, content string) (Entry, error) {
	if !typ.Valid() {
		return Entry{}, ErrInvalidType
	}
	if !ValidName(name) {
		return Entry{}, &PathError{Kind: ErrInvalidName, Type: typ, Name: name}
	}
	if typ == TypeFolder {
		content = ""
	}

	unlock := s.locks.Lock(entryLockKey(owner, dir, name))
	defer unlock()

	if _, err := s.repo.FindOne(ctx, owner, dir, name); err == nil {
		return Entry{}, &PathError{Kind: ErrAlreadyExists, Type: typ, Name: name}
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, &StoreError{Op: "create", Err: err}
	}

	now := s.now()
	e := Entry{
		ID:          id.NewEntryID(),
		Owner:       owner,
		Path:        dir,
		Name:        name,
		Type:        typ,
		Size:        int64(len(content)),
		Permissions: defaultPermissions(typ),
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return Entry{}, &PathError{Kind: ErrAlreadyExists, Type: typ, Name: name}
		}
		return Entry{}, &StoreError{Op: "create", Err: err}
	}
	return e, nil
}

// Read returns the content of file name in dir.
func (s *Store) Read(ctx context.Context, owner, dir, name string) (_ string, err error) {
	defer s.observe("read", time.Now(), &err)

	e, err := s.lookup(ctx, "read", owner, SanitizePath(dir), name, TypeFile)
	if err != nil {
		return "", err
	}
	return e.Content, nil
}

// Write replaces the content of an existing file.
func (s *Store) Write(ctx context.Context, owner, dir, name, content string) (_ Entry, err error) {
	defer s.observe("write", time.Now(), &err)
	return s.modify(ctx, "write", owner, SanitizePath(dir), name, func(string) string { return content })
}

// Append adds content to the end of an existing file.
func (s *Store) Append(ctx context.Context, owner, dir, name, content string) (_ Entry, err error) {
	defer s.observe("append", time.Now(), &err)
	return s.modify(ctx, "append", owner, SanitizePath(dir), name, func(old string) string { return old + content })
}

func (s *Store) modify(ctx context.Context, op, owner, dir, name string, next func(string) string) (Entry, error) {
	unlock := s.locks.Lock(entryLockKey(owner, dir, name))
	defer unlock()

	e, err := s.lookup(ctx, op, owner, dir, name, TypeFile)
	if err != nil {
		return Entry{}, err
	}
	e.Content = next(e.Content)
	e.Size = int64(len(e.Content))
	e.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Entry{}, &PathError{Kind: ErrNotFound, Type: TypeFile, Name: name}
		}
		return Entry{}, &StoreError{Op: op, Err: err}
	}
	return e, nil
}

// Delete removes the entry name in dir. typ restricts the match to files
// or folders; empty matches either. Deleting a folder removes every entry
// at or beneath its full path.
func (s *Store) Delete(ctx context.Context, owner, dir, name string, typ EntryType) (err error) {
	defer s.observe("delete", time.Now(), &err)

	dir = SanitizePath(dir)
	unlock := s.locks.Lock(entryLockKey(owner, dir, name))
	defer unlock()

	e, err := s.lookup(ctx, "delete", owner, dir, name, typ)
	if err != nil {
		return err
	}

	if e.IsFolder() {
		if _, err := s.repo.RemoveTree(ctx, owner, e.FullPath()); err != nil {
			return &StoreError{Op: "delete", Err: err}
		}
	}
	if err := s.repo.Remove(ctx, owner, dir, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &PathError{Kind: ErrNotFound, Type: typ, Name: name}
		}
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// Exists reports whether p names a folder, walking from the root and
// confirming a folder at each level. The root always exists.
func (s *Store) Exists(ctx context.Context, owner, p string) (_ bool, err error) {
	defer s.observe("exists", time.Now(), &err)

	dir := Root
	for _, name := range Segments(p) {
		e, err := s.repo.FindOne(ctx, owner, dir, name)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, &StoreError{Op: "exists", Err: err}
		}
		if !e.IsFolder() {
			return false, nil
		}
		dir = Join(dir, name)
	}
	return true, nil
}

// Stat returns the entry name in dir.
func (s *Store) Stat(ctx context.Context, owner, dir, name string) (_ Entry, err error) {
	defer s.observe("stat", time.Now(), &err)
	return s.lookup(ctx, "stat", owner, SanitizePath(dir), name, "")
}

func (s *Store) lookup(ctx context.Context, op, owner, dir, name string, typ EntryType) (Entry, error) {
	e, err := s.repo.FindOne(ctx, owner, dir, name)
	if errors.Is(err, ErrNotFound) {
		return Entry{}, &PathError{Kind: ErrNotFound, Type: typ, Name: name}
	}
	if err != nil {
		return Entry{}, &StoreError{Op: op, Err: err}
	}
	if typ != "" && e.Type != typ {
		return Entry{}, &PathError{Kind: ErrTypeMismatch, Type: typ, Name: name}
	}
	return e, nil
}

func (s *Store) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveStoreOperation(op, *err, time.Since(start))
}
