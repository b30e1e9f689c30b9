package vfs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrAlreadyExists = errors.New("entry already exists")
	ErrInvalidName   = errors.New("invalid entry name")
	ErrInvalidType   = errors.New("invalid entry type")
	ErrTypeMismatch  = errors.New("entry type mismatch")
)

// PathError describes a failed operation on a named entry. Its message is
// user-facing and shown verbatim in the terminal.
type PathError struct {
	Kind error
	Type EntryType // expected type; empty means either
	Name string
}

func (e *PathError) Error() string {
	switch e.Kind {
	case ErrAlreadyExists:
		t := e.Type
		if t == "" {
			t = TypeFile
		}
		return fmt.Sprintf("%s '%s' already exists", t, e.Name)
	case ErrNotFound:
		switch e.Type {
		case TypeFile:
			return fmt.Sprintf("File '%s' not found", e.Name)
		case TypeFolder:
			return fmt.Sprintf("Folder '%s' not found", e.Name)
		default:
			return fmt.Sprintf("File or folder '%s' not found", e.Name)
		}
	case ErrTypeMismatch:
		if e.Type == TypeFolder {
			return fmt.Sprintf("'%s' is not a folder", e.Name)
		}
		return fmt.Sprintf("'%s' is a folder", e.Name)
	case ErrInvalidName:
		return fmt.Sprintf("invalid name '%s'", e.Name)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Kind)
}

func (e *PathError) Unwrap() error { return e.Kind }

// StoreError wraps a persistence failure from the Repository.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err is a persistence failure rather than a
// user-facing condition.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
