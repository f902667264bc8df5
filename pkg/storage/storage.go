package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when a conditional write loses against a
// concurrent writer: the document changed after the caller read it.
var ErrVersionConflict = errors.New("version conflict")

// Version identifies the state of a stored document at read time. It is
// opaque to callers; the empty version means "the document must not exist"
// when passed to Write, and is never returned from a successful Read.
type Version string

// ConflictError reports the version mismatch behind an ErrVersionConflict.
type ConflictError struct {
	Path     string
	Expected Version
	Current  Version
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: expected %q, current %q", e.Path, e.Expected, e.Current)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Storage provides versioned reads and conditional writes of whole documents.
// Writes are conditional on the version observed at read time; a write with
// an empty expected version requires the path to not exist yet.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, Version, error)
	Write(ctx context.Context, path string, data []byte, expected Version) (Version, error)
}
