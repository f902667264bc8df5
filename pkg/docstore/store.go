// Package docstore turns a versioned storage blob into an atomic, typed,
// mutable JSON document. Every mutating endpoint in this service is "read
// whole document, change one entry, write whole document back", which is
// unsafe under concurrent callers unless each write is conditional on the
// version read. Store.Mutate wraps that cycle in a bounded optimistic retry
// loop; documents stay small (one blob per concern) so a full rewrite is
// cheap to retry.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentgate/agentgate/pkg/cerr"
	"github.com/agentgate/agentgate/pkg/storage"
)

// ErrTooManyConflicts is wrapped into the error returned when Mutate runs
// out of attempts under sustained write contention.
var ErrTooManyConflicts = errors.New("too many concurrent updates")

// ErrNoChange can be returned by a mutation to commit nothing: Mutate stops
// and returns the current document without a backend write.
var ErrNoChange = errors.New("no change")

const defaultAttempts = 5

// Document is the constraint for stored document types. Touch stamps the
// document with the write time; Mutate calls it as the final step before
// encoding. Normalize runs after every decode and repairs fields that
// well-formed JSON can still leave unusable, nil maps in particular
// (`{"permissions": null}` decodes without error but zeroes the map).
type Document interface {
	Touch(now time.Time)
	Normalize()
}

// Store is a typed JSON document over a storage path. D must be a pointer
// type; empty produces the document used when the path does not exist yet.
type Store[D Document] struct {
	storage  storage.Storage
	path     string
	empty    func() D
	attempts int
	now      func() time.Time
}

type Option func(*config)

type config struct {
	attempts int
	now      func() time.Time
}

// WithAttempts bounds the Mutate retry loop.
func WithAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithClock overrides the write timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

func New[D Document](st storage.Storage, path string, empty func() D, opts ...Option) *Store[D] {
	cfg := config{
		attempts: defaultAttempts,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[D]{
		storage:  st,
		path:     path,
		empty:    empty,
		attempts: cfg.attempts,
		now:      cfg.now,
	}
}

// Load reads and decodes the current document. A missing path yields the
// empty document with an empty version, not an error.
func (s *Store[D]) Load(ctx context.Context) (D, storage.Version, error) {
	var zero D
	data, version, err := s.storage.Read(ctx, s.path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.empty(), "", nil
		}
		return zero, "", cerr.WrapStorageReadError(s.path, err)
	}
	doc := s.empty()
	if err := json.Unmarshal(data, doc); err != nil {
		// The stored bytes are unparseable. Refusing to decode (rather than
		// starting over from an empty document) is what keeps Mutate from
		// ever overwriting data it could not read.
		return zero, "", cerr.NewError(cerr.DataLoss, "stored document is corrupt",
			fmt.Errorf("failed to decode %s: %w", s.path, err))
	}
	doc.Normalize()
	return doc, version, nil
}

// Mutate applies fn to the current document and writes the result back,
// conditional on the version read. On a version conflict the whole cycle
// retries with fn applied to the fresh value, so fn must be a pure function
// of the document it is given; side-channel values captured by fn must be
// assigned, not accumulated, since fn can run more than once.
func (s *Store[D]) Mutate(ctx context.Context, fn func(D) (D, error)) (D, error) {
	var zero D
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, cerr.NewError(cerr.DeadlineExceeded, "timed out updating document",
				fmt.Errorf("%s: %w", s.path, err))
		}
		current, version, err := s.Load(ctx)
		if err != nil {
			return zero, err
		}
		next, err := fn(current)
		if err != nil {
			if errors.Is(err, ErrNoChange) {
				return current, nil
			}
			return zero, err
		}
		next.Touch(s.now())
		data, err := json.MarshalIndent(next, "", "  ")
		if err != nil {
			return zero, cerr.NewError(cerr.Internal, "server error",
				fmt.Errorf("failed to encode %s: %w", s.path, err))
		}
		if _, err := s.storage.Write(ctx, s.path, data, version); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				slog.WarnContext(ctx, "document changed under writer, retrying",
					"path", s.path, "attempt", attempt)
				continue
			}
			return zero, cerr.WrapStorageWriteError(s.path, err)
		}
		return next, nil
	}
	return zero, cerr.NewError(cerr.Unavailable, "storage is busy, retry later",
		fmt.Errorf("%s: %w", s.path, ErrTooManyConflicts))
}
