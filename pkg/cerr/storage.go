package cerr

import (
	"fmt"
)

// WrapStorageReadError classifies a backend read failure as Unavailable.
// Callers that treat a missing path as a non-error (docstore.Load) handle
// storage.ErrNotFound before wrapping.
func WrapStorageReadError(target string, err error) error {
	return NewError(Unavailable, "storage unavailable", fmt.Errorf("failed to read %s: %w", target, err))
}

func WrapStorageWriteError(target string, err error) error {
	return NewError(Unavailable, "storage unavailable", fmt.Errorf("failed to write %s: %w", target, err))
}
