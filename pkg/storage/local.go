package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage implements Storage using the local filesystem. The version
// token is the hex SHA-256 of the file content. The filesystem has no native
// compare-and-swap, so Write re-hashes the current file immediately before
// replacing it; the in-process mutex makes that check-then-replace atomic
// for writers within this process, and best-effort against other processes.
type LocalStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewLocalStorage creates a new LocalStorage rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{basePath: abs}, nil
}

func (s *LocalStorage) resolve(path string) string {
	return filepath.Join(s.basePath, filepath.Clean(path))
}

func contentVersion(data []byte) Version {
	sum := sha256.Sum256(data)
	return Version(hex.EncodeToString(sum[:]))
}

func (s *LocalStorage) Read(_ context.Context, path string) ([]byte, Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, contentVersion(data), nil
}

func (s *LocalStorage) Write(_ context.Context, path string, data []byte, expected Version) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.resolve(path)

	var current Version
	cur, err := os.ReadFile(full)
	switch {
	case err == nil:
		current = contentVersion(cur)
	case os.IsNotExist(err):
		current = ""
	default:
		return "", fmt.Errorf("failed to read %s before write: %w", path, err)
	}
	if current != expected {
		return "", &ConflictError{Path: path, Expected: expected, Current: current}
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Atomic write: write to temp file then rename.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return contentVersion(data), nil
}
