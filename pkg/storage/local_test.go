package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLocalStorageWriteNewAndRead(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	ctx := context.Background()

	content := []byte(`{"hello":"world"}`)
	version, err := s.Write(ctx, "doc.json", content, "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if version == "" {
		t.Fatal("Write returned empty version")
	}

	data, readVersion, err := s.Read(ctx, "doc.json")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("read data mismatch: got %q, want %q", data, content)
	}
	if readVersion != version {
		t.Errorf("version mismatch: read %q, write returned %q", readVersion, version)
	}
}

func TestLocalStorageReadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}

	_, _, err = s.Read(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorageStaleVersionConflict(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	ctx := context.Background()

	v1, err := s.Write(ctx, "doc.json", []byte("one"), "")
	if err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if _, err := s.Write(ctx, "doc.json", []byte("two"), v1); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	// v1 is stale now.
	_, err = s.Write(ctx, "doc.json", []byte("three"), v1)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %T", err)
	}
	if conflict.Expected != v1 {
		t.Errorf("conflict.Expected = %q, want %q", conflict.Expected, v1)
	}
}

func TestLocalStorageCreateOverExisting(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Write(ctx, "doc.json", []byte("one"), ""); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Empty expected version means "must not exist yet".
	_, err = s.Write(ctx, "doc.json", []byte("two"), "")
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestLocalStorageVersionTracksContent(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	ctx := context.Background()

	v1, err := s.Write(ctx, "doc.json", []byte("one"), "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	v2, err := s.Write(ctx, "doc.json", []byte("two"), v1)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if v1 == v2 {
		t.Error("different content produced the same version")
	}
}
