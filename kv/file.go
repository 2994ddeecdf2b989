// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package kv

import (
	"fmt"
	"os"
	"path/filepath"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps each record in its own JSON file under a base directory.
// Writes go through a write-fsync-rename sequence so a crash leaves either
// the old record or the new complete record, never a torn one.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the base directory holding the record files.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get returns the record's full contents, or ErrNotFound.
func (s *FileStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read record %q: %w", name, err)
	}
	return data, nil
}

// Put atomically replaces the record's full contents.
func (s *FileStore) Put(name string, value []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	return atomicWriteFile(s.recordPath(name), value, 0644)
}

// Delete removes the record, or returns ErrNotFound.
func (s *FileStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.recordPath(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete record %q: %w", name, err)
	}
	return nil
}

// Close implements Store. FileStore holds no open resources.
func (s *FileStore) Close() error {
	return nil
}

// recordPath returns the file path for a record name.
func (s *FileStore) recordPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// RecordFileName reports the file basename a record is stored under, for
// correlating watcher events back to record names.
func RecordFileName(name string) string {
	return name + ".json"
}

// =============================================================================
// ATOMIC WRITE
// =============================================================================

// atomicWriteFile writes data via a temp file in the target directory, syncs
// it to disk and renames it over the destination. The temp file must live in
// the same directory for the rename to be atomic.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync record to disk: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set record permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
