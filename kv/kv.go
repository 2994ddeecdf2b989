// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package kv

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a named record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidName is returned for record names that cannot be used as
	// storage keys (empty, or containing path separators).
	ErrInvalidName = errors.New("invalid record name")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists named records with whole-record semantics: Get returns the
// entire record, Put replaces it entirely. Implementations must make Put
// all-or-nothing so a reader never observes a partially written record.
type Store interface {
	// Get returns the record's full contents, or ErrNotFound.
	Get(name string) ([]byte, error)

	// Put replaces the record's full contents, creating it if absent.
	Put(name string, value []byte) error

	// Delete removes the record, or returns ErrNotFound.
	Delete(name string) error

	// Close releases any resources held by the store.
	Close() error
}

// validateName rejects names that would escape the store's namespace.
func validateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ErrInvalidName
		}
	}
	return nil
}
