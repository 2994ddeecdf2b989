// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package kv provides whole-record key-value persistence for chatcore.
//
// Each logical store (the session collection, a saved-document collection)
// is one serialized record under a fixed name. Records are always read and
// written as a whole; there are no partial writes. A missing record is
// reported with ErrNotFound and callers treat it as "empty, start fresh".
//
// # Backends
//
//   - FileStore: one JSON file per record, written atomically
//   - SQLiteStore: one row per record in a single-table SQLite database
//
// # Watching
//
// Watcher observes a FileStore's directory and reports records changed by
// another process, so an embedder can reload state the way a browser tab
// reacts to a storage event from a sibling tab.
package kv
