// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package session owns the session collection: every conversation, the
// currently selected one, and the only code path that mutates either.
//
// The Store is the single writer. Every mutating operation re-serializes the
// whole collection to the persistence record before it returns, so the
// in-memory state and the persisted state are read-consistent at every
// observable point; a reload boundary never sees dangling unsaved state.
//
// Message log rules:
//
//   - messages are append-only and keep call order
//   - an assistant message's Interrupted flag can flip to true at most once
//   - RedoFromAssistant removes a user/assistant pair atomically, or nothing
//
// Persistence failures do not abort mutations; they are logged and the
// in-memory state stays authoritative until the next successful write.
package session
