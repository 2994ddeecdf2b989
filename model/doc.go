// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package model contains the data structures for conversations and messages.
//
// A Conversation is one chat thread: an identifier, a display title and an
// ordered message transcript. A Message is one turn in that transcript,
// authored by either the user or the assistant. Messages are created
// atomically and are immutable afterwards, with a single exception: the
// Interrupted flag on assistant messages may flip from false to true exactly
// once, when the user manually stops speech playback of that message.
//
// # Key Types
//
//   - Conversation: one thread with ordered Messages
//   - Message: one turn, tagged RoleUser or RoleAssistant
//   - AssistantContent: the payload an assistant turn is built from
//   - Attachment: optional binary payload on a user turn
//   - Source: one citation (display name plus URL) on an assistant turn
package model
