// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATE
// =============================================================================

// State tracks the delivery outcome of an assistant message. A message only
// enters the log once its outcome is known, so there is no persisted pending
// state; a pending placeholder is a rendering concern of the caller.
type State string

const (
	// StateDelivered means the backend (or the local responder) produced an
	// answer and the message carries it.
	StateDelivered State = "delivered"

	// StateFailed means the dispatch failed and the message carries a
	// rendered error notice instead of an answer.
	StateFailed State = "failed"
)

// =============================================================================
// SUPPORTING TYPES
// =============================================================================

// Source is one citation attached to an assistant message.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Attachment is an optional binary payload on a user message, for example an
// image sent along with the query. Data is raw bytes; the dispatcher encodes
// it for the wire.
type Attachment struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"data,omitempty"`
}

// AssistantContent is the payload an assistant message is built from. Markup
// is the rendering payload; PlainText is the text read aloud or copied, so
// nothing ever has to be reverse-engineered out of the markup.
type AssistantContent struct {
	Markup      string
	PlainText   string
	Sources     []Source
	ResourceURL string
	Failed      bool
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a conversation.
//
// Content is an opaque rendering payload: for user messages it is the literal
// query text, for assistant messages it is markup produced from the backend
// answer. Interrupted is only meaningful on assistant messages and flips to
// true at most once, after the message already exists.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	PlainText string    `json:"plain_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// User messages only.
	Attachment *Attachment `json:"attachment,omitempty"`

	// Assistant messages only.
	Sources     []Source `json:"sources,omitempty"`
	ResourceURL string   `json:"resource_url,omitempty"`
	State       State    `json:"state,omitempty"`
	Interrupted bool     `json:"interrupted,omitempty"`
}

// NewUserMessage creates a user message carrying the literal query text and
// an optional attachment.
func NewUserMessage(content string, att *Attachment) *Message {
	return &Message{
		ID:         uuid.NewString(),
		Role:       RoleUser,
		Content:    content,
		PlainText:  content,
		CreatedAt:  time.Now(),
		Attachment: att,
	}
}

// NewAssistantMessage creates an assistant message from a content payload.
// Failed payloads never carry sources or a resource URL.
func NewAssistantMessage(c AssistantContent) *Message {
	msg := &Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   c.Markup,
		PlainText: c.PlainText,
		CreatedAt: time.Now(),
		State:     StateDelivered,
	}
	if c.Failed {
		msg.State = StateFailed
		return msg
	}
	msg.Sources = cloneSources(c.Sources)
	msg.ResourceURL = c.ResourceURL
	return msg
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	cp := *m
	if m.Attachment != nil {
		att := *m.Attachment
		att.Data = append([]byte(nil), m.Attachment.Data...)
		cp.Attachment = &att
	}
	cp.Sources = cloneSources(m.Sources)
	return &cp
}

// IsEmpty returns true if the message has no content and no attachment.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && m.Attachment == nil
}

// Preview returns a truncated preview of the message plain text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	text := m.PlainText
	if text == "" {
		text = m.Content
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func cloneSources(src []Source) []Source {
	if len(src) == 0 {
		return nil
	}
	return append([]Source(nil), src...)
}
