// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package session

import (
	"strings"
	"time"
	"unicode"

	"github.com/pacure/chatcore/model"
)

// =============================================================================
// MESSAGE LOG OPERATIONS
// =============================================================================

// AppendUserMessage appends a user message at the tail of the conversation
// and returns its index. Content and attachment must not both be absent.
func (s *Store) AppendUserMessage(id, content string, att *model.Attachment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return 0, ErrInvalidConversation
	}
	if strings.TrimSpace(content) == "" && att == nil {
		return 0, ErrEmptyQuery
	}

	msg := model.NewUserMessage(content, att)
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()

	// First query names the conversation unless the user already did.
	if conv.Title == "" && !conv.TitleSet && content != "" {
		conv.Title = deriveTitle(content, s.titleLimit)
	}

	s.persistLocked()
	return len(conv.Messages) - 1, nil
}

// AppendAssistantMessage appends an assistant message built from the given
// payload and returns its index. A failed payload yields a failed message
// with empty sources; the append itself still succeeds.
func (s *Store) AppendAssistantMessage(id string, content model.AssistantContent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return 0, ErrInvalidConversation
	}

	conv.Messages = append(conv.Messages, model.NewAssistantMessage(content))
	conv.UpdatedAt = time.Now()
	s.persistLocked()
	return len(conv.Messages) - 1, nil
}

// MarkLastAssistantInterrupted flags the conversation's last message as
// interrupted, if and only if it is an assistant message not already marked.
// Every other case is a no-op: the operation is idempotent and it races
// benignly with navigation, so an unknown id is not an error either.
func (s *Store) MarkLastAssistantInterrupted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return
	}
	last := conv.LastMessage()
	if last == nil || last.Role != model.RoleAssistant || last.Interrupted {
		return
	}

	last.Interrupted = true
	conv.UpdatedAt = time.Now()
	s.persistLocked()
}

// RedoFromAssistant removes the assistant message at assistantIndex together
// with the nearest preceding user message (and anything between them) and
// returns that user message's query text for re-submission. On
// ErrNoPriorQuery the log is left untouched.
func (s *Store) RedoFromAssistant(id string, assistantIndex int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return "", ErrInvalidConversation
	}
	if assistantIndex <= 0 || assistantIndex >= len(conv.Messages) {
		return "", ErrNoPriorQuery
	}

	userIndex := -1
	for i := assistantIndex - 1; i >= 0; i-- {
		if conv.Messages[i].Role == model.RoleUser {
			userIndex = i
			break
		}
	}
	if userIndex < 0 {
		return "", ErrNoPriorQuery
	}

	query := conv.Messages[userIndex].PlainText
	conv.Messages = append(conv.Messages[:userIndex], conv.Messages[assistantIndex+1:]...)
	conv.UpdatedAt = time.Now()
	s.persistLocked()
	return query, nil
}

// PlainTextOf returns the plain text of one message, for copying or reading
// aloud.
func (s *Store) PlainTextOf(id string, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return "", ErrNotFound
	}
	if index < 0 || index >= len(conv.Messages) {
		return "", ErrNotFound
	}
	return conv.Messages[index].PlainText, nil
}

// ExportMarkdown renders a conversation transcript as Markdown.
func (s *Store) ExportMarkdown(id string) (string, error) {
	conv, err := s.Conversation(id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# " + conv.DisplayTitle() + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n---\n\n")
	for _, msg := range conv.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.CreatedAt.Format("15:04") + "):\n\n")
		text := msg.PlainText
		if text == "" {
			text = msg.Content
		}
		sb.WriteString(text)
		if msg.Interrupted {
			sb.WriteString("\n\n_(respuesta detenida)_")
		}
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String(), nil
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// deriveTitle builds a display title from query text: punctuation is
// stripped (letters, digits and spaces survive, accented letters included),
// whitespace is collapsed, and the result is truncated at limit runes with
// an ellipsis marker.
func deriveTitle(query string, limit int) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(cleaned)
	if len(runes) <= limit {
		return cleaned
	}
	return string(runes[:limit]) + "..."
}
