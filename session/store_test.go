// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package session

import (
	"errors"
	"testing"

	"github.com/pacure/chatcore/kv"
	"github.com/pacure/chatcore/model"
)

func newTestStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	records, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	s := New(records)
	s.Load()
	return s, records
}

// =============================================================================
// COLLECTION TESTS
// =============================================================================

func TestStore_CreateSelectsAndPersists(t *testing.T) {
	s, records := newTestStore(t)

	id := s.CreateConversation()
	if id == "" {
		t.Fatal("Expected non-empty conversation id")
	}
	if s.Selected() != id {
		t.Errorf("Selected() = %q, want %q", s.Selected(), id)
	}

	// The collection must already be on disk.
	if _, err := records.Get(RecordName); err != nil {
		t.Errorf("Session record should exist after create: %v", err)
	}
}

func TestStore_SelectConversation(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.CreateConversation()
	second := s.CreateConversation()

	if s.Selected() != second {
		t.Fatalf("Selected() = %q, want %q", s.Selected(), second)
	}
	if err := s.SelectConversation(first); err != nil {
		t.Fatalf("SelectConversation failed: %v", err)
	}
	if s.Selected() != first {
		t.Errorf("Selected() = %q, want %q", s.Selected(), first)
	}

	if err := s.SelectConversation("conv_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_SelectStopsUtteranceWithoutInterrupting(t *testing.T) {
	s, _ := newTestStore(t)

	id := s.CreateConversation()
	s.AppendUserMessage(id, "hola", nil)
	s.AppendAssistantMessage(id, model.AssistantContent{Markup: "<p>r</p>", PlainText: "r"})
	other := s.CreateConversation()
	_ = other

	stops := 0
	s.SetUtteranceStopper(func() { stops++ })

	if err := s.SelectConversation(id); err != nil {
		t.Fatalf("SelectConversation failed: %v", err)
	}
	if stops != 1 {
		t.Errorf("Stopper invoked %d times, want 1", stops)
	}

	conv, _ := s.Conversation(id)
	if conv.Messages[1].Interrupted {
		t.Error("Navigation stop must not set the interrupted flag")
	}
}

func TestStore_DeleteReselectsMostRecent(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.CreateConversation()
	second := s.CreateConversation()
	third := s.CreateConversation()

	if err := s.DeleteConversation(third); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if s.Selected() != second {
		t.Errorf("Selected() = %q, want most recent remaining %q", s.Selected(), second)
	}

	// Deleting an unselected conversation keeps the selection.
	if err := s.DeleteConversation(first); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if s.Selected() != second {
		t.Errorf("Selected() = %q, want %q", s.Selected(), second)
	}
}

func TestStore_DeleteLastCreatesFresh(t *testing.T) {
	s, _ := newTestStore(t)

	only := s.CreateConversation()
	if err := s.DeleteConversation(only); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	metas := s.ListConversations()
	if len(metas) != 1 {
		t.Fatalf("Expected one fresh conversation, got %d", len(metas))
	}
	if metas[0].ID == only {
		t.Error("Fresh conversation must have a new id")
	}
	if metas[0].MessageCount != 0 {
		t.Error("Fresh conversation must be empty")
	}
	if s.Selected() != metas[0].ID {
		t.Error("Fresh conversation must be selected")
	}
}

func TestStore_DeleteNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.DeleteConversation("conv_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListOrdering(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.CreateConversation()
	second := s.CreateConversation()
	third := s.CreateConversation()

	metas := s.ListConversations()
	if len(metas) != 3 {
		t.Fatalf("Expected 3 conversations, got %d", len(metas))
	}
	want := []string{third, second, first}
	for i, meta := range metas {
		if meta.ID != want[i] {
			t.Errorf("metas[%d].ID = %q, want %q (most recent first)", i, meta.ID, want[i])
		}
	}
}

func TestStore_SetTitleBlocksDerivation(t *testing.T) {
	s, _ := newTestStore(t)

	id := s.CreateConversation()
	if err := s.SetTitle(id, "Mi plan"); err != nil {
		t.Fatalf("SetTitle failed: %v", err)
	}

	s.AppendUserMessage(id, "hola", nil)
	conv, _ := s.Conversation(id)
	if conv.Title != "Mi plan" {
		t.Errorf("Title = %q, want user override to stick", conv.Title)
	}
}

// =============================================================================
// PERSISTENCE ROUND-TRIP TESTS
// =============================================================================

func TestStore_RoundTripAcrossReload(t *testing.T) {
	records, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	s := New(records)
	s.Load()

	id := s.CreateConversation()
	s.AppendUserMessage(id, "hola", nil)
	s.AppendAssistantMessage(id, model.AssistantContent{
		Markup:    "<p>respuesta</p>",
		PlainText: "respuesta",
		Sources:   []model.Source{{Name: "Wikipedia", URL: "https://es.wikipedia.org"}},
	})
	s.MarkLastAssistantInterrupted(id)
	before, _ := s.Conversation(id)

	// A second store over the same record is the page-reload boundary.
	reloaded := New(records)
	reloaded.Load()

	after, err := reloaded.Conversation(id)
	if err != nil {
		t.Fatalf("Conversation missing after reload: %v", err)
	}
	if after.Title != before.Title {
		t.Errorf("Title = %q, want %q", after.Title, before.Title)
	}
	if len(after.Messages) != len(before.Messages) {
		t.Fatalf("Message count = %d, want %d", len(after.Messages), len(before.Messages))
	}
	if !after.Messages[1].Interrupted {
		t.Error("Interrupted flag must survive reload")
	}
	if len(after.Messages[1].Sources) != 1 {
		t.Error("Sources must survive reload")
	}
	if reloaded.Selected() != id {
		t.Errorf("Selected() = %q, want most recent %q", reloaded.Selected(), id)
	}
}

func TestStore_LoadMalformedRecordStartsFresh(t *testing.T) {
	records, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	records.Put(RecordName, []byte("{not json"))

	s := New(records)
	s.Load()

	if len(s.ListConversations()) != 0 {
		t.Error("Malformed record must start fresh")
	}
	if s.Selected() != "" {
		t.Error("Fresh store must have no selection")
	}
}

func TestStore_ReloadKeepsSelectionWhenAlive(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.CreateConversation()
	s.CreateConversation()
	s.SelectConversation(first)

	s.Reload()
	if s.Selected() != first {
		t.Errorf("Selected() = %q, want selection to survive reload", s.Selected())
	}
}
