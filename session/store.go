// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package session

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pacure/chatcore/kv"
	"github.com/pacure/chatcore/model"
)

// RecordName is the fixed persistence key for the session collection.
const RecordName = "sessions"

// DefaultTitleLimit is the rune bound for derived conversation titles.
const DefaultTitleLimit = 30

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a conversation id is absent from the
	// collection.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidConversation is returned by message log operations that
	// target an unknown conversation.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrEmptyQuery is returned when a user message carries neither text
	// nor an attachment.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNoPriorQuery is returned by RedoFromAssistant when no user message
	// precedes the given assistant message.
	ErrNoPriorQuery = errors.New("no prior query to redo")
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store is the single source of truth for the session collection and the
// selection pointer. All mutation happens under one mutex and is mirrored to
// the persistence record before the mutating call returns.
type Store struct {
	mu sync.Mutex

	records       kv.Store
	conversations map[string]*model.Conversation
	selected      string

	titleLimit    int
	stopUtterance func() // non-interrupting stop, fired on navigation
	log           zerolog.Logger
}

// New creates a session store backed by the given record store. Call Load to
// restore previously persisted state.
func New(records kv.Store) *Store {
	return &Store{
		records:       records,
		conversations: make(map[string]*model.Conversation),
		titleLimit:    DefaultTitleLimit,
		log:           zerolog.Nop(),
	}
}

// WithLogger sets the store's logger.
func (s *Store) WithLogger(log zerolog.Logger) *Store {
	s.log = log
	return s
}

// WithTitleLimit overrides the rune bound for derived titles.
func (s *Store) WithTitleLimit(limit int) *Store {
	if limit > 0 {
		s.titleLimit = limit
	}
	return s
}

// SetUtteranceStopper installs the hook invoked when navigation must cut off
// an active speech utterance. The hook must not mark anything interrupted;
// navigation is not a user-initiated stop.
func (s *Store) SetUtteranceStopper(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopUtterance = fn
}

// =============================================================================
// LOAD / RELOAD
// =============================================================================

// persistedCollection is the serialized form of the session collection.
type persistedCollection struct {
	Conversations map[string]*model.Conversation `json:"conversations"`
}

// Load reads the persisted collection. A missing or malformed record means
// "start fresh" and is never an error. The most recently created
// conversation becomes selected, if any exist.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

// Reload re-reads the persisted collection, replacing in-memory state. Used
// when the record changed underneath the process (another writer). The
// current selection survives if its conversation still exists.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := s.selected
	s.loadLocked()
	if keep != "" {
		if _, ok := s.conversations[keep]; ok {
			s.selected = keep
		}
	}
}

func (s *Store) loadLocked() {
	s.conversations = make(map[string]*model.Conversation)
	s.selected = ""

	data, err := s.records.Get(RecordName)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read session record, starting fresh")
		}
		return
	}

	var col persistedCollection
	if err := json.Unmarshal(data, &col); err != nil {
		s.log.Warn().Err(err).Msg("malformed session record, starting fresh")
		return
	}
	for id, conv := range col.Conversations {
		if conv == nil || conv.ID != id {
			continue
		}
		s.conversations[id] = conv
	}
	s.selected = s.newestIDLocked()
}

// persistLocked mirrors the full collection to the record store. Failures
// are logged, never propagated: the in-memory state remains authoritative
// and the next successful write restores the invariant.
func (s *Store) persistLocked() {
	data, err := json.Marshal(persistedCollection{Conversations: s.conversations})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to serialize session collection")
		return
	}
	if err := s.records.Put(RecordName, data); err != nil {
		s.log.Error().Err(err).Msg("failed to persist session collection")
	}
}

// =============================================================================
// COLLECTION OPERATIONS
// =============================================================================

// CreateConversation allocates a new empty conversation, selects it and
// persists. It never fails.
func (s *Store) CreateConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := model.NewConversation()
	s.conversations[conv.ID] = conv
	s.selected = conv.ID
	s.persistLocked()

	s.log.Debug().Str("conversation", conv.ID).Msg("conversation created")
	return conv.ID
}

// SelectConversation moves the selection pointer. Navigating away cuts off
// any active speech utterance without marking it interrupted.
func (s *Store) SelectConversation(id string) error {
	s.mu.Lock()
	if _, ok := s.conversations[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.selected = id
	stop := s.stopUtterance
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	return nil
}

// DeleteConversation removes a conversation and persists. If the deleted
// conversation was selected, the most recently created remaining one becomes
// selected, or a fresh empty conversation is created when none remain.
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)

	if s.selected == id {
		s.selected = s.newestIDLocked()
		if s.selected == "" {
			conv := model.NewConversation()
			s.conversations[conv.ID] = conv
			s.selected = conv.ID
		}
	}
	s.persistLocked()

	s.log.Debug().Str("conversation", id).Msg("conversation deleted")
	return nil
}

// ListConversations returns metadata for every conversation, most recently
// created first. Side-effect free.
func (s *Store) ListConversations() []model.ConversationMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	metas := make([]model.ConversationMeta, 0, len(s.conversations))
	for _, conv := range s.conversations {
		metas = append(metas, conv.Meta())
	}
	// IDs are time-derived and zero-padded, so descending ID order is
	// descending creation order.
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].ID > metas[j].ID
	})
	return metas
}

// Conversation returns a deep copy of one conversation for rendering.
func (s *Store) Conversation(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

// Selected returns the selected conversation id, or "" when the collection
// is empty.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetTitle overrides a conversation's title and blocks further derivation.
func (s *Store) SetTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.Title = title
	conv.TitleSet = true
	conv.UpdatedAt = time.Now()
	s.persistLocked()
	return nil
}

// newestIDLocked returns the highest (most recently created) conversation
// id, or "".
func (s *Store) newestIDLocked() string {
	newest := ""
	for id := range s.conversations {
		if id > newest {
			newest = id
		}
	}
	return newest
}
