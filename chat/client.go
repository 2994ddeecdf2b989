// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pacure/chatcore/config"
	"github.com/pacure/chatcore/dispatch"
	"github.com/pacure/chatcore/kv"
	"github.com/pacure/chatcore/logging"
	"github.com/pacure/chatcore/model"
	"github.com/pacure/chatcore/render"
	"github.com/pacure/chatcore/session"
	"github.com/pacure/chatcore/speech"
)

// watchDebounce coalesces bursts of external storage writes into one reload.
const watchDebounce = 250 * time.Millisecond

// Result reports where Ask landed its answer.
type Result struct {
	// ConversationID is the conversation the exchange belongs to.
	ConversationID string

	// MessageIndex is the index of the appended assistant message. It is
	// meaningless when Discarded is set.
	MessageIndex int

	// Discarded is set when the user navigated away before the answer
	// arrived: the answer was dropped, not appended.
	Discarded bool
}

// Client is the assembled chat client.
type Client struct {
	cfg        *config.Config
	log        zerolog.Logger
	records    kv.Store
	store      *session.Store
	responders []dispatch.Responder
	speech     *speech.Controller
	renderer   *render.Renderer
	watcher    *kv.Watcher
}

// New builds a client from cfg. synth may be nil when the host has no
// speech capability; read-aloud then degrades to a logged no-op.
func New(cfg *config.Config, synth speech.Synthesizer) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logging.Setup(cfg.Log.Level)

	records, err := openRecords(cfg)
	if err != nil {
		return nil, err
	}

	store := session.New(records).
		WithLogger(logging.Component(log, "session")).
		WithTitleLimit(cfg.Title.MaxRunes)
	store.Load()

	remote := dispatch.NewClient(cfg.Backend.EndpointURL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second).
		WithLogger(logging.Component(log, "dispatch"))

	if !cfg.Speech.Enabled {
		synth = nil
	}
	controller := speech.New(synth, cfg.SpeechLocale()).
		WithLogger(logging.Component(log, "speech"))

	c := &Client{
		cfg:        cfg,
		log:        log,
		records:    records,
		store:      store,
		responders: []dispatch.Responder{dispatch.NewLocal(), remote},
		speech:     controller,
		renderer:   render.New(),
	}

	// Navigation silences playback; a user-initiated stop marks the reply.
	store.SetUtteranceStopper(func() { controller.Stop(false) })
	controller.SetInterruptHook(store.MarkLastAssistantInterrupted)

	// File storage can change underneath us (another client on the same
	// directory); reload when it does.
	if fs, ok := records.(*kv.FileStore); ok {
		watcher, err := kv.NewWatcher(fs, watchDebounce, func(record string) {
			if record == session.RecordName {
				store.Reload()
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("Storage watcher unavailable")
		} else if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Storage watcher failed to start")
			watcher.Close()
		} else {
			c.watcher = watcher
		}
	}

	return c, nil
}

// openRecords creates the configured persistence backend.
func openRecords(cfg *config.Config) (kv.Store, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "sqlite":
		store, err := kv.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := kv.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// Store exposes the session store for conversation management: listing,
// selection, deletion, titles and export.
func (c *Client) Store() *session.Store {
	return c.store
}

// Ask submits query on the selected conversation, creating one on first
// interaction. Dispatch failures append a failed assistant message rather
// than erroring; only an invalid query does. If the user switches
// conversations while the answer is in flight, the answer is discarded.
func (c *Client) Ask(ctx context.Context, query string, attachment *model.Attachment) (*Result, error) {
	id := c.store.Selected()
	if id == "" {
		id = c.store.CreateConversation()
	}

	if _, err := c.store.AppendUserMessage(id, query, attachment); err != nil {
		return nil, err
	}

	content := c.resolve(ctx, query, attachment)

	// The user may have navigated away while we waited on the backend.
	if c.store.Selected() != id {
		c.log.Debug().Str("conversation", id).Msg("Answer discarded after navigation")
		return &Result{ConversationID: id, Discarded: true}, nil
	}

	index, err := c.store.AppendAssistantMessage(id, content)
	if err != nil {
		return nil, err
	}
	return &Result{ConversationID: id, MessageIndex: index}, nil
}

// resolve runs the responder chain and renders the outcome.
func (c *Client) resolve(ctx context.Context, query string, attachment *model.Attachment) model.AssistantContent {
	for _, responder := range c.responders {
		ans, err := responder.Respond(ctx, query, attachment)
		if err != nil {
			c.log.Warn().Err(err).Msg("Query dispatch failed")
			return c.renderer.FailureContent(err)
		}
		if ans != nil {
			return c.renderer.Content(ans)
		}
	}
	// No responder produced an answer or an error. The remote client
	// always does one or the other, so this is a wiring problem.
	c.log.Error().Msg("No responder handled the query")
	return c.renderer.FailureContent(nil)
}

// ReadAloud speaks a message's plain text, bound to its conversation so a
// user stop is recorded against it.
func (c *Client) ReadAloud(conversationID string, index int) error {
	text, err := c.store.PlainTextOf(conversationID, index)
	if err != nil {
		return err
	}
	return c.speech.Speak(text, &speech.Binding{ConversationID: conversationID})
}

// StopSpeech cancels the active utterance. Pass true when the user asked
// for the stop, false for navigation-driven silencing.
func (c *Client) StopSpeech(userInitiated bool) {
	c.speech.Stop(userInitiated)
}

// Redo discards the exchange ending at assistantIndex and resubmits its
// query. The conversation is selected first so the fresh answer lands in it.
func (c *Client) Redo(ctx context.Context, conversationID string, assistantIndex int) (*Result, error) {
	if c.store.Selected() != conversationID {
		if err := c.store.SelectConversation(conversationID); err != nil {
			return nil, err
		}
	}
	query, err := c.store.RedoFromAssistant(conversationID, assistantIndex)
	if err != nil {
		return nil, err
	}
	return c.Ask(ctx, query, nil)
}

// Close stops playback and releases the storage backend.
func (c *Client) Close() error {
	c.speech.Stop(false)
	if c.watcher != nil {
		c.watcher.Close()
	}
	return c.records.Close()
}
