// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package speech

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// =============================================================================
// SYNTHESIZER CAPABILITY
// =============================================================================

// CancelFunc aborts an in-flight utterance. It must be safe to call more
// than once.
type CancelFunc func()

// Events carries the lifecycle callbacks a synthesizer invokes for one
// utterance. Callbacks may fire from any goroutine; nil fields are skipped.
type Events struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// Synthesizer is the platform speech capability. Implementations speak the
// given text in the given locale and report lifecycle events until the
// returned CancelFunc is called or the utterance ends on its own.
type Synthesizer interface {
	Speak(text string, locale language.Tag, ev Events) (CancelFunc, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// State names the controller's position in the utterance lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
	StateCancelled State = "cancelled"
)

// Binding ties an utterance to the conversation owning the message being
// read, so a user-initiated stop can be recorded against it.
type Binding struct {
	ConversationID string
}

// Controller runs at most one utterance at a time. Starting a new utterance
// cancels the previous one without recording an interruption; only
// Stop(true) fires the interrupt hook.
type Controller struct {
	mu         sync.Mutex
	synth      Synthesizer
	locale     language.Tag
	log        zerolog.Logger
	state      State
	generation uint64
	cancel     CancelFunc
	binding    *Binding
	interrupt  func(conversationID string)
}

// New creates a controller around synth. A nil synth is permitted and turns
// Speak into a logged no-op, for hosts without a speech capability.
func New(synth Synthesizer, locale language.Tag) *Controller {
	return &Controller{
		synth:  synth,
		locale: locale,
		log:    zerolog.Nop(),
		state:  StateIdle,
	}
}

// WithLogger sets the logger used for lifecycle events. Returns the
// controller for chaining.
func (c *Controller) WithLogger(log zerolog.Logger) *Controller {
	c.log = log
	return c
}

// SetInterruptHook installs the callback fired when a user-initiated stop
// cuts off a bound utterance.
func (c *Controller) SetInterruptHook(fn func(conversationID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interrupt = fn
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether an utterance is in flight.
func (c *Controller) Active() bool {
	return c.State() == StateActive
}

// Speak starts reading text aloud, first cancelling any utterance already
// in flight. That supersession is silent: no interruption is recorded for
// the replaced utterance. binding may be nil for unbound playback.
func (c *Controller) Speak(text string, binding *Binding) error {
	c.mu.Lock()
	if c.synth == nil {
		c.mu.Unlock()
		c.log.Warn().Msg("No speech synthesizer available, ignoring read-aloud request")
		return nil
	}

	prev := c.cancel
	c.cancel = nil
	c.generation++
	gen := c.generation
	c.state = StateActive
	c.binding = binding
	synth := c.synth
	locale := c.locale
	c.mu.Unlock()

	if prev != nil {
		prev()
	}

	cancel, err := synth.Speak(text, locale, Events{
		OnStart: func() {
			c.log.Debug().Msg("Utterance started")
		},
		OnEnd: func() {
			c.settle(gen, StateCompleted, nil)
		},
		OnError: func(err error) {
			c.settle(gen, StateErrored, err)
		},
	})
	if err != nil {
		c.settle(gen, StateErrored, err)
		return err
	}

	c.mu.Lock()
	if c.generation == gen && c.state == StateActive {
		c.cancel = cancel
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	// Superseded while starting up.
	if cancel != nil {
		cancel()
	}
	return nil
}

// Stop cancels the active utterance, if any. When userInitiated and the
// utterance is bound to a conversation, the interrupt hook is fired so the
// transcript records the cut-off. Stopping an idle controller is a no-op.
func (c *Controller) Stop(userInitiated bool) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	binding := c.binding
	hook := c.interrupt
	c.cancel = nil
	c.binding = nil
	c.state = StateCancelled
	c.generation++
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if userInitiated && binding != nil && hook != nil {
		hook(binding.ConversationID)
	}
}

// settle moves the controller out of the active state for generation gen.
// Callbacks from superseded utterances carry a stale generation and are
// dropped here.
func (c *Controller) settle(gen uint64, state State, err error) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.cancel = nil
	c.binding = nil
	c.mu.Unlock()

	if err != nil {
		c.log.Error().Err(err).Msg("Speech synthesis failed")
	}
}
