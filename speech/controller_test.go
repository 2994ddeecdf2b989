// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package speech

import (
	"errors"
	"testing"

	"golang.org/x/text/language"
)

// fakeSynth records utterances and lets tests drive lifecycle events by hand.
type fakeSynth struct {
	spoken   []string
	locales  []language.Tag
	events   []Events
	cancels  int
	speakErr error
}

func (f *fakeSynth) Speak(text string, locale language.Tag, ev Events) (CancelFunc, error) {
	if f.speakErr != nil {
		return nil, f.speakErr
	}
	f.spoken = append(f.spoken, text)
	f.locales = append(f.locales, locale)
	f.events = append(f.events, ev)
	return func() { f.cancels++ }, nil
}

func TestController_SpeakAndComplete(t *testing.T) {
	synth := &fakeSynth{}
	c := New(synth, language.Spanish)

	if err := c.Speak("hola mundo", nil); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if !c.Active() {
		t.Fatal("Expected an active utterance")
	}
	if len(synth.spoken) != 1 || synth.spoken[0] != "hola mundo" {
		t.Errorf("spoken = %v", synth.spoken)
	}
	if synth.locales[0] != language.Spanish {
		t.Errorf("locale = %v, want %v", synth.locales[0], language.Spanish)
	}

	synth.events[0].OnEnd()
	if got := c.State(); got != StateCompleted {
		t.Errorf("State() = %q, want %q", got, StateCompleted)
	}
}

func TestController_NilSynthesizerNoOps(t *testing.T) {
	c := New(nil, language.Spanish)
	if err := c.Speak("hola", nil); err != nil {
		t.Fatalf("Speak with nil synthesizer must not fail: %v", err)
	}
	if c.Active() {
		t.Error("Nothing should be active without a synthesizer")
	}
}

func TestController_SpeakSupersedesSilently(t *testing.T) {
	synth := &fakeSynth{}
	c := New(synth, language.Spanish)

	interrupts := 0
	c.SetInterruptHook(func(string) { interrupts++ })

	c.Speak("primera", &Binding{ConversationID: "conv_1"})
	c.Speak("segunda", &Binding{ConversationID: "conv_2"})

	if synth.cancels != 1 {
		t.Errorf("cancels = %d, want the first utterance cancelled", synth.cancels)
	}
	if interrupts != 0 {
		t.Error("Supersession must not fire the interrupt hook")
	}
	if !c.Active() {
		t.Error("Second utterance should be active")
	}

	// The first utterance's straggling callbacks are stale and ignored.
	synth.events[0].OnEnd()
	if !c.Active() {
		t.Error("Stale OnEnd must not settle the new utterance")
	}

	synth.events[1].OnEnd()
	if got := c.State(); got != StateCompleted {
		t.Errorf("State() = %q, want %q", got, StateCompleted)
	}
}

func TestController_StopUserInitiated(t *testing.T) {
	synth := &fakeSynth{}
	c := New(synth, language.Spanish)

	var interrupted []string
	c.SetInterruptHook(func(id string) { interrupted = append(interrupted, id) })

	c.Speak("hola", &Binding{ConversationID: "conv_42"})
	c.Stop(true)

	if synth.cancels != 1 {
		t.Errorf("cancels = %d, want 1", synth.cancels)
	}
	if got := c.State(); got != StateCancelled {
		t.Errorf("State() = %q, want %q", got, StateCancelled)
	}
	if len(interrupted) != 1 || interrupted[0] != "conv_42" {
		t.Errorf("interrupted = %v, want the bound conversation", interrupted)
	}

	// Stopping again is a no-op.
	c.Stop(true)
	if len(interrupted) != 1 || synth.cancels != 1 {
		t.Error("Repeat Stop must do nothing")
	}
}

func TestController_StopNavigationDoesNotInterrupt(t *testing.T) {
	synth := &fakeSynth{}
	c := New(synth, language.Spanish)

	interrupts := 0
	c.SetInterruptHook(func(string) { interrupts++ })

	c.Speak("hola", &Binding{ConversationID: "conv_1"})
	c.Stop(false)

	if interrupts != 0 {
		t.Error("Navigation stop must not fire the interrupt hook")
	}
	if got := c.State(); got != StateCancelled {
		t.Errorf("State() = %q, want %q", got, StateCancelled)
	}
}

func TestController_StopUnboundUtterance(t *testing.T) {
	synth := &fakeSynth{}
	c := New(synth, language.Spanish)

	interrupts := 0
	c.SetInterruptHook(func(string) { interrupts++ })

	c.Speak("hola", nil)
	c.Stop(true)

	if interrupts != 0 {
		t.Error("An unbound utterance has nothing to mark interrupted")
	}
}

func TestController_SynthesizerError(t *testing.T) {
	boom := errors.New("audio device busy")
	c := New(&fakeSynth{speakErr: boom}, language.Spanish)

	if err := c.Speak("hola", nil); !errors.Is(err, boom) {
		t.Fatalf("Speak error = %v, want %v", err, boom)
	}
	if got := c.State(); got != StateErrored {
		t.Errorf("State() = %q, want %q", got, StateErrored)
	}
}

func TestController_AsyncErrorSettles(t *testing.T) {
	synth := &fakeSynth{}
	c := New(synth, language.Spanish)

	c.Speak("hola", nil)
	synth.events[0].OnError(errors.New("playback failed"))

	if got := c.State(); got != StateErrored {
		t.Errorf("State() = %q, want %q", got, StateErrored)
	}
}
