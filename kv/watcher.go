// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package kv

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default settle time before a change is reported.
const DefaultDebounce = 250 * time.Millisecond

// =============================================================================
// FILE STORE WATCHER
// =============================================================================

// Watcher observes a FileStore's directory and invokes a callback when a
// record file changes. Rapid successive writes to the same record collapse
// into one callback per debounce window.
//
// The watcher cannot tell its own process's writes from another process's,
// so callers reloading on change must be able to reload their own state
// harmlessly.
type Watcher struct {
	fw       *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(record string)

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewWatcher creates a watcher for the store's directory. onChange receives
// the record name (not the file path) after the debounce window elapses.
func NewWatcher(store *FileStore, debounce time.Duration, onChange func(record string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fw:       fw,
		dir:      store.Dir(),
		debounce: debounce,
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
	}
	return w, nil
}

// Start begins watching. It returns once the directory is registered; events
// are delivered from a background goroutine.
func (w *Watcher) Start() error {
	if err := w.fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.dir, err)
	}
	go w.loop()
	return nil
}

// Close stops watching and cancels pending callbacks.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	return w.fw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			record, ok := recordFromPath(ev.Name)
			if !ok {
				continue
			}
			w.schedule(record)
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal to the store itself.
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one record.
func (w *Watcher) schedule(record string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.timers[record]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[record] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, record)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.onChange(record)
		}
	})
}

// recordFromPath maps a record file path back to its record name. Temp files
// from in-flight atomic writes are ignored.
func recordFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".tmp-") || !strings.HasSuffix(base, ".json") {
		return "", false
	}
	name := strings.TrimSuffix(base, ".json")
	if validateName(name) != nil {
		return "", false
	}
	return name, true
}
