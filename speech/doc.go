// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package speech reads assistant replies aloud through a pluggable
// synthesizer. The Controller enforces a single active utterance: starting
// a new one silently cancels its predecessor, and a user-initiated stop
// marks the interrupted reply through an injected hook so the transcript
// records that playback was cut short.
package speech
