// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package logging builds the zerolog loggers the rest of the module shares.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup creates the root logger writing human-readable output to stderr.
// Unknown level names fall back to info.
func Setup(level string) zerolog.Logger {
	return SetupWriter(level, os.Stderr)
}

// SetupWriter is Setup with an explicit sink, for tests.
func SetupWriter(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Component derives a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
