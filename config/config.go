// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package config provides configuration loading for the chat client. A TOML
// file supplies the base settings, environment variables override it, and
// Validate rejects values the rest of the module cannot work with.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	// Backend configuration for the remote query dispatcher.
	Backend BackendConfig `toml:"backend"`

	// Storage configuration for the persistence layer.
	Storage StorageConfig `toml:"storage"`

	// Speech configuration for read-aloud.
	Speech SpeechConfig `toml:"speech"`

	// Log configuration.
	Log LogConfig `toml:"log"`

	// Title configuration for derived conversation titles.
	Title TitleConfig `toml:"title"`
}

// BackendConfig names the query endpoint.
type BackendConfig struct {
	// EndpointURL is the URL queries are POSTed to.
	EndpointURL string `toml:"endpoint_url"`
	// TimeoutSecs bounds a single query round-trip, in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend"`
	// Path is the storage directory for "file" or the database file for
	// "sqlite".
	Path string `toml:"path"`
}

// SpeechConfig controls read-aloud.
type SpeechConfig struct {
	// Enabled turns the speech controller on.
	Enabled bool `toml:"enabled"`
	// Locale is the BCP 47 tag utterances are spoken in, e.g. "es-ES".
	Locale string `toml:"locale"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is a zerolog level name: "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// TitleConfig controls derived conversation titles.
type TitleConfig struct {
	// MaxRunes caps a derived title's length before the ellipsis.
	MaxRunes int `toml:"max_runes"`
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			EndpointURL: "http://localhost:5000/api/query",
			TimeoutSecs: 60,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    ".pacure",
		},
		Speech: SpeechConfig{
			Enabled: true,
			Locale:  "es-ES",
		},
		Log: LogConfig{
			Level: "info",
		},
		Title: TitleConfig{
			MaxRunes: 30,
		},
	}
}

// Load reads the TOML file at path over the defaults and applies
// environment overrides. A missing file is not an error: defaults plus
// environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides applies PACURE_* environment variables over the loaded
// values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PACURE_BACKEND_URL"); v != "" {
		c.Backend.EndpointURL = v
	}
	if v := os.Getenv("PACURE_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("PACURE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PACURE_SPEECH_LOCALE"); v != "" {
		c.Speech.Locale = v
	}
	if v := os.Getenv("PACURE_BACKEND_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = secs
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.EndpointURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ValidationError{Field: "backend.endpoint_url", Message: "must be an absolute URL"}
	}
	if c.Backend.TimeoutSecs <= 0 {
		return ValidationError{Field: "backend.timeout_secs", Message: "must be positive"}
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "file", "sqlite":
	default:
		return ValidationError{Field: "storage.backend", Message: `must be "file" or "sqlite"`}
	}
	if c.Storage.Path == "" {
		return ValidationError{Field: "storage.path", Message: "must not be empty"}
	}

	if _, err := language.Parse(c.Speech.Locale); err != nil {
		return ValidationError{Field: "speech.locale", Message: "must be a BCP 47 tag"}
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return ValidationError{Field: "log.level", Message: "unknown level"}
	}

	if c.Title.MaxRunes <= 0 {
		return ValidationError{Field: "title.max_runes", Message: "must be positive"}
	}
	return nil
}

// SpeechLocale returns the parsed locale tag. Call Validate first; an
// unparseable tag falls back to Spanish.
func (c *Config) SpeechLocale() language.Tag {
	tag, err := language.Parse(c.Speech.Locale)
	if err != nil {
		return language.Spanish
	}
	return tag
}
