// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"fmt"

	"github.com/pacure/chatcore/model"
)

// =============================================================================
// ANSWER TYPES
// =============================================================================

// Answer is a resolved reply to a user query.
type Answer struct {
	// Title is the short heading for the answer, when the backend provides
	// one (search results carry the article title).
	Title string

	// Text is the answer body as plain text or CommonMark. It is the
	// canonical content: rendering derives markup from it, never the other
	// way around.
	Text string

	// Sources lists the citations backing the answer.
	Sources []model.Source

	// ResourceURL points at the primary resource the answer was drawn
	// from, when there is one.
	ResourceURL string

	// Origin names the responder that produced the answer, for logging.
	Origin string
}

// Responder resolves a query into an answer.
type Responder interface {
	Respond(ctx context.Context, query string, attachment *model.Attachment) (*Answer, error)
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Kind classifies what went wrong while resolving a query.
type Kind int

const (
	// KindNetwork means the backend was never reached or the connection
	// broke mid-request.
	KindNetwork Kind = iota

	// KindServer means the backend answered with a failure status or an
	// explicit error payload.
	KindServer

	// KindMalformed means the backend claimed success but the payload was
	// unusable.
	KindMalformed
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a classified dispatch failure. Status is the HTTP status code
// when one was received, zero otherwise.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("dispatch %s error (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("dispatch %s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// newError builds a classified error around cause.
func newError(kind Kind, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, cause: cause}
}
