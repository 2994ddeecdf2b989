// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"strings"

	"github.com/pacure/chatcore/model"
)

// Canned conversational answers served without a backend round-trip.
const (
	greetingAnswer = "¡Hola! Soy PACURE IA, tu asistente de IA. Estoy lista para buscar " +
		"información o conversar contigo. ¿En qué puedo ayudarte hoy?"

	marketingAnswer = "Un excelente plan para un canal de YouTube debe centrarse en la " +
		"creación de contenido de alta calidad y la optimización SEO. El uso de " +
		"miniaturas atractivas y títulos optimizados es crucial para el crecimiento. " +
		"¡A crecer! 🚀"
)

// Local answers a small set of conversational queries on-device so a
// greeting never waits on the network. Match reports whether a query is
// one of them; Respond on an unmatched query falls through with a nil
// answer so the caller can try the next responder.
type Local struct{}

// NewLocal creates the canned responder.
func NewLocal() *Local {
	return &Local{}
}

// Match reports whether query has a canned answer.
func (l *Local) Match(query string) bool {
	return l.lookup(query) != ""
}

// Respond returns the canned answer for query, or (nil, nil) when there is
// none. Attachments always defer to the backend.
func (l *Local) Respond(_ context.Context, query string, attachment *model.Attachment) (*Answer, error) {
	if attachment != nil {
		return nil, nil
	}
	text := l.lookup(query)
	if text == "" {
		return nil, nil
	}
	return &Answer{Text: text, Origin: "local"}, nil
}

func (l *Local) lookup(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "hola"), strings.Contains(q, "saludo"):
		return greetingAnswer
	case strings.Contains(q, "marketing"):
		return marketingAnswer
	}
	return ""
}
