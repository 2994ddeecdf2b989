// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/pacure/chatcore/dispatch"
	"github.com/pacure/chatcore/model"
)

func TestRenderer_Content(t *testing.T) {
	r := New()

	got := r.Content(&dispatch.Answer{
		Title:       "Miguel de Cervantes",
		Text:        "Un **novelista** español.",
		Sources:     []model.Source{{Name: "Wikipedia", URL: "https://es.wikipedia.org"}},
		ResourceURL: "https://es.wikipedia.org/wiki/Miguel_de_Cervantes",
	})

	if !strings.Contains(got.Markup, "<h3") || !strings.Contains(got.Markup, "Miguel de Cervantes") {
		t.Errorf("Markup missing title heading:\n%s", got.Markup)
	}
	if !strings.Contains(got.Markup, "<strong>novelista</strong>") {
		t.Errorf("Markup missing converted emphasis:\n%s", got.Markup)
	}
	if !strings.Contains(got.Markup, `class="sources"`) {
		t.Errorf("Markup missing citation list:\n%s", got.Markup)
	}
	if got.PlainText != "Un **novelista** español." {
		t.Errorf("PlainText = %q, want the answer text untouched", got.PlainText)
	}
	if got.ResourceURL == "" || len(got.Sources) != 1 {
		t.Error("Sources and resource url must carry through")
	}
	if got.Failed {
		t.Error("Success content must not be marked failed")
	}
}

func TestRenderer_SanitizesInjection(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		text string
	}{
		{"script tag", `hola <script>alert("x")</script> mundo`},
		{"event handler", `<img src="x" onerror="alert(1)">`},
		{"javascript url", `[clic](javascript:alert(1))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Content(&dispatch.Answer{Text: tt.text})
			for _, bad := range []string{"<script", "onerror", "javascript:"} {
				if strings.Contains(got.Markup, bad) {
					t.Errorf("Sanitized markup still contains %q:\n%s", bad, got.Markup)
				}
			}
		})
	}
}

func TestRenderer_SanitizesSourceFields(t *testing.T) {
	r := New()

	got := r.Content(&dispatch.Answer{
		Text:    "hola",
		Sources: []model.Source{{Name: `<script>x</script>`, URL: `javascript:alert(1)`}},
	})
	if strings.Contains(got.Markup, "<script") || strings.Contains(got.Markup, "javascript:") {
		t.Errorf("Source fields leaked unsanitized:\n%s", got.Markup)
	}
}

func TestRenderer_FailureContent(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", &dispatch.Error{Kind: dispatch.KindNetwork}, "conexión"},
		{"server", &dispatch.Error{Kind: dispatch.KindServer}, "no pudo procesar"},
		{"malformed", &dispatch.Error{Kind: dispatch.KindMalformed}, "no se pudo interpretar"},
		{"other", errors.New("boom"), "Algo salió mal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.FailureContent(tt.err)
			if !got.Failed {
				t.Error("Failure content must be marked failed")
			}
			if !strings.Contains(got.PlainText, tt.want) {
				t.Errorf("PlainText = %q, want mention of %q", got.PlainText, tt.want)
			}
			if !strings.Contains(got.Markup, `class="error-notice"`) {
				t.Errorf("Markup missing error notice class:\n%s", got.Markup)
			}
		})
	}
}
