// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/pacure/chatcore/dispatch"
	"github.com/pacure/chatcore/model"
)

// Spanish failure notices shown in place of an answer.
const (
	noticeNetwork = "No se pudo conectar con el servidor de PACURE IA. " +
		"Comprueba tu conexión e inténtalo de nuevo."
	noticeServer = "El servidor de PACURE IA no pudo procesar tu pregunta. " +
		"Inténtalo de nuevo en unos momentos."
	noticeMalformed = "El servidor devolvió una respuesta que no se pudo interpretar."
	noticeGeneric   = "Algo salió mal al procesar tu pregunta. Inténtalo de nuevo."
)

// classAttr admits only the classes our own markup emits; everything else
// the sanitizer strips.
var classAttr = regexp.MustCompile(`^(sources|source-link|error-notice)$`)

// Renderer converts answers into sanitized transcript markup.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a renderer with GFM markdown support and a UGC sanitization
// policy.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(classAttr).OnElements("p", "ul", "li", "a")
	policy.RequireNoFollowOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghtml.WithHardWraps()),
		),
		policy: policy,
	}
}

// Content renders an answer into assistant message content. The plain text
// is the answer text itself, never re-derived from the markup.
func (r *Renderer) Content(ans *dispatch.Answer) model.AssistantContent {
	var doc strings.Builder
	if ans.Title != "" {
		doc.WriteString("### ")
		doc.WriteString(ans.Title)
		doc.WriteString("\n\n")
	}
	doc.WriteString(ans.Text)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(doc.String()), &buf); err != nil {
		// Unconvertible input degrades to escaped text.
		buf.Reset()
		buf.WriteString("<p>")
		buf.WriteString(html.EscapeString(ans.Text))
		buf.WriteString("</p>")
	}
	if len(ans.Sources) > 0 {
		writeSourceList(&buf, ans.Sources)
	}

	sources := make([]model.Source, len(ans.Sources))
	copy(sources, ans.Sources)

	return model.AssistantContent{
		Markup:      r.policy.Sanitize(buf.String()),
		PlainText:   ans.Text,
		Sources:     sources,
		ResourceURL: ans.ResourceURL,
	}
}

// FailureContent renders a dispatch failure as an error-marked notice. The
// copy depends only on the failure kind; details stay in the logs.
func (r *Renderer) FailureContent(err error) model.AssistantContent {
	notice := noticeGeneric
	var dErr *dispatch.Error
	if errors.As(err, &dErr) {
		switch dErr.Kind {
		case dispatch.KindNetwork:
			notice = noticeNetwork
		case dispatch.KindServer:
			notice = noticeServer
		case dispatch.KindMalformed:
			notice = noticeMalformed
		}
	}

	markup := fmt.Sprintf(`<p class="error-notice">%s</p>`, html.EscapeString(notice))
	return model.AssistantContent{
		Markup:    r.policy.Sanitize(markup),
		PlainText: notice,
		Failed:    true,
	}
}

// writeSourceList appends the citation list markup for sources.
func writeSourceList(buf *bytes.Buffer, sources []model.Source) {
	buf.WriteString(`<ul class="sources">`)
	for _, s := range sources {
		buf.WriteString(`<li><a class="source-link" href="`)
		buf.WriteString(html.EscapeString(s.URL))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(s.Name))
		buf.WriteString("</a></li>")
	}
	buf.WriteString("</ul>")
}
