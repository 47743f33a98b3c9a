// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown converts document markup to Matrix formatted_body HTML.
// Hard wraps matter: field values separate members with bare
// newlines and those must survive as <br> in the HTML rendering.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithUnsafe(),
	),
)

// Markdown renders the document as a Markdown message body. This is
// the plain-text fallback clients show when they do not render the
// HTML body, so it carries the complete document including the
// footer.
func Markdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", doc.Title)
	for _, field := range doc.Fields {
		fmt.Fprintf(&b, "**%s**\n%s\n\n", field.Name, field.Value)
	}
	b.WriteString(doc.Footer)
	return b.String()
}

// HTML renders the document as formatted_body HTML via goldmark,
// with the title line carried in the given accent color (a "#rrggbb"
// string).
func HTML(doc Document, accentColor string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<strong><font color=%q>%s</font></strong>\n\n", accentColor, doc.Title)
	for _, field := range doc.Fields {
		fmt.Fprintf(&b, "**%s**\n%s\n\n", field.Name, field.Value)
	}
	fmt.Fprintf(&b, "<em>%s</em>", doc.Footer)

	var out bytes.Buffer
	if err := markdown.Convert([]byte(b.String()), &out); err != nil {
		return "", fmt.Errorf("rendering document HTML: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
