// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown turns story text that arrived as Markdown or bare
// paragraphs into the <p>-wrapped HTML the CMS expects.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls. Raw HTML is
// passed through so partially tagged replies survive.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// HasParagraphs reports whether s already contains a <p> element.
func HasParagraphs(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<p>") || strings.Contains(lower, "<p ")
}

// EnsureParagraphs returns s unchanged when it already has <p> elements and
// converts it as Markdown otherwise.
func EnsureParagraphs(s string) (string, error) {
	if HasParagraphs(s) {
		return s, nil
	}
	return ToHTML(s)
}
