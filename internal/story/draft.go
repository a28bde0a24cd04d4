// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package story produces the content of a daily bedtime post: the story
// draft written by a text model and its illustration rendered by an image
// model and cropped to the social-preview format.
package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Draft is one complete story as returned by the model. Drafts are either
// complete or rejected; there are no partial drafts.
type Draft struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	SEOTitle        string `json:"seo_title"`
	MetaDescription string `json:"meta_description"`
	Category        string `json:"category"`
	StoryHTML       string `json:"story_html"`
	ImagePrompt     string `json:"image_prompt"`
}

// requiredFields lists the keys a reply must carry, in reporting order.
var requiredFields = []string{"title", "slug", "meta_description", "story_html", "category", "image_prompt"}

// maxRawInError is how much of an unparseable reply is kept for operators.
const maxRawInError = 500

// GenerationError is returned when a provider call fails or its output
// cannot be used. Stage is "story" or "image".
type GenerationError struct {
	Stage string
	Msg   string
	Raw   string // truncated provider output, when relevant
	Err   error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generate %s: %s", e.Stage, e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Raw != "" {
		fmt.Fprintf(&b, " (reply was: %s)", e.Raw)
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ParseDraft validates a raw model reply. The reply must be exactly one JSON
// object, optionally wrapped in a markdown code fence, and must carry every
// required field as a non-empty string. seo_title falls back to title.
func ParseDraft(raw string) (*Draft, error) {
	text := stripCodeFence(strings.TrimSpace(raw))

	fields, err := decodeSingleObject(text)
	if err != nil {
		return nil, &GenerationError{Stage: "story", Msg: "reply is not a single JSON object", Err: err, Raw: truncate(raw, maxRawInError)}
	}

	var missing []string
	for _, key := range requiredFields {
		v, ok := fields[key]
		if !ok || isEmptyJSON(v) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &GenerationError{Stage: "story", Msg: "reply is missing " + strings.Join(missing, ", ")}
	}

	var d Draft
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, &GenerationError{Stage: "story", Msg: "reply has malformed fields", Err: err, Raw: truncate(raw, maxRawInError)}
	}

	if strings.TrimSpace(d.SEOTitle) == "" {
		d.SEOTitle = d.Title
	}
	return &d, nil
}

// decodeSingleObject decodes text into a field map and rejects trailing
// content such as a second object.
func decodeSingleObject(text string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(text))

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("null")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after object")
	}
	return fields, nil
}

func isEmptyJSON(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	if bytes.Equal(v, []byte("null")) {
		return true
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// stripCodeFence removes a surrounding ```json ... ``` fence.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
