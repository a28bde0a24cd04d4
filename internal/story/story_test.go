// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package story

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// validDraft returns a complete draft as a JSON map so tests can drop keys.
func validDraft() map[string]any {
	return map[string]any{
		"title":            "Emilie og Den Hemmelige Regnbuebutik",
		"slug":             "emilie-og-den-hemmelige-regnbuebutik",
		"seo_title":        "Emilie og Den Hemmelige Regnbuebutik - godnathistorie for børn",
		"meta_description": "Emilie finder en lille butik, der sælger regnbuer.",
		"category":         "1-2 minutter",
		"story_html":       "<p>Der var engang...</p><p>Og så sov hun.</p>",
		"image_prompt":     "warm colored pencil illustration of a girl and a tiny dust creature",
	}
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestParseDraft_Valid(t *testing.T) {
	d, err := ParseDraft(marshal(t, validDraft()))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if d.Title != "Emilie og Den Hemmelige Regnbuebutik" || d.Category != "1-2 minutter" {
		t.Errorf("unexpected draft: %+v", d)
	}
}

func TestParseDraft_CodeFence(t *testing.T) {
	raw := "```json\n" + marshal(t, validDraft()) + "\n```"
	if _, err := ParseDraft(raw); err != nil {
		t.Fatalf("ParseDraft with fence: %v", err)
	}
}

func TestParseDraft_SEOTitleDefaultsToTitle(t *testing.T) {
	m := validDraft()
	delete(m, "seo_title")

	d, err := ParseDraft(marshal(t, m))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if d.SEOTitle != d.Title {
		t.Errorf("SEOTitle: got %q, want title %q", d.SEOTitle, d.Title)
	}
}

func TestParseDraft_MissingField(t *testing.T) {
	for _, key := range requiredFields {
		t.Run(key, func(t *testing.T) {
			m := validDraft()
			delete(m, key)

			_, err := ParseDraft(marshal(t, m))

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *GenerationError, got %v", err)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error should name %q: %v", key, err)
			}
		})
	}
}

func TestParseDraft_EmptyField(t *testing.T) {
	m := validDraft()
	m["story_html"] = "   "

	if _, err := ParseDraft(marshal(t, m)); err == nil {
		t.Fatal("expected rejection of blank story_html")
	}
}

func TestParseDraft_NotJSON(t *testing.T) {
	inputs := map[string]string{
		"prose":        "Her er din historie: Der var engang en lille bjørn.",
		"array":        `[{"title":"x"}]`,
		"null":         "null",
		"two objects":  marshal(t, validDraft()) + marshal(t, validDraft()),
		"truncated":    `{"title": "Emilie", "slug": `,
		"wrong type":   strings.Replace(marshal(t, validDraft()), `"1-2 minutter"`, `12`, 1),
		"empty string": "",
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDraft(raw)

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *GenerationError, got %v", err)
			}
			if genErr.Stage != "story" {
				t.Errorf("stage: got %q", genErr.Stage)
			}
		})
	}
}

func TestParseDraft_RawReplyTruncated(t *testing.T) {
	raw := strings.Repeat("ikke json ", 200)

	_, err := ParseDraft(raw)

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if len(genErr.Raw) != maxRawInError {
		t.Errorf("raw length: got %d, want %d", len(genErr.Raw), maxRawInError)
	}
}

// ---------- CategoryMap ----------

func TestCategoryMapResolve(t *testing.T) {
	m := DefaultCategories()

	tests := map[string]int{
		"1-2 minutter":   4,
		"3-5 minutter":   5,
		"Eventyr":        7,
		" Eventyr ":      7,
		"10 minutter":    5,
		"":               5,
		"eventyr-agtigt": 5,
	}
	for label, want := range tests {
		if got := m.Resolve(label); got != want {
			t.Errorf("Resolve(%q) = %d, want %d", label, got, want)
		}
	}
}

func TestCategoryMapValidate(t *testing.T) {
	if err := DefaultCategories().Validate(); err != nil {
		t.Errorf("default map: %v", err)
	}
	bad := CategoryMap{IDs: map[string]int{"a": 1}, Default: "b"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unmapped default")
	}
	if err := (CategoryMap{}).Validate(); err == nil {
		t.Error("expected error for empty map")
	}
}

func TestParseCategoryIDs(t *testing.T) {
	ids, err := ParseCategoryIDs("1-2 minutter=4, 3-5 minutter = 5,Eventyr=7,")
	if err != nil {
		t.Fatalf("ParseCategoryIDs: %v", err)
	}
	if len(ids) != 3 || ids["3-5 minutter"] != 5 || ids["Eventyr"] != 7 {
		t.Errorf("got %v", ids)
	}

	for _, bad := range []string{"", "Eventyr", "Eventyr=x", "=4", "Eventyr=-1"} {
		if _, err := ParseCategoryIDs(bad); err == nil {
			t.Errorf("ParseCategoryIDs(%q): expected error", bad)
		}
	}
}

// ---------- Generator ----------

type fakeText struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeText) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem, f.lastUser = systemPrompt, userPrompt
	return f.reply, f.err
}

func TestGeneratorGenerate(t *testing.T) {
	text := &fakeText{reply: marshal(t, validDraft())}

	d, err := NewGenerator(text).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.Slug != "emilie-og-den-hemmelige-regnbuebutik" {
		t.Errorf("slug: got %q", d.Slug)
	}
	if text.lastSystem != SystemPrompt || text.lastUser != UserPrompt {
		t.Error("generator must send the fixed prompts")
	}
}

func TestGeneratorGenerate_PlainTextStory(t *testing.T) {
	draft := validDraft()
	draft["story_html"] = "Der var engang en pige.\n\nHun sov godt."
	text := &fakeText{reply: marshal(t, draft)}

	d, err := NewGenerator(text).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.StoryHTML != "<p>Der var engang en pige.</p>\n<p>Hun sov godt.</p>" {
		t.Errorf("story html: got %q", d.StoryHTML)
	}
}

func TestGeneratorGenerate_ProviderError(t *testing.T) {
	boom := errors.New("openai API error (status 429): slow down")

	_, err := NewGenerator(&fakeText{err: boom}).Generate(context.Background())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("provider error should be wrapped")
	}
}

func TestSystemPromptMentionsEveryCategory(t *testing.T) {
	for label := range DefaultCategories().IDs {
		if !strings.Contains(SystemPrompt, label) {
			t.Errorf("system prompt does not mention category %q", label)
		}
	}
}

// ---------- Illustrator ----------

type fakeImages struct {
	data     []byte
	err      error
	lastSize string
	calls    int
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt, size string) ([]byte, string, error) {
	f.calls++
	f.lastSize = size
	return f.data, "image/png", f.err
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func TestIllustrate(t *testing.T) {
	images := &fakeImages{data: testPNG(t, 300, 200)}

	out, err := NewIllustrator(images, "").Illustrate(context.Background(), "a girl and a dust bunny")
	if err != nil {
		t.Fatalf("Illustrate: %v", err)
	}
	if images.lastSize != DefaultImageSize {
		t.Errorf("size: got %q, want %q", images.lastSize, DefaultImageSize)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" || cfg.Width != 1200 || cfg.Height != 630 {
		t.Errorf("output: %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestIllustrate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		images *fakeImages
		prompt string
	}{
		{"provider error", &fakeImages{err: errors.New("boom")}, "p"},
		{"undecodable payload", &fakeImages{data: []byte("not an image")}, "p"},
		{"empty prompt", &fakeImages{data: testPNG(t, 10, 10)}, "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIllustrator(tt.images, "").Illustrate(context.Background(), tt.prompt)

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *GenerationError, got %v", err)
			}
			if genErr.Stage != "image" {
				t.Errorf("stage: got %q", genErr.Stage)
			}
		})
	}
}
