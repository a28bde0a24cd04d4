// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package story

import (
	"context"
	"log/slog"

	"storyteller/internal/markdown"
)

// TextGenerator is the slice of the AI registry the story generator needs.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SystemPrompt instructs the model to write one Danish bedtime story and
// answer with nothing but the draft JSON.
const SystemPrompt = `Du er en dansk børnebogsforfatter. Du skriver varme og fantasifulde godnathistorier til børn på cirka 4-9 år.
Svar udelukkende med gyldig JSON. Ingen forklaringer, ingen markdown.

JSON-objektet skal have præcis disse felter:

{
  "title": "...",
  "slug": "...",
  "seo_title": "...",
  "meta_description": "...",
  "category": "1-2 minutter" | "3-5 minutter" | "Eventyr",
  "story_html": "...",
  "image_prompt": "..."
}

Regler for historien:
- Den skal være helt ny og må ikke genbruge tidligere historier.
- Skriv på naturligt og flydende dansk.
- Tonen er varm, tryg og let magisk. Kun mild spænding, intet voldsomt eller uhyggeligt.
- Historien skal have en tydelig afslutning.
- Del teksten i korte afsnit, og pak hvert afsnit ind i <p>-tags i story_html.

Regler for felterne:
- title: kort og fængende, fx "Emilie og Den Hemmelige Regnbuebutik".
- seo_title: samme som title eller fx "TITLE - godnathistorie for børn".
- meta_description: højst 140-150 tegn, en naturlig og lokkende beskrivelse.
- slug: små bogstaver og bindestreger, uden æ, ø og å.
- category: "1-2 minutter" ved ca. 150-250 ord, "3-5 minutter" ved ca. 250-450 ord, "Eventyr" hvis historien er længere eller mere eventyrlig.
- image_prompt: en ENGELSK prompt til en 16:9-illustration i denne stil:
  warm colored pencil illustration, closeup of a child and a small cute magical creature,
  soft bedtime lighting, children's book style, cozy and friendly atmosphere.`

// UserPrompt asks for the next story.
const UserPrompt = "Skriv en ny dansk godnathistorie for børn i den stil. Husk: svar KUN med gyldig JSON."

// Generator asks a text model for a story draft.
type Generator struct {
	text TextGenerator
}

// NewGenerator creates a Generator backed by text.
func NewGenerator(text TextGenerator) *Generator {
	return &Generator{text: text}
}

// Generate requests and validates one draft. Any failure is a
// *GenerationError; nothing is retried.
func (g *Generator) Generate(ctx context.Context) (*Draft, error) {
	reply, err := g.text.Generate(ctx, SystemPrompt, UserPrompt)
	if err != nil {
		return nil, &GenerationError{Stage: "story", Msg: "provider call failed", Err: err}
	}

	draft, err := ParseDraft(reply)
	if err != nil {
		return nil, err
	}

	html, err := markdown.EnsureParagraphs(draft.StoryHTML)
	if err != nil {
		return nil, &GenerationError{Stage: "story", Msg: "story text could not be converted to HTML", Err: err}
	}
	draft.StoryHTML = html

	slog.Debug("story draft parsed",
		"title", draft.Title,
		"category", draft.Category,
		"html_bytes", len(draft.StoryHTML),
	)
	return draft, nil
}
