// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package story

import (
	"context"
	"log/slog"
	"strings"

	"storyteller/internal/imaging"
)

// DefaultImageSize is the wide native size requested from the provider.
const DefaultImageSize = "1536x1024"

// ImageSource is the slice of the AI registry the illustrator needs.
type ImageSource interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, string, error)
}

// Illustrator renders the preview image for a draft.
type Illustrator struct {
	images ImageSource
	size   string
}

// NewIllustrator creates an Illustrator. An empty size uses DefaultImageSize.
func NewIllustrator(images ImageSource, size string) *Illustrator {
	if size == "" {
		size = DefaultImageSize
	}
	return &Illustrator{images: images, size: size}
}

// Illustrate generates one image for prompt and returns it as a
// 1200×630 JPEG.
func (il *Illustrator) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &GenerationError{Stage: "image", Msg: "empty image prompt"}
	}

	raw, contentType, err := il.images.GenerateImage(ctx, prompt, il.size)
	if err != nil {
		return nil, &GenerationError{Stage: "image", Msg: "provider call failed", Err: err}
	}

	out, err := imaging.Render(raw)
	if err != nil {
		return nil, &GenerationError{Stage: "image", Msg: "undecodable image payload (" + contentType + ")", Err: err}
	}

	slog.Debug("illustration rendered",
		"source_bytes", len(raw),
		"source_type", contentType,
		"jpeg_bytes", len(out),
	)
	return out, nil
}
