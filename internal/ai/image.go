// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
)

// ImageGenerator is an optional interface that AI providers can implement
// to support image generation. Claude and Mistral are text-only.
type ImageGenerator interface {
	// GenerateImage creates one image from a text prompt at the requested
	// size (e.g. "1536x1024"). Returns the raw image bytes and the MIME
	// content type (e.g., "image/png").
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, string, error)
}

// GenerateImage calls the image provider's image generation if supported.
func (r *Registry) GenerateImage(ctx context.Context, prompt, size string) ([]byte, string, error) {
	ig, err := r.imageProvider()
	if err != nil {
		return nil, "", err
	}
	return ig.GenerateImage(ctx, prompt, size)
}

// SupportsImageGeneration returns true if the image provider can generate images.
func (r *Registry) SupportsImageGeneration() bool {
	_, err := r.imageProvider()
	return err == nil
}

func (r *Registry) imageProvider() (ImageGenerator, error) {
	r.mu.RLock()
	name := r.activeImage
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("ai: no image provider configured for %q", name)
	}
	ig, ok := p.(ImageGenerator)
	if !ok {
		return nil, fmt.Errorf("ai: provider %q does not support image generation", name)
	}
	return ig, nil
}
