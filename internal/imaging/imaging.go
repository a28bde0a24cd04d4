// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging turns generated illustrations into social-preview images.
// Sources are cropped symmetrically to the target aspect ratio, resampled to
// the exact target size and encoded as JPEG. Everything here is pure: the
// same input always yields byte-identical output.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// PreviewWidth and PreviewHeight are the standard social-preview size.
	PreviewWidth  = 1200
	PreviewHeight = 630

	// PreviewQuality is the JPEG quality of rendered previews.
	PreviewQuality = 90

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000
)

// CropRect returns the symmetric crop of a w×h source that has the aspect
// ratio targetW:targetH. Wider sources lose columns evenly from both sides
// and keep their full height; taller sources lose rows evenly from top and
// bottom and keep their full width. The rectangle is relative to (0,0).
func CropRect(w, h, targetW, targetH int) image.Rectangle {
	targetRatio := float64(targetW) / float64(targetH)
	currentRatio := float64(w) / float64(h)

	if currentRatio > targetRatio {
		newW := int(math.Round(float64(h) * targetRatio))
		left := (w - newW) / 2
		return image.Rect(left, 0, left+newW, h)
	}

	newH := int(math.Round(float64(w) / targetRatio))
	if newH > h {
		newH = h
	}
	top := (h - newH) / 2
	return image.Rect(0, top, w, top+newH)
}

// CropToAspect crops src to the targetW:targetH ratio and resamples the
// result to exactly targetW×targetH using Catmull-Rom interpolation.
func CropToAspect(src image.Image, targetW, targetH int) image.Image {
	b := src.Bounds()
	crop := CropRect(b.Dx(), b.Dy(), targetW, targetH).Add(b.Min)

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// Render decodes an encoded image (JPEG, PNG, GIF or WebP) and returns a
// PreviewWidth×PreviewHeight JPEG at PreviewQuality.
func Render(src []byte) ([]byte, error) {
	return RenderSize(src, PreviewWidth, PreviewHeight)
}

// RenderSize is Render with an explicit target size.
func RenderSize(src []byte, targetW, targetH int) ([]byte, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("imaging: invalid target size %dx%d", targetW, targetH)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode config: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("imaging: empty image %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("imaging: image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, CropToAspect(img, targetW, targetH), &jpeg.Options{Quality: PreviewQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
