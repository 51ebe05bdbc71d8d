// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// RenderTarget is a destination with CPU pixel access.
type RenderTarget interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat
	// Pixels returns the pixel bytes, four per pixel in Format order.
	Pixels() []byte
	// Stride returns the number of bytes per row.
	Stride() int
}

// PixmapTarget is a CPU-backed render target over a premultiplied
// *image.RGBA.
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a width x height target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// NewPixmapTargetFromImage wraps img without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int { return t.img.Bounds().Dx() }

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int { return t.img.Bounds().Dy() }

// Format returns RGBA8Unorm.
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pixels returns the pixel data.
func (t *PixmapTarget) Pixels() []byte { return t.img.Pix }

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int { return t.img.Stride }

// Image returns the underlying image, sharing memory with the target.
func (t *PixmapTarget) Image() *image.RGBA { return t.img }

// Clear fills the target with c.
func (t *PixmapTarget) Clear(c color.Color) {
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Store replaces the target's contents with src, which must have the
// target's size.
func (t *PixmapTarget) Store(src *image.RGBA) {
	draw.Draw(t.img, t.img.Bounds(), src, src.Bounds().Min, draw.Src)
}

// Resize replaces the image with an empty width x height one.
func (t *PixmapTarget) Resize(width, height int) {
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ RenderTarget = (*PixmapTarget)(nil)
