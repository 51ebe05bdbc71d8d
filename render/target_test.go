// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewPixmapTarget(t *testing.T) {
	target := NewPixmapTarget(100, 50)

	if target.Width() != 100 || target.Height() != 50 {
		t.Errorf("size = %dx%d, want 100x50", target.Width(), target.Height())
	}
	if target.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", target.Format())
	}
	if target.Stride() != 400 {
		t.Errorf("Stride = %d, want 400", target.Stride())
	}
	if len(target.Pixels()) != 100*50*4 {
		t.Errorf("len(Pixels) = %d", len(target.Pixels()))
	}
}

func TestPixmapTargetFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	target := NewPixmapTargetFromImage(img)
	if target.Image() != img {
		t.Fatal("image was copied")
	}
	img.SetRGBA(1, 1, color.RGBA{255, 0, 0, 255})
	if target.Pixels()[target.Stride()+4] != 255 {
		t.Error("target does not share the image's memory")
	}
}

func TestPixmapTargetClearAndStore(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	target.Clear(color.RGBA{0, 0, 255, 255})
	if got := target.Image().RGBAAt(7, 7); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("after Clear: %v", got)
	}

	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src.SetRGBA(3, 4, color.RGBA{10, 20, 30, 40})
	target.Store(src)
	if got := target.Image().RGBAAt(3, 4); got != (color.RGBA{10, 20, 30, 40}) {
		t.Errorf("after Store: %v", got)
	}
	if got := target.Image().RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("Store must replace, got %v", got)
	}
}

func TestPixmapTargetResize(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	target.Resize(16, 2)
	if target.Width() != 16 || target.Height() != 2 {
		t.Errorf("size after Resize = %dx%d", target.Width(), target.Height())
	}
}
