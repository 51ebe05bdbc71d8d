// Package raster executes flushes on the CPU.
//
// A Target owns the per-pixel planes that pixel local storage would hold
// on a GPU: color, clip, scratch and coverage, plus depth and stencil for
// the depth/stencil mode. Triangles are set up and traversed tile by tile;
// fragment programs run inside the tile's interlock so that the
// read-modify-write of every plane is atomic per pixel.
//
// Two backends share the target and the rasterizer: PLS accumulates
// anti-aliased coverage per path, DepthStencil uses stencil-then-cover.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/parallel"
	"golang.org/x/image/math/f32"
)

// LoadAction selects how the color plane starts a pass.
type LoadAction uint8

const (
	// LoadClear fills the color plane with the clear color.
	LoadClear LoadAction = iota
	// LoadPreserve keeps the previous pass's colors.
	LoadPreserve
)

// String returns the action name.
func (a LoadAction) String() string {
	switch a {
	case LoadClear:
		return "Clear"
	case LoadPreserve:
		return "Preserve"
	default:
		return "Unknown"
	}
}

// Target holds the per-pixel planes of one render target.
type Target struct {
	width, height int
	lock          *parallel.Interlock

	// color is premultiplied RGBA8, r in the low byte.
	color []uint32
	// clip is packHalf2x16(coverage, content id).
	clip []uint32
	// scratch stashes a pixel's destination color during a path, or the
	// outer clip coverage during a nested clip update.
	scratch []uint32
	// coverage is packHalf2x16(count, path id).
	coverage []uint32

	depth   []float32
	stencil []uint8
}

// NewTarget allocates the planes of a width x height target. The depth
// and stencil planes exist only when depthStencil is set.
func NewTarget(width, height int, depthStencil bool) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: %w: %dx%d", encode.ErrInvalidTarget, width, height)
	}
	n := width * height
	t := &Target{
		width:    width,
		height:   height,
		lock:     parallel.NewInterlock(parallel.NewGrid(width, height)),
		color:    make([]uint32, n),
		clip:     make([]uint32, n),
		scratch:  make([]uint32, n),
		coverage: make([]uint32, n),
	}
	if depthStencil {
		t.depth = make([]float32, n)
		t.stencil = make([]uint8, n)
	}
	return t, nil
}

// Bounds returns the target rectangle.
func (t *Target) Bounds() image.Rectangle { return image.Rect(0, 0, t.width, t.height) }

// Interlock returns the per-tile interlock.
func (t *Target) Interlock() *parallel.Interlock { return t.lock }

// Begin starts a pass. Coverage, clip and scratch always start cleared;
// depth starts at 1 and stencil at 0.
func (t *Target) Begin(load LoadAction, clear color.NRGBA) {
	clearColor := packUnorm(premultiplied(clear))
	for i := range t.color {
		if load == LoadClear {
			t.color[i] = clearColor
		}
		t.clip[i] = 0
		t.scratch[i] = 0
		t.coverage[i] = 0
	}
	for i := range t.depth {
		t.depth[i] = 1
		t.stencil[i] = 0
	}
}

// Load copies img into the color plane, for hosts that preserve content
// across renderers.
func (t *Target) Load(img image.Image) {
	b := img.Bounds()
	for y := 0; y < t.height && b.Min.Y+y < b.Max.Y; y++ {
		for x := 0; x < t.width && b.Min.X+x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			t.color[y*t.width+x] = uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
		}
	}
}

// Resolve stores the color plane as premultiplied RGBA. With bgra set the
// red and blue channels are swapped for BGRA8 targets.
func (t *Target) Resolve(bgra bool) *image.RGBA {
	img := image.NewRGBA(t.Bounds())
	for i, c := range t.color {
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = uint8(c), uint8(c>>8), uint8(c>>16), uint8(c>>24)
		if bgra {
			p[0], p[2] = p[2], p[0]
		}
	}
	return img
}

func (t *Target) colorAt(i int) f32.Vec4 { return unpackUnorm(t.color[i]) }

func premultiplied(c color.NRGBA) f32.Vec4 {
	a := float32(c.A) / 255
	return f32.Vec4{float32(c.R) / 255 * a, float32(c.G) / 255 * a, float32(c.B) / 255 * a, a}
}

func unpackUnorm(u uint32) f32.Vec4 {
	return f32.Vec4{
		float32(u&0xff) / 255,
		float32(u>>8&0xff) / 255,
		float32(u>>16&0xff) / 255,
		float32(u>>24) / 255,
	}
}

func packUnorm(c f32.Vec4) uint32 {
	var u uint32
	for i := 3; i >= 0; i-- {
		v := c[i]
		switch {
		case math32.IsNaN(v) || v <= 0:
			v = 0
		case v >= 1:
			v = 1
		}
		u = u<<8 | uint32(v*255+0.5)
	}
	return u
}
