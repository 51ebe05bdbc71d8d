package paint

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// GradientTexture is the ramp texture: one gradient per row, straight
// alpha RGBA8. Rows are filled by rendering color ramp spans into it.
type GradientTexture struct {
	img *image.NRGBA
}

// NewGradientTexture allocates a cleared ramp texture.
func NewGradientTexture(width, rows int) *GradientTexture {
	return &GradientTexture{img: image.NewNRGBA(image.Rect(0, 0, width, max(rows, 1)))}
}

// Width returns the texture width in texels.
func (g *GradientTexture) Width() int { return g.img.Rect.Dx() }

// Rows returns the number of ramp rows.
func (g *GradientTexture) Rows() int { return g.img.Rect.Dy() }

// Image exposes the backing store.
func (g *GradientTexture) Image() *image.NRGBA { return g.img }

// Set writes one texel.
func (g *GradientTexture) Set(x, y int, c f32.Vec4) {
	g.img.SetNRGBA(x, y, toNRGBA(c))
}

// At reads one texel.
func (g *GradientTexture) At(x, y int) f32.Vec4 {
	return fromNRGBA(g.img.NRGBAAt(x, y))
}

// SampleLOD0 samples with bilinear filtering and clamp-to-edge addressing.
// u and v are normalized; v at a row center never mixes rows.
func (g *GradientTexture) SampleLOD0(u, v float32) f32.Vec4 {
	r := g.img.Rect
	return bilinear(r.Dx(), r.Dy(), func(x, y int) f32.Vec4 {
		return fromNRGBA(g.img.NRGBAAt(r.Min.X+x, r.Min.Y+y))
	}, u, v)
}

// fetchFunc reads a texel at integer coordinates already clamped to the
// texture.
type fetchFunc func(x, y int) f32.Vec4

func bilinear(w, h int, fetch fetchFunc, u, v float32) f32.Vec4 {
	x := u*float32(w) - 0.5
	y := v*float32(h) - 0.5
	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	cx := func(i int) int { return min(max(i, 0), w-1) }
	cy := func(i int) int { return min(max(i, 0), h-1) }

	c00 := fetch(cx(ix), cy(iy))
	c10 := fetch(cx(ix+1), cy(iy))
	c01 := fetch(cx(ix), cy(iy+1))
	c11 := fetch(cx(ix+1), cy(iy+1))

	var out f32.Vec4
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bot := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bot-top)*fy
	}
	return out
}

func fromNRGBA(c color.NRGBA) f32.Vec4 {
	return f32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

func toNRGBA(c f32.Vec4) color.NRGBA {
	return color.NRGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: unorm8(c[3])}
}

// unorm8 converts [0, 1] to a byte with round-to-nearest.
func unorm8(v float32) uint8 {
	v = math32.Max(0, math32.Min(v, 1))
	return uint8(v*255 + 0.5)
}
