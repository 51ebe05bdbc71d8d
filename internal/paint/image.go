package paint

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gogpu/pls/internal/blend"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"
)

// ImageTexture is a mipmapped, premultiplied image paint source.
//
// Level 0 is a copy of the source; each further level halves both
// dimensions until the larger one reaches 1.
type ImageTexture struct {
	levels []*image.RGBA
}

// NewImageTexture copies src and builds its mip chain. It returns nil for
// an empty image.
func NewImageTexture(src image.Image) *ImageTexture {
	b := src.Bounds()
	if b.Empty() {
		return nil
	}
	base := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(base, base.Bounds(), src, b.Min, draw.Src)

	levels := []*image.RGBA{base}
	for prev := base; prev.Rect.Dx() > 1 || prev.Rect.Dy() > 1; {
		next := image.NewRGBA(image.Rect(0, 0, max(1, prev.Rect.Dx()/2), max(1, prev.Rect.Dy()/2)))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		levels = append(levels, next)
		prev = next
	}
	return &ImageTexture{levels: levels}
}

// NumLevels returns the length of the mip chain.
func (t *ImageTexture) NumLevels() int { return len(t.levels) }

// Level returns mip level n, or nil when out of range.
func (t *ImageTexture) Level(n int) *image.RGBA {
	if n < 0 || n >= len(t.levels) {
		return nil
	}
	return t.levels[n]
}

// LOD computes the level of detail from uv derivatives, clamped to the
// chain.
func (t *ImageTexture) LOD(dx, dy f32.Vec2) float32 {
	w, h := float32(t.levels[0].Rect.Dx()), float32(t.levels[0].Rect.Dy())
	lx := math32.Sqrt(dx[0]*w*dx[0]*w + dx[1]*h*dx[1]*h)
	ly := math32.Sqrt(dy[0]*w*dy[0]*w + dy[1]*h*dy[1]*h)
	rho := math32.Max(lx, ly)
	if !(rho > 1) {
		return 0
	}
	return math32.Min(math32.Log2(rho), float32(len(t.levels)-1))
}

// SampleGrad samples trilinearly with clamp-to-edge addressing, picking
// the level from explicit derivatives. The result is straight alpha.
func (t *ImageTexture) SampleGrad(uv, dx, dy f32.Vec2) f32.Vec4 {
	lod := t.LOD(dx, dy)
	lo := int(lod)
	c := t.sampleLevel(lo, uv)
	if frac := lod - float32(lo); frac > 0 && lo+1 < len(t.levels) {
		hi := t.sampleLevel(lo+1, uv)
		for i := range c {
			c[i] += (hi[i] - c[i]) * frac
		}
	}
	return blend.Unmultiply(c)
}

func (t *ImageTexture) sampleLevel(n int, uv f32.Vec2) f32.Vec4 {
	img := t.levels[n]
	return bilinear(img.Rect.Dx(), img.Rect.Dy(), func(x, y int) f32.Vec4 {
		return fromRGBA(img.RGBAAt(x, y))
	}, uv[0], uv[1])
}

func fromRGBA(c color.RGBA) f32.Vec4 {
	return f32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}
