// Package vertex implements the vertex programs: tessellated path
// patches, interior triangles, image meshes, stencil geometry and color
// ramp spans.
//
// Each program turns packed records into a clip-space position plus the
// varyings the fragment programs consume. A vertex whose records are
// missing is discarded by writing the discard value to every position
// component; the rasterizer rejects any triangle touching one.
package vertex

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/clip"
	"golang.org/x/image/math/f32"
)

// strokeMarkerMin keeps the stroke component of an edge distance
// positive so it is never mistaken for a fill.
const strokeMarkerMin = 1e-4

// Env is the per-flush state every vertex program reads.
type Env struct {
	Flush *encode.Flush
	// DepthStencil selects the depth/stencil mode: no anti-aliasing
	// outsets, hard-edged clip rects and z from the path's z index.
	DepthStencil bool
}

// Output is a vertex program's result.
type Output struct {
	// Position is in clip space.
	Position f32.Vec4
	// Edge holds (fill, stroke) edge distances. Fills carry a negative
	// stroke component.
	Edge f32.Vec2
	// Winding is the flat weight of an interior triangle.
	Winding float32
	// PathID is the half-encoded path id, negated for even-odd fills.
	PathID float32
	// PathIndex is the integer path id for storage lookups.
	PathIndex uint32
	// ClipID is the half-encoded clip id: positive to clip a color draw,
	// negative for a clip update, 0 for none.
	ClipID    float32
	BlendMode encode.BlendMode
	// ClipRect holds clip-rect edge distances.
	ClipRect f32.Vec4
	// Paint is the packed paint varying, see package paint.
	Paint f32.Vec4
}

// Discarded reports whether the vertex was discarded.
func (o *Output) Discarded() bool {
	for _, c := range o.Position {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return true
		}
	}
	return false
}

func (e *Env) discard() Output {
	d := e.Flush.Uniforms.VertexDiscardValue
	if !math32.IsNaN(d) && !math32.IsInf(d, 0) {
		// Only non-finite values are guaranteed to be rejected.
		d = math32.NaN()
	}
	return Output{Position: f32.Vec4{d, d, d, d}}
}

// ToClipSpace converts pixel coordinates (y down) to clip space.
func ToClipSpace(p f32.Vec2, width, height int) f32.Vec2 {
	return f32.Vec2{p[0]*2/float32(width) - 1, 1 - p[1]*2/float32(height)}
}

func (e *Env) position(pixel f32.Vec2, z float32) f32.Vec4 {
	u := &e.Flush.Uniforms
	c := ToClipSpace(pixel, u.Width, u.Height)
	return f32.Vec4{c[0], c[1], z, 1}
}

func (e *Env) depth(zIndex uint32) float32 {
	if !e.DepthStencil {
		return 0
	}
	return encode.NormalizeZIndex(zIndex)
}

// mul applies a column-major 2x2 matrix.
func mul(m f32.Vec4, v f32.Vec2) f32.Vec2 {
	return f32.Vec2{m[0]*v[0] + m[2]*v[1], m[1]*v[0] + m[3]*v[1]}
}

func transform(m f32.Vec4, t f32.Vec2, v f32.Vec2) f32.Vec2 {
	p := mul(m, v)
	return f32.Vec2{p[0] + t[0], p[1] + t[1]}
}

func det(m f32.Vec4) float32 { return m[0]*m[3] - m[2]*m[1] }

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// manhattanPixelWidth returns, in local units, the manhattan width of one
// pixel measured along dir.
func manhattanPixelWidth(m f32.Vec4, dir f32.Vec2) float32 {
	v := mul(m, dir)
	d := v[0]*v[0] + v[1]*v[1]
	if d == 0 {
		return 0
	}
	return (math32.Abs(v[0]) + math32.Abs(v[1])) / d
}

// ClipRectDistances returns the clip-rect varying for a pixel position:
// anti-aliased distances in the PLS mode, hard plane distances in the
// depth/stencil mode.
func (e *Env) ClipRectDistances(invM f32.Vec4, invT f32.Vec2, pixel f32.Vec2) f32.Vec4 {
	if e.DepthStencil {
		return clip.RectPlaneDistances(invM, invT, pixel)
	}
	return clip.RectDistances(invM, invT, pixel)
}

// unpackUnorm4x8 expands r in the low byte through a in the high byte.
func unpackUnorm4x8(u uint32) f32.Vec4 {
	return f32.Vec4{
		float32(u&0xff) / 255,
		float32(u>>8&0xff) / 255,
		float32(u>>16&0xff) / 255,
		float32(u>>24) / 255,
	}
}

// unpackColorInt expands 0xAARRGGBB.
func unpackColorInt(u uint32) f32.Vec4 {
	return f32.Vec4{
		float32(u>>16&0xff) / 255,
		float32(u>>8&0xff) / 255,
		float32(u&0xff) / 255,
		float32(u>>24) / 255,
	}
}
