package vertex

import (
	"math"

	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

// DrawImageMeshVertex runs the image mesh vertex program.
func DrawImageMeshVertex(env *Env, u *encode.ImageDrawUniforms, pos, uv f32.Vec2) Output {
	pixel := transform(u.ViewMatrix, u.Translate, pos)
	z := float32(0)
	if env.DepthStencil {
		z = encode.NormalizeZIndex(u.ZIndex)
	}
	return Output{
		Position:  env.position(pixel, z),
		ClipID:    half.IDToF16(u.ClipID, env.Flush.Uniforms.PathIDGranularity),
		BlendMode: u.BlendMode,
		ClipRect:  env.ClipRectDistances(u.ClipRectInverseMatrix, u.ClipRectInverseTranslate, pixel),
		Paint:     f32.Vec4{uv[0], uv[1], u.Opacity, -2},
	}
}

// StencilVertex runs the stencil vertex program used by the depth/stencil
// mode's clip resolve.
func StencilVertex(env *Env, v encode.StencilVertex) f32.Vec4 {
	zIndex := math.Float32bits(v[2]) & 0xffff
	return env.position(f32.Vec2{v[0], v[1]}, encode.NormalizeZIndex(zIndex))
}

// RampStripIndices are the two triangles of a color ramp span quad.
var RampStripIndices = [6]uint32{0, 1, 2, 2, 1, 3}

// ColorRampVertex runs the color ramp vertex program for one corner of a
// span. Even vertex ids sit on x0 with Color0, odd ones on x1 with Color1;
// bit 1 selects the row's top or bottom edge. The result is in clip space
// of a GradTextureWidth x rows viewport.
func ColorRampVertex(span encode.ColorRampSpan, vertexID uint32, gradInverseViewportY float32) (pos, color f32.Vec4) {
	var x float32
	if vertexID&1 == 0 {
		x = float32(span.X&0xffff) / 65536
		color = unpackColorInt(span.Color0)
	} else {
		x = float32(span.X>>16) / 65536
		color = unpackColorInt(span.Color1)
	}
	offY := float32(1)
	if vertexID&2 != 0 {
		offY = 0
	}
	if gradInverseViewportY < 0 {
		offY = 1 - offY
	}
	y := (float32(span.Row)+offY)*gradInverseViewportY - sign(gradInverseViewportY)
	return f32.Vec4{x*2 - 1, y, 0, 1}, color
}
