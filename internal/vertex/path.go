package vertex

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

// DrawPathVertex runs the patch vertex program for one template vertex of
// the given instance. mirrored is the same vertex from the template's
// mirrored stream.
func DrawPathVertex(env *Env, v, mirrored encode.PatchVertex, instance uint32) Output {
	f := env.Flush
	local := uint32(v[0])
	outset, fillCov := v[1], v[2]
	span, typ := encode.UnpackPatchParams(v[3])
	if span == 0 {
		return env.discard()
	}

	onContour := min(local, span-1)
	base := instance * span
	idx := base + onContour
	if int(idx) >= len(f.TessVertices) {
		return env.discard()
	}
	tv := f.TessVertices[idx]
	cid := tv.ContourID()
	if cid == 0 || int(cid) >= len(f.Contours) {
		return env.discard()
	}
	contour := f.Contours[cid]
	pathID := contour.PathID
	if pathID == 0 || int(pathID) >= len(f.Paths) || int(pathID) >= len(f.Paints) {
		return env.discard()
	}

	if tv.Contour&encode.ContourFlagMirrored != 0 {
		local = uint32(mirrored[0])
		outset, fillCov = -mirrored[1], -mirrored[2]
		span, typ = encode.UnpackPatchParams(mirrored[3])
		if span == 0 {
			return env.discard()
		}
	}

	// Mirrored streams and the closing vertex of a patch name a different
	// tess vertex than the one fetched above.
	if local != onContour {
		if local >= span {
			tv = nextVertex(f, base+span-1, cid, contour)
		} else {
			j := base + local
			if int(j) >= len(f.TessVertices) || f.TessVertices[j].ContourID() != cid {
				return env.discard()
			}
			tv = f.TessVertices[j]
		}
	}

	if tv.Contour&encode.ContourFlagRetrofittedTriangle != 0 && typ == encode.VertexTypeFanMidpoint {
		// The interior triangulation already covers the fan.
		return env.discard()
	}

	path := &f.Paths[pathID]
	m := path.Matrix
	norm := f32.Vec2{math32.Sin(tv.Theta), -math32.Cos(tv.Theta)}

	var (
		pixel f32.Vec2
		edge  f32.Vec2
	)
	if r := path.StrokeRadius; r > 0 {
		if det(m) < 0 {
			outset = -outset
		}
		switch {
		case tv.Contour&encode.ContourFlagLeftJoin != 0:
			outset = math32.Min(outset, 0)
		case tv.Contour&encode.ContourFlagRightJoin != 0:
			outset = math32.Max(outset, 0)
		}

		var aa float32
		if !env.DepthStencil {
			aa = manhattanPixelWidth(m, norm) * 0.5
		}
		globalCov := float32(1)
		if aa > r {
			// Hairline: widen to a pixel and fade instead.
			globalCov = r / aa
			r = aa
		}
		d := outset * (r + aa)
		pixel = transform(m, path.Translate, f32.Vec2{tv.Origin[0] + norm[0]*d, tv.Origin[1] + norm[1]*d})
		if env.DepthStencil {
			edge = f32.Vec2{1, 1}
		} else {
			edge = f32.Vec2{
				((d+r)/(2*aa) + 0.5) * globalCov,
				math32.Max(((-d+r)/(2*aa)+0.5)*globalCov, strokeMarkerMin),
			}
		}
	} else {
		origin := tv.Origin
		if typ == encode.VertexTypeFanMidpoint {
			origin = contour.Midpoint
		}
		pixel = transform(m, path.Translate, origin)
		if !env.DepthStencil && outset != 0 {
			// Fringe vertices move half a pixel along each axis.
			n := mul(m, f32.Vec2{norm[0] * outset, norm[1] * outset})
			pixel[0] += sign(n[0]) * 0.5
			pixel[1] += sign(n[1]) * 0.5
		}
		edge = f32.Vec2{fillCov, -1}
	}

	o := env.finishPathVertex(pathID, pixel, path.ZIndex)
	o.Edge = edge
	return o
}

// nextVertex returns the vertex that ends the last segment of a patch:
// the next one in the contour, the contour's first vertex when it wraps,
// or the current vertex otherwise.
func nextVertex(f *encode.Flush, idx, cid uint32, contour encode.ContourData) encode.TessVertex {
	if int(idx+1) < len(f.TessVertices) {
		if next := f.TessVertices[idx+1]; next.ContourID() == cid {
			return next
		}
	}
	stroke := f.Paths[contour.PathID].StrokeRadius > 0
	if (!stroke || contour.Closed()) && int(contour.VertexIndex0) < len(f.TessVertices) {
		return f.TessVertices[contour.VertexIndex0]
	}
	return f.TessVertices[idx]
}

// DrawInteriorTriangleVertex runs the vertex program for one vertex of an
// interior triangle.
func DrawInteriorTriangleVertex(env *Env, v encode.InteriorVertex) Output {
	f := env.Flush
	p, pathID, winding := v.Unpack()
	if pathID == 0 || int(pathID) >= len(f.Paths) || int(pathID) >= len(f.Paints) {
		return env.discard()
	}
	path := &f.Paths[pathID]
	o := env.finishPathVertex(pathID, transform(path.Matrix, path.Translate, p), path.ZIndex)
	// A mirroring transform flips the triangle's orientation.
	o.Winding = float32(winding) * sign(det(path.Matrix))
	return o
}

// finishPathVertex fills the varyings shared by patches and interior
// triangles.
func (e *Env) finishPathVertex(pathID uint32, pixel f32.Vec2, zIndex uint32) Output {
	f := e.Flush
	g := f.Uniforms.PathIDGranularity
	pd := f.Paints[pathID]

	o := Output{
		Position:  e.position(pixel, e.depth(zIndex)),
		PathIndex: pathID,
		PathID:    half.IDToF16(pathID, g),
		BlendMode: pd.BlendMode(),
	}
	if pd.EvenOdd() {
		o.PathID = -o.PathID
	}
	if pd.Type() == encode.PaintTypeClipUpdate {
		o.ClipID = -half.IDToF16(pd.UpdateClipID(), g)
	} else {
		o.ClipID = half.IDToF16(pd.ClipID(), g)
	}

	fragCoord := pixel
	if f.Uniforms.FragCoordBottomUp {
		fragCoord[1] = float32(f.Uniforms.Height) - fragCoord[1]
	}

	aux := encode.PaintAux{ClipRectInverseTranslate: encode.NoClipRect[1]}
	if int(pathID) < len(f.PaintAux) {
		aux = f.PaintAux[pathID]
	}
	o.ClipRect = e.ClipRectDistances(aux.ClipRectInverseMatrix,
		f32.Vec2{aux.ClipRectInverseTranslate[0], aux.ClipRectInverseTranslate[1]}, fragCoord)
	o.Paint = paintVarying(pd, &aux, fragCoord, g)
	return o
}

// paintVarying packs the paint for interpolation.
func paintVarying(pd encode.PaintData, aux *encode.PaintAux, fragCoord f32.Vec2, g uint32) f32.Vec4 {
	switch t := pd.Type(); t {
	case encode.PaintTypeSolid:
		return unpackUnorm4x8(pd[1])
	case encode.PaintTypeClipUpdate:
		return f32.Vec4{half.IDToF16(pd.ClipID(), g), 0, 0, 0}
	case encode.PaintTypeLinearGradient, encode.PaintTypeRadialGradient:
		c := transform(aux.Matrix, f32.Vec2{aux.Translate[0], aux.Translate[1]}, fragCoord)
		z := aux.Translate[3]
		if aux.Translate[2] > 0.9 {
			z = 2
		}
		if t == encode.PaintTypeLinearGradient {
			return f32.Vec4{c[0], 0, z, -pd.Float()}
		}
		return f32.Vec4{c[0], c[1], -z, -pd.Float()}
	default:
		c := transform(aux.Matrix, f32.Vec2{aux.Translate[0], aux.Translate[1]}, fragCoord)
		return f32.Vec4{c[0], c[1], pd.Float(), -2}
	}
}
