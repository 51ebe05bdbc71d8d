package encode

import (
	"math"

	"golang.org/x/image/math/f32"
)

// PathData is the per-path transform record.
type PathData struct {
	// Matrix is the column-major 2x2 local-to-pixel matrix.
	Matrix    f32.Vec4
	Translate f32.Vec2
	// StrokeRadius is half the stroke width in local units; 0 for fills.
	StrokeRadius float32
	// ZIndex orders paths in the depth/stencil mode.
	ZIndex uint32
}

// ContourData describes one contour of a path.
type ContourData struct {
	// Midpoint is the fan center of a fill contour. Stroke contours store
	// a non-zero x when closed.
	Midpoint     f32.Vec2
	PathID       uint32
	VertexIndex0 uint32
}

// Closed reports whether a stroke contour wraps around.
func (c ContourData) Closed() bool { return c.Midpoint[0] != 0 }

// ClosedStrokeMarker is the stroke contour midpoint that marks it closed.
var ClosedStrokeMarker = f32.Vec2{1, 0}

// Tessellation vertex contour flags, stored above the 16-bit contour id.
const (
	ContourIDMask                  = 0xffff
	ContourFlagMirrored            = 1 << 31
	ContourFlagRetrofittedTriangle = 1 << 30
	ContourFlagLeftJoin            = 1 << 29
	ContourFlagRightJoin           = 1 << 28
)

// TessVertex is one tessellated point of a contour: its origin and the
// tangent angle theta. Contour id 0 marks padding.
type TessVertex struct {
	Origin  f32.Vec2
	Theta   float32
	Contour uint32
}

// ContourID returns the contour index without flags.
func (v TessVertex) ContourID() uint32 { return v.Contour & ContourIDMask }

// Patch vertex types.
const (
	VertexTypeStroke uint32 = iota
	VertexTypeFan
	VertexTypeFanMidpoint
)

// PatchVertex is one template vertex:
// (localVertexID, outset, fillCoverage, float bits of span<<2|vertexType).
type PatchVertex = f32.Vec4

// NewPatchVertex packs a template vertex.
func NewPatchVertex(local uint32, outset, fillCoverage float32, span, vertexType uint32) PatchVertex {
	return PatchVertex{float32(local), outset, fillCoverage, math.Float32frombits(span<<2 | vertexType)}
}

// UnpackPatchParams splits the packed w component of a patch vertex.
func UnpackPatchParams(w float32) (span, vertexType uint32) {
	b := math.Float32bits(w)
	return b >> 2, b & 3
}

// TemplateKind selects a patch template.
type TemplateKind uint8

const (
	TemplateStroke TemplateKind = iota
	TemplateFill
)

// String returns the template name.
func (k TemplateKind) String() string {
	if k == TemplateStroke {
		return "Stroke"
	}
	return "Fill"
}

// PatchTemplate is the triangle list drawn once per patch instance.
// Mirrored contours read the Mirrored stream and negate outsets. Negating
// the outset already reflects fringe triangles across the edge, so only
// the fan triangles, whose outset is 0, are reversed in that stream. Each
// triangle therefore faces front in exactly one of the two copies.
type PatchTemplate struct {
	Kind     TemplateKind
	Span     uint32
	Forward  []PatchVertex
	Mirrored []PatchVertex
}

// NewStrokeTemplate builds a strip of span quads with outsets -1 and +1
// on either side of the center line.
func NewStrokeTemplate(span uint32) *PatchTemplate {
	t := &PatchTemplate{Kind: TemplateStroke, Span: span}
	v := func(i uint32, outset float32) PatchVertex {
		return NewPatchVertex(i, outset, 0, span, VertexTypeStroke)
	}
	for i := uint32(0); i < span; i++ {
		t.addTriangle(false, v(i, -1), v(i, 1), v(i+1, -1))
		t.addTriangle(false, v(i+1, -1), v(i, 1), v(i+1, 1))
	}
	return t
}

// NewFillTemplate builds a midpoint fan plus two half-pixel fringe strips
// along the rim. The fan carries full coverage; the strips ramp it from
// 1 inside the edge to 0 outside.
func NewFillTemplate(span uint32) *PatchTemplate {
	t := &PatchTemplate{Kind: TemplateFill, Span: span}
	rim := func(i uint32, outset, cov float32) PatchVertex {
		return NewPatchVertex(i, outset, cov, span, VertexTypeFan)
	}
	for i := uint32(0); i < span; i++ {
		mid := NewPatchVertex(i, 0, 1, span, VertexTypeFanMidpoint)
		t.addTriangle(true, mid, rim(i, 0, 1), rim(i+1, 0, 1))

		// Inner fringe: -0.5 on the edge to 0 half a pixel inside.
		t.addTriangle(false, rim(i, -1, 0), rim(i, 0, -0.5), rim(i+1, 0, -0.5))
		t.addTriangle(false, rim(i, -1, 0), rim(i+1, 0, -0.5), rim(i+1, -1, 0))

		// Outer fringe: +0.5 on the edge to 0 half a pixel outside.
		t.addTriangle(false, rim(i, 0, 0.5), rim(i, 1, 0), rim(i+1, 1, 0))
		t.addTriangle(false, rim(i, 0, 0.5), rim(i+1, 1, 0), rim(i+1, 0, 0.5))
	}
	return t
}

func (t *PatchTemplate) addTriangle(reverseMirrored bool, a, b, c PatchVertex) {
	t.Forward = append(t.Forward, a, b, c)
	if reverseMirrored {
		t.Mirrored = append(t.Mirrored, a, c, b)
	} else {
		t.Mirrored = append(t.Mirrored, a, b, c)
	}
}

// Template returns the template for kind, or nil.
func (f *Flush) Template(kind TemplateKind) *PatchTemplate {
	if kind == TemplateStroke {
		return f.StrokeTemplate
	}
	return f.FillTemplate
}

// InteriorVertex is (x, y, float bits of winding<<16 | pathID) in local
// coordinates.
type InteriorVertex [3]float32

// NewInteriorVertex packs an interior triangle vertex.
func NewInteriorVertex(p f32.Vec2, pathID uint32, winding int16) InteriorVertex {
	return InteriorVertex{p[0], p[1], math.Float32frombits(uint32(uint16(winding))<<16 | pathID&0xffff)}
}

// Unpack returns the position, path id and winding weight.
func (v InteriorVertex) Unpack() (p f32.Vec2, pathID uint32, winding int16) {
	b := math.Float32bits(v[2])
	return f32.Vec2{v[0], v[1]}, b & 0xffff, int16(b >> 16)
}

// StencilVertex is (x, y, float bits of zIndex) in pixel coordinates.
type StencilVertex [3]float32

// NewStencilVertex packs a stencil vertex.
func NewStencilVertex(p f32.Vec2, zIndex uint32) StencilVertex {
	return StencilVertex{p[0], p[1], math.Float32frombits(zIndex & 0xffff)}
}

// NormalizeZIndex maps a z index to depth: later paths get smaller depth
// and pass a Less test against earlier ones.
func NormalizeZIndex(z uint32) float32 {
	return 1 - float32(z)*(2.0/32768)
}
