package encode

import (
	"image/color"
	"math"

	"golang.org/x/image/math/f32"
)

// PaintType is the low nibble of a paint record.
type PaintType uint8

const (
	PaintTypeSolid PaintType = iota
	PaintTypeLinearGradient
	PaintTypeRadialGradient
	PaintTypeImage
	PaintTypeClipUpdate
)

// String returns the paint type name.
func (t PaintType) String() string {
	switch t {
	case PaintTypeSolid:
		return "Solid"
	case PaintTypeLinearGradient:
		return "LinearGradient"
	case PaintTypeRadialGradient:
		return "RadialGradient"
	case PaintTypeImage:
		return "Image"
	case PaintTypeClipUpdate:
		return "ClipUpdate"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is a defined paint type.
func (t PaintType) Valid() bool {
	return t <= PaintTypeClipUpdate
}

// BlendMode is the 4-bit blend selector of a paint record.
type BlendMode uint8

const (
	BlendSrcOver BlendMode = iota
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendMultiply
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
)

// IsHSL reports whether m needs FeatureHSLBlendModes.
func (m BlendMode) IsHSL() bool {
	return m >= BlendHue && m <= BlendLuminosity
}

// Paint record layout.
const (
	paintTypeMask    = 0xf
	paintBlendShift  = 4
	paintBlendMask   = 0xf
	PaintFlagEvenOdd = 0x100
	paintClipShift   = 16
)

// PaintData is the packed per-path paint record.
//
// x holds the type (bits 0-3), blend mode (bits 4-7), the even-odd flag
// and the clip id (bits 16-31; the outer clip id for clip updates). y
// holds the kind-specific payload.
type PaintData [2]uint32

// Type returns the paint type.
func (p PaintData) Type() PaintType { return PaintType(p[0] & paintTypeMask) }

// BlendMode returns the blend selector.
func (p PaintData) BlendMode() BlendMode {
	return BlendMode(p[0] >> paintBlendShift & paintBlendMask)
}

// EvenOdd reports whether the path fills with the even-odd rule.
func (p PaintData) EvenOdd() bool { return p[0]&PaintFlagEvenOdd != 0 }

// ClipID returns the clip the path is drawn against. For clip updates it
// is the outer clip id.
func (p PaintData) ClipID() uint32 { return p[0] >> paintClipShift }

// UpdateClipID returns the id a clip-update paint writes.
func (p PaintData) UpdateClipID() uint32 { return p[1] >> paintClipShift }

// Color returns the solid color payload.
func (p PaintData) Color() color.NRGBA {
	return color.NRGBA{R: uint8(p[1]), G: uint8(p[1] >> 8), B: uint8(p[1] >> 16), A: uint8(p[1] >> 24)}
}

// Float returns the payload as a float: the gradient row center or the
// image opacity.
func (p PaintData) Float() float32 { return math.Float32frombits(p[1]) }

func packHeader(t PaintType, mode BlendMode, evenOdd bool, clipID uint32) uint32 {
	x := uint32(t)&paintTypeMask | uint32(mode&paintBlendMask)<<paintBlendShift | clipID<<paintClipShift
	if evenOdd {
		x |= PaintFlagEvenOdd
	}
	return x
}

// SolidPaint packs a solid color paint.
func SolidPaint(c color.NRGBA, mode BlendMode, evenOdd bool, clipID uint32) PaintData {
	return PaintData{
		packHeader(PaintTypeSolid, mode, evenOdd, clipID),
		uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24,
	}
}

// GradientPaint packs a gradient paint. rowCenter is the normalized v
// coordinate of its ramp row.
func GradientPaint(radial bool, rowCenter float32, mode BlendMode, evenOdd bool, clipID uint32) PaintData {
	t := PaintTypeLinearGradient
	if radial {
		t = PaintTypeRadialGradient
	}
	return PaintData{packHeader(t, mode, evenOdd, clipID), math.Float32bits(rowCenter)}
}

// ImagePaint packs an image paint.
func ImagePaint(opacity float32, mode BlendMode, evenOdd bool, clipID uint32) PaintData {
	return PaintData{packHeader(PaintTypeImage, mode, evenOdd, clipID), math.Float32bits(opacity)}
}

// ClipUpdatePaint packs the pseudo-paint of a path that writes clipID,
// nested inside outerClipID (0 for none).
func ClipUpdatePaint(clipID, outerClipID uint32, evenOdd bool) PaintData {
	return PaintData{
		packHeader(PaintTypeClipUpdate, BlendSrcOver, evenOdd, outerClipID),
		clipID << paintClipShift,
	}
}

// PaintAux is the auxiliary per-path record: four vec4 slots.
type PaintAux struct {
	// Matrix maps pixel coordinates into paint space, column-major 2x2.
	Matrix f32.Vec4
	// Translate is (tx, ty, rampScale, rampX0). rampScale is about 1 for
	// ramps spanning a full row and 1/GradTextureWidth for two-texel
	// ramps, whose left texel center is rampX0.
	Translate f32.Vec4
	// ClipRectInverseMatrix maps pixel coordinates into the clip rect's
	// [-1, 1] square. All zero means no clip rect.
	ClipRectInverseMatrix f32.Vec4
	// ClipRectInverseTranslate holds the translation in xy.
	ClipRectInverseTranslate f32.Vec4
}

// NoClipRect is the clip-rect pair that leaves coverage untouched: a
// singular matrix with a uniform distance of 1.
var NoClipRect = [2]f32.Vec4{{}, {1, 1, 0, 0}}

// ClipRectTransform returns the inverse matrix and translate for the
// pixel-space rectangle [x0, x1] x [y0, y1].
func ClipRectTransform(x0, y0, x1, y1 float32) (invM, invT f32.Vec4) {
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		// Uniformly clipped out.
		return f32.Vec4{}, f32.Vec4{-1, -1, 0, 0}
	}
	return f32.Vec4{2 / w, 0, 0, 2 / h}, f32.Vec4{-(x0 + x1) / w, -(y0 + y1) / h, 0, 0}
}

// LinearGradientTransform maps pixel coordinates to t along p0->p1 in the
// x component.
func LinearGradientTransform(p0, p1 f32.Vec2) (m f32.Vec4, t f32.Vec2) {
	dx, dy := p1[0]-p0[0], p1[1]-p0[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return f32.Vec4{}, f32.Vec2{}
	}
	return f32.Vec4{dx / l2, 0, dy / l2, 0}, f32.Vec2{-(p0[0]*dx + p0[1]*dy) / l2, 0}
}

// RadialGradientTransform maps pixel coordinates so that length(xy) is
// the distance to center divided by radius.
func RadialGradientTransform(center f32.Vec2, radius float32) (m f32.Vec4, t f32.Vec2) {
	if radius <= 0 {
		return f32.Vec4{}, f32.Vec2{}
	}
	inv := 1 / radius
	return f32.Vec4{inv, 0, 0, inv}, f32.Vec2{-center[0] * inv, -center[1] * inv}
}

// ImageTransform maps pixel coordinates to normalized uv for an image of
// size w x h placed by the affine transform xf (image pixels to target
// pixels). ok is false when xf is singular.
func ImageTransform(xf f32.Aff3, w, h int) (m f32.Vec4, t f32.Vec2, ok bool) {
	inv, ok := invertAff3(xf)
	if !ok || w <= 0 || h <= 0 {
		return f32.Vec4{}, f32.Vec2{}, false
	}
	sx, sy := 1/float32(w), 1/float32(h)
	return f32.Vec4{inv[0] * sx, inv[3] * sy, inv[1] * sx, inv[4] * sy},
		f32.Vec2{inv[2] * sx, inv[5] * sy}, true
}

// MatrixOf converts an affine transform to the column-major 2x2 matrix
// and translation used by path records.
func MatrixOf(a f32.Aff3) (m f32.Vec4, t f32.Vec2) {
	return f32.Vec4{a[0], a[3], a[1], a[4]}, f32.Vec2{a[2], a[5]}
}

// Identity is the identity affine transform.
var Identity = f32.Aff3{1, 0, 0, 0, 1, 0}

func invertAff3(a f32.Aff3) (f32.Aff3, bool) {
	det := a[0]*a[4] - a[1]*a[3]
	if det == 0 {
		return f32.Aff3{}, false
	}
	id := 1 / det
	return f32.Aff3{
		a[4] * id, -a[1] * id, (a[1]*a[5] - a[4]*a[2]) * id,
		-a[3] * id, a[0] * id, (a[3]*a[2] - a[0]*a[5]) * id,
	}, true
}
