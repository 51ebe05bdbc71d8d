// Package paint decodes the interpolated paint varying and resolves it to
// a straight-alpha color.
//
// The vertex stage squeezes every paint kind into one vec4 by sign and
// magnitude of w:
//
//	w >= 0       solid, xyzw is the color
//	-1 < w < 0   gradient, -w is the ramp row, z selects linear/radial
//	w <= -1      image, xy is the texture coordinate, z the opacity
//
// Decode turns that into a Paint once per fragment.
package paint

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Kind is the resolved paint kind.
type Kind uint8

const (
	KindSolid Kind = iota
	KindGradient
	KindImage
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSolid:
		return "Solid"
	case KindGradient:
		return "Gradient"
	case KindImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// FullRowSpan is the z magnitude marking a gradient that spans the whole
// ramp row. Smaller magnitudes are the left texel center of a two-texel
// ramp.
const FullRowSpan = 2

// Gradient is a linear or radial ramp lookup.
type Gradient struct {
	Radial bool
	// Coord is the paint-space coordinate; linear ramps use only x.
	Coord f32.Vec2
	// Span is FullRowSpan or the normalized left texel of a two-texel ramp.
	Span float32
	// Row is the normalized v coordinate of the ramp row center.
	Row float32
}

// Image is a textured paint.
type Image struct {
	UV      f32.Vec2
	Opacity float32
}

// Paint is the decoded paint varying. Only the member named by Kind is
// meaningful.
type Paint struct {
	Kind     Kind
	Color    f32.Vec4
	Gradient Gradient
	Image    Image
}

// Decode classifies the packed paint varying.
func Decode(v f32.Vec4) Paint {
	switch {
	case v[3] >= 0:
		return Paint{Kind: KindSolid, Color: v}
	case v[3] > -1:
		return Paint{Kind: KindGradient, Gradient: Gradient{
			Radial: v[2] < 0,
			Coord:  f32.Vec2{v[0], v[1]},
			Span:   math32.Abs(v[2]),
			Row:    -v[3],
		}}
	default:
		return Paint{Kind: KindImage, Image: Image{
			UV:      f32.Vec2{v[0], v[1]},
			Opacity: v[2],
		}}
	}
}

// T returns the clamped ramp parameter.
func (g Gradient) T() float32 {
	var t float32
	if g.Radial {
		t = math32.Sqrt(g.Coord[0]*g.Coord[0] + g.Coord[1]*g.Coord[1])
	} else {
		t = g.Coord[0]
	}
	return math32.Max(0, math32.Min(t, 1))
}

// U returns the horizontal ramp texture coordinate for the parameter.
func (g Gradient) U(width int) float32 {
	t := g.T()
	w := float32(width)
	if g.Span > 1 {
		// Texel center 0 to texel center width-1.
		return t*(1-1/w) + 0.5/w
	}
	return t/w + g.Span
}

// Derivatives are the screen-space derivatives of the image coordinate,
// in normalized texture units per pixel.
type Derivatives struct {
	DX, DY f32.Vec2
}

// Samplers bundles the textures a draw may sample.
type Samplers struct {
	Gradient *GradientTexture
	Image    *ImageTexture
}

// Resolve returns the straight-alpha color of p. A paint whose texture is
// missing resolves to transparent.
func Resolve(p Paint, s Samplers, d Derivatives) f32.Vec4 {
	switch p.Kind {
	case KindSolid:
		return p.Color
	case KindGradient:
		if s.Gradient == nil {
			return f32.Vec4{}
		}
		g := p.Gradient
		return s.Gradient.SampleLOD0(g.U(s.Gradient.Width()), g.Row)
	case KindImage:
		if s.Image == nil {
			return f32.Vec4{}
		}
		c := s.Image.SampleGrad(p.Image.UV, d.DX, d.DY)
		c[3] *= p.Image.Opacity
		return c
	default:
		return f32.Vec4{}
	}
}
