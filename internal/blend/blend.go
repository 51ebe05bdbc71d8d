// Package blend composites resolved paint colors onto the destination.
//
// Colors are f32.Vec4 in [0, 1]. Sources arrive straight (un-premultiplied)
// with coverage already folded into alpha; destinations are premultiplied
// as stored in the color plane. Every function returns a premultiplied
// color ready to be written back.
package blend

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Mode selects how a path's color combines with the destination.
// The numeric values are the 4-bit selector carried in the paint record.
type Mode uint8

const (
	SrcOver Mode = iota
	Screen
	Overlay
	Darken
	Lighten
	ColorDodge
	ColorBurn
	HardLight
	SoftLight
	Difference
	Exclusion
	Multiply
	Hue
	Saturation
	Color
	Luminosity
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case SrcOver:
		return "SrcOver"
	case Screen:
		return "Screen"
	case Overlay:
		return "Overlay"
	case Darken:
		return "Darken"
	case Lighten:
		return "Lighten"
	case ColorDodge:
		return "ColorDodge"
	case ColorBurn:
		return "ColorBurn"
	case HardLight:
		return "HardLight"
	case SoftLight:
		return "SoftLight"
	case Difference:
		return "Difference"
	case Exclusion:
		return "Exclusion"
	case Multiply:
		return "Multiply"
	case Hue:
		return "Hue"
	case Saturation:
		return "Saturation"
	case Color:
		return "Color"
	case Luminosity:
		return "Luminosity"
	default:
		return "Unknown"
	}
}

// IsHSL reports whether m is one of the non-separable modes.
func (m Mode) IsHSL() bool {
	return m >= Hue && m <= Luminosity
}

// IsAdvanced reports whether m bypasses source-over.
func (m Mode) IsAdvanced() bool {
	return m != SrcOver && m <= Luminosity
}

// SourceOver composites a straight-alpha source over a premultiplied
// destination: rgb *= a, then src + dst*(1-a).
func SourceOver(src, dst f32.Vec4) f32.Vec4 {
	a := src[3]
	inv := 1 - a
	return f32.Vec4{
		src[0]*a + dst[0]*inv,
		src[1]*a + dst[1]*inv,
		src[2]*a + dst[2]*inv,
		a + dst[3]*inv,
	}
}

// Premultiply scales rgb by alpha.
func Premultiply(c f32.Vec4) f32.Vec4 {
	return f32.Vec4{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}

// Unmultiply divides rgb by alpha. Fully transparent colors are returned
// unchanged.
func Unmultiply(c f32.Vec4) f32.Vec4 {
	if c[3] == 0 {
		return c
	}
	inv := 1 / c[3]
	return f32.Vec4{
		math32.Min(c[0]*inv, 1),
		math32.Min(c[1]*inv, 1),
		math32.Min(c[2]*inv, 1),
		c[3],
	}
}
