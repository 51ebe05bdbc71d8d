package blend

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Advanced composites src over dst with one of the advanced blend modes.
//
// src is straight alpha (coverage folded into alpha), dst is the
// un-premultiplied destination. The result is premultiplied:
//
//	rgb = src*sa*(1-da) + dst*da*(1-sa) + B(src, dst)*sa*da
//	a   = sa + da*(1-sa)
//
// When hsl is false the non-separable modes are not compiled into the
// variant and fall back to source-over. SrcOver itself never reaches here
// in the fragment programs, but is handled for completeness.
func Advanced(src, dst f32.Vec4, mode Mode, hsl bool) f32.Vec4 {
	var b [3]float32
	switch mode {
	case Screen:
		b = separable(src, dst, screen)
	case Overlay:
		b = separable(src, dst, overlay)
	case Darken:
		b = separable(src, dst, math32.Min)
	case Lighten:
		b = separable(src, dst, math32.Max)
	case ColorDodge:
		b = separable(src, dst, colorDodge)
	case ColorBurn:
		b = separable(src, dst, colorBurn)
	case HardLight:
		b = separable(src, dst, hardLight)
	case SoftLight:
		b = separable(src, dst, softLight)
	case Difference:
		b = separable(src, dst, difference)
	case Exclusion:
		b = separable(src, dst, exclusion)
	case Multiply:
		b = separable(src, dst, multiply)
	case Hue, Saturation, Color, Luminosity:
		if !hsl {
			return SourceOver(src, Premultiply(dst))
		}
		b = nonSeparable(src, dst, mode)
	default:
		return SourceOver(src, Premultiply(dst))
	}

	sa, da := src[3], dst[3]
	srcOnly := sa * (1 - da)
	dstOnly := da * (1 - sa)
	both := sa * da
	return f32.Vec4{
		src[0]*srcOnly + dst[0]*dstOnly + b[0]*both,
		src[1]*srcOnly + dst[1]*dstOnly + b[1]*both,
		src[2]*srcOnly + dst[2]*dstOnly + b[2]*both,
		sa + da*(1-sa),
	}
}

func separable(src, dst f32.Vec4, fn func(s, d float32) float32) [3]float32 {
	return [3]float32{fn(src[0], dst[0]), fn(src[1], dst[1]), fn(src[2], dst[2])}
}

func multiply(s, d float32) float32 { return s * d }

func screen(s, d float32) float32 { return s + d - s*d }

// overlay is hard light with the layers swapped.
func overlay(s, d float32) float32 { return hardLight(d, s) }

func hardLight(s, d float32) float32 {
	if s <= 0.5 {
		return multiply(d, 2*s)
	}
	return screen(d, 2*s-1)
}

func colorDodge(s, d float32) float32 {
	switch {
	case d == 0:
		return 0
	case s >= 1:
		return 1
	default:
		return math32.Min(1, d/(1-s))
	}
}

func colorBurn(s, d float32) float32 {
	switch {
	case d >= 1:
		return 1
	case s <= 0:
		return 0
	default:
		return 1 - math32.Min(1, (1-d)/s)
	}
}

func softLight(s, d float32) float32 {
	if s <= 0.5 {
		return d - (1-2*s)*d*(1-d)
	}
	var dd float32
	if d <= 0.25 {
		dd = ((16*d-12)*d + 4) * d
	} else {
		dd = math32.Sqrt(d)
	}
	return d + (2*s-1)*(dd-d)
}

func difference(s, d float32) float32 { return math32.Abs(s - d) }

func exclusion(s, d float32) float32 { return s + d - 2*s*d }
