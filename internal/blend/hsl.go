package blend

import "github.com/chewxy/math32"

// Non-separable modes from W3C Compositing and Blending Level 1, section 8.
// They operate on the whole RGB triplet of straight-alpha colors.

type rgb = [3]float32

func lum(c rgb) float32 {
	return 0.30*c[0] + 0.59*c[1] + 0.11*c[2]
}

func sat(c rgb) float32 {
	return max3(c) - min3(c)
}

// clipColor pulls out-of-range components back toward the luminance.
func clipColor(c rgb) rgb {
	l := lum(c)
	n, x := min3(c), max3(c)
	if n < 0 {
		k := l / (l - n)
		c = rgb{l + (c[0]-l)*k, l + (c[1]-l)*k, l + (c[2]-l)*k}
	}
	if x > 1 {
		k := (1 - l) / (x - l)
		c = rgb{l + (c[0]-l)*k, l + (c[1]-l)*k, l + (c[2]-l)*k}
	}
	return c
}

func setLum(c rgb, l float32) rgb {
	d := l - lum(c)
	return clipColor(rgb{c[0] + d, c[1] + d, c[2] + d})
}

// setSat rescales c so that max-min equals s, keeping the channel order.
// Gray inputs collapse to black.
func setSat(c rgb, s float32) rgb {
	lo, mid, hi := order(c)
	span := c[hi] - c[lo]
	var out rgb
	if span > 0 {
		out[mid] = (c[mid] - c[lo]) * s / span
		out[hi] = s
	}
	return out
}

// order returns the channel indices of c sorted by value.
func order(c rgb) (lo, mid, hi int) {
	lo, mid, hi = 0, 1, 2
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	if c[mid] > c[hi] {
		mid, hi = hi, mid
	}
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	return lo, mid, hi
}

func nonSeparable(src, dst [4]float32, mode Mode) rgb {
	s := rgb{src[0], src[1], src[2]}
	d := rgb{dst[0], dst[1], dst[2]}
	switch mode {
	case Hue:
		return setLum(setSat(s, sat(d)), lum(d))
	case Saturation:
		return setLum(setSat(d, sat(s)), lum(d))
	case Color:
		return setLum(s, lum(d))
	default:
		return setLum(d, lum(s))
	}
}

func min3(c rgb) float32 { return math32.Min(c[0], math32.Min(c[1], c[2])) }

func max3(c rgb) float32 { return math32.Max(c[0], math32.Max(c[1], c[2])) }
