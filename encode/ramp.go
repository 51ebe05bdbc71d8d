package encode

import (
	"fmt"
	"image/color"
	"sort"
)

// ColorRampSpan is one horizontal run of the gradient texture. X packs
// x0 | x1<<16 in units of 1/65536 of the texture width; colors are
// 0xAARRGGBB and interpolate from x0 to x1.
type ColorRampSpan struct {
	X      uint32
	Row    uint32
	Color0 uint32
	Color1 uint32
}

// PackColor converts a straight-alpha color to 0xAARRGGBB.
func PackColor(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// newSpan places a span covering texels [x0, x1) of a width-texel row.
func newSpan(x0, x1 float32, width int, row uint32, c0, c1 color.NRGBA) ColorRampSpan {
	toUnits := func(x float32) uint32 {
		u := int64(x / float32(width) * 65536)
		return uint32(min(max(u, 0), 65535))
	}
	return ColorRampSpan{
		X:      toUnits(x0) | toUnits(x1)<<16,
		Row:    row,
		Color0: PackColor(c0),
		Color1: PackColor(c1),
	}
}

// GradientStop is a ramp color at offset T in [0, 1].
type GradientStop struct {
	T     float32
	Color color.NRGBA
}

// GradientRef locates an allocated ramp.
type GradientRef struct {
	Row uint32
	// Simple ramps occupy two texels starting at texel X0.
	Simple bool
	X0     uint32
}

// RampScale and RampX0 are the paint translate z and w components for r.
func (r GradientRef) RampScale(width int) float32 {
	if r.Simple {
		return 1 / float32(width)
	}
	return 1
}

// RampX0 returns the normalized center of the ramp's left texel.
func (r GradientRef) RampX0(width int) float32 {
	if !r.Simple {
		return 0
	}
	return (float32(r.X0) + 0.5) / float32(width)
}

// GradientAllocator hands out ramp texture rows. Two-stop ramps share
// rows two texels at a time; anything else takes a whole row.
type GradientAllocator struct {
	width      int
	spans      []ColorRampSpan
	rows       uint32
	simpleRow  uint32
	simpleNext uint32
	hasSimple  bool
}

// NewGradientAllocator creates an allocator for a ramp texture of the
// given width.
func NewGradientAllocator(width int) *GradientAllocator {
	return &GradientAllocator{width: width}
}

// Add allocates a ramp for stops, which must be sorted by T.
func (a *GradientAllocator) Add(stops []GradientStop) (GradientRef, error) {
	switch {
	case len(stops) == 0:
		return GradientRef{}, fmt.Errorf("%w: gradient without stops", ErrMissingResource)
	case len(stops) == 1:
		return a.addSimple(stops[0].Color, stops[0].Color), nil
	case len(stops) == 2 && stops[0].T == 0 && stops[1].T == 1:
		return a.addSimple(stops[0].Color, stops[1].Color), nil
	}
	if !sort.SliceIsSorted(stops, func(i, j int) bool { return stops[i].T < stops[j].T }) {
		return GradientRef{}, fmt.Errorf("%w: gradient stops out of order", ErrMissingResource)
	}
	return a.addComplex(stops), nil
}

func (a *GradientAllocator) addSimple(c0, c1 color.NRGBA) GradientRef {
	if !a.hasSimple || int(a.simpleNext)+2 > a.width {
		a.simpleRow = a.rows
		a.rows++
		a.simpleNext = 0
		a.hasSimple = true
	}
	x := a.simpleNext
	a.simpleNext += 2
	fx := float32(x)
	a.spans = append(a.spans,
		newSpan(fx, fx+1, a.width, a.simpleRow, c0, c0),
		newSpan(fx+1, fx+2, a.width, a.simpleRow, c1, c1),
	)
	return GradientRef{Row: a.simpleRow, Simple: true, X0: x}
}

// addComplex lays the stops out so that texel center i holds t = i/(w-1).
func (a *GradientAllocator) addComplex(stops []GradientStop) GradientRef {
	row := a.rows
	a.rows++
	w := float32(a.width)
	xOf := func(t float32) float32 { return clamp01(t)*(w-1) + 0.5 }

	first, last := stops[0], stops[len(stops)-1]
	a.spans = append(a.spans, newSpan(0, xOf(first.T), a.width, row, first.Color, first.Color))
	for i := 0; i+1 < len(stops); i++ {
		s0, s1 := stops[i], stops[i+1]
		x0, x1 := xOf(s0.T), xOf(s1.T)
		if x1 <= x0 {
			continue
		}
		a.spans = append(a.spans, newSpan(x0, x1, a.width, row, s0.Color, s1.Color))
	}
	a.spans = append(a.spans, newSpan(xOf(last.T), w, a.width, row, last.Color, last.Color))
	return GradientRef{Row: row}
}

// Rows returns the number of ramp rows allocated.
func (a *GradientAllocator) Rows() uint32 { return a.rows }

// Spans returns the spans to render into the ramp texture.
func (a *GradientAllocator) Spans() []ColorRampSpan { return a.spans }

// RowCenter returns the normalized v coordinate of row once the total row
// count is known.
func RowCenter(row, rows uint32) float32 {
	if rows == 0 {
		return 0
	}
	return (float32(row) + 0.5) / float32(rows)
}

func clamp01(v float32) float32 {
	return max(0, min(v, 1))
}
