// Package clip emulates a clip stack with a single per-pixel clip slot.
//
// The slot holds packHalf2x16(coverage, contentID). Only one clip is
// resident at a time; nesting works by intersecting a clip update with the
// outer clip's coverage, which is read on first touch and stashed in the
// scratch plane for the rest of the draw.
package clip

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

// Apply clips a color draw's coverage against the resident clip. A pixel
// whose slot holds another clip's content is fully clipped out.
func Apply(slot uint32, clipID, coverage float32) float32 {
	c, id := half.Unpack2x16(slot)
	if id != clipID {
		return 0
	}
	return math32.Min(coverage, c)
}

// UpdateResult is the outcome of one clip-update fragment.
type UpdateResult struct {
	// Slot is the new clip plane value.
	Slot uint32
	// Outer is the outer clip coverage to keep in scratch when Stash is set.
	Outer float32
	Stash bool
}

// Update writes coverage for clipID into the clip slot.
//
// When outerID is non-zero the coverage is first intersected with the
// outer clip. The first fragment of the draw to reach the pixel still sees
// the outer clip in the slot; it reads it and asks for it to be stashed.
// Later fragments find their own id there and take the outer coverage from
// stashed instead. Interior triangles never overlap, so nothing follows
// them and they skip the stash.
func Update(slot uint32, stashed float32, clipID, outerID, coverage float32, interior bool) UpdateResult {
	var r UpdateResult
	if outerID != 0 {
		c, id := half.Unpack2x16(slot)
		var outer float32
		if id != clipID {
			if id == outerID {
				outer = c
			}
			if !interior {
				r.Outer, r.Stash = outer, true
			}
		} else {
			outer = stashed
		}
		coverage = math32.Min(coverage, outer)
	}
	r.Slot = half.Pack2x16(coverage, clipID)
	return r
}

// RectDistances returns the four clip-rect edge coverages at p.
//
// invM (column-major 2x2) and invT map pixel space into the clip rect's
// normalized [-1, 1] square. Each component is the signed distance to one
// edge in pixels, biased so that a pixel center on the edge gets 0.5. A
// singular matrix encodes a uniform result carried in invT.
func RectDistances(invM f32.Vec4, invT f32.Vec2, p f32.Vec2) f32.Vec4 {
	aaX := math32.Abs(invM[0]) + math32.Abs(invM[2])
	aaY := math32.Abs(invM[1]) + math32.Abs(invM[3])
	if aaX == 0 || aaY == 0 {
		return f32.Vec4{invT[0], invT[1], invT[0], invT[1]}
	}
	rx, ry := 1/aaX, 1/aaY
	x := invM[0]*p[0] + invM[2]*p[1] + invT[0]
	y := invM[1]*p[0] + invM[3]*p[1] + invT[1]
	return f32.Vec4{
		(x+1)*rx + 0.5,
		(y+1)*ry + 0.5,
		(1-x)*rx + 0.5,
		(1-y)*ry + 0.5,
	}
}

// RectCoverage limits coverage by the nearest clip-rect edge.
func RectCoverage(d f32.Vec4, coverage float32) float32 {
	m := math32.Min(math32.Min(d[0], d[1]), math32.Min(d[2], d[3]))
	return math32.Max(0, math32.Min(m, coverage))
}

// RectPlaneDistances returns the unbiased distances used as clip planes
// in the depth/stencil mode, where the rect is hard-edged. A singular
// matrix yields the uniform invT as for RectDistances.
func RectPlaneDistances(invM f32.Vec4, invT f32.Vec2, p f32.Vec2) f32.Vec4 {
	if invM == (f32.Vec4{}) {
		return f32.Vec4{invT[0], invT[1], invT[0], invT[1]}
	}
	x := invM[0]*p[0] + invM[2]*p[1] + invT[0]
	y := invM[1]*p[0] + invM[3]*p[1] + invT[1]
	return f32.Vec4{x + 1, y + 1, 1 - x, 1 - y}
}

// InsidePlanes reports whether no plane distance is negative.
func InsidePlanes(d f32.Vec4) bool {
	return d[0] >= 0 && d[1] >= 0 && d[2] >= 0 && d[3] >= 0
}
