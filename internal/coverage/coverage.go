// Package coverage implements the per-pixel coverage accumulator.
//
// Each pixel owns one 32-bit slot holding packHalf2x16(count, pathID).
// The count is only meaningful while the stored id equals the id of the
// fragment reading it: a slot left behind by another path reads as zero.
// This is what lets overlapping triangles of one draw rasterize in any
// order without sorting.
package coverage

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

// FillRule selects how accumulated winding becomes coverage.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

// String returns the fill rule name.
func (r FillRule) String() string {
	switch r {
	case NonZero:
		return "NonZero"
	case EvenOdd:
		return "EvenOdd"
	default:
		return "Unknown"
	}
}

// RuleOf decodes the fill rule carried in the sign of an encoded path id.
func RuleOf(pathID float32) FillRule {
	if pathID < 0 {
		return EvenOdd
	}
	return NonZero
}

// Load returns the starting count for a fragment of pathID. owned is false
// when the slot belongs to another path, in which case count is 0.
func Load(slot uint32, pathID float32) (count float32, owned bool) {
	c, id := half.Unpack2x16(slot)
	if id != pathID {
		return 0, false
	}
	return c, true
}

// Store packs a count and owning path id into a slot.
func Store(count, pathID float32) uint32 {
	return half.Pack2x16(count, pathID)
}

// IsStroke reports whether an edge distance pair belongs to a stroke.
// Fills carry a negative stroke component.
func IsStroke(edge f32.Vec2) bool {
	return edge[1] >= 0
}

// AccumulateEdge folds a patch fragment's edge distances into count.
//
// Strokes never accumulate: the stroke band takes the larger of the
// existing count and min(fill, stroke) distance. Fills add the fill
// distance, which is signed by contour direction.
func AccumulateEdge(count float32, edge f32.Vec2) float32 {
	if IsStroke(edge) {
		return math32.Max(math32.Min(edge[0], edge[1]), count)
	}
	return count + edge[0]
}

// AccumulateWinding adds an interior triangle's flat winding weight.
func AccumulateWinding(count, weight float32) float32 {
	return count + weight
}

// EvenOddFold folds a winding count into the even-odd triangle wave:
// even counts map to 0, odd counts to 1, linear in between.
func EvenOddFold(c float32) float32 {
	f := c * 0.5
	f -= math32.Floor(f)
	return 1 - math32.Abs(f*2-1)
}

// Resolve converts a raw count to coverage in [0, 1]. The even-odd fold
// only runs in variants built with even-odd support.
func Resolve(count float32, rule FillRule, evenOdd bool) float32 {
	c := math32.Abs(count)
	if evenOdd && rule == EvenOdd {
		c = EvenOddFold(c)
	}
	return math32.Min(c, 1)
}
