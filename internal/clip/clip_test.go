package clip

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

func TestApply(t *testing.T) {
	id1 := half.IDToF16(1, 1)
	id2 := half.IDToF16(2, 1)
	slot := half.Pack2x16(0.5, id1)

	tests := []struct {
		name     string
		clipID   float32
		coverage float32
		want     float32
	}{
		{"matching clip intersects", id1, 1, 0.5},
		{"matching clip keeps smaller coverage", id1, 0.25, 0.25},
		{"other clip is fully clipped", id2, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(slot, tt.clipID, tt.coverage); got != tt.want {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

// pixel simulates the clip and scratch planes of one pixel.
type pixel struct {
	clip    uint32
	scratch float32
}

func (p *pixel) update(clipID, outerID, coverage float32, interior bool) {
	r := Update(p.clip, p.scratch, clipID, outerID, coverage, interior)
	if r.Stash {
		p.scratch = r.Outer
	}
	p.clip = r.Slot
}

func TestNestedUpdate(t *testing.T) {
	outer := half.IDToF16(1, 1)
	inner := half.IDToF16(2, 1)

	tests := []struct {
		name  string
		outer float32 // outer clip coverage written first, <0 for none
		hits  []float32
		want  float32
	}{
		{"inside both", 1, []float32{1}, 1},
		{"outside outer", -1, []float32{1}, 0},
		{"partial outer", 0.5, []float32{1}, 0.5},
		{"repeated hits reuse stash", 0.5, []float32{0.25, 0.75, 1}, 0.5},
		{"partial inner", 1, []float32{0.25}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p pixel
			if tt.outer >= 0 {
				p.update(outer, 0, tt.outer, false)
			}
			for _, c := range tt.hits {
				p.update(inner, outer, c, false)
			}
			if got := Apply(p.clip, inner, 1); got != tt.want {
				t.Errorf("clipped coverage = %v, want %v", got, tt.want)
			}
			if got := Apply(p.clip, outer, 1); got != 0 {
				t.Errorf("outer clip still resident: %v", got)
			}
		})
	}
}

func TestInteriorUpdateSkipsStash(t *testing.T) {
	outer := half.IDToF16(1, 1)
	inner := half.IDToF16(2, 1)
	slot := half.Pack2x16(1, outer)

	r := Update(slot, 0, inner, outer, 1, true)
	if r.Stash {
		t.Error("interior fragments must not stash the outer coverage")
	}
	if c, id := half.Unpack2x16(r.Slot); c != 1 || id != inner {
		t.Errorf("slot = (%v, %v), want (1, %v)", c, id, inner)
	}

	r = Update(slot, 0, inner, outer, 1, false)
	if !r.Stash || r.Outer != 1 {
		t.Errorf("first patch hit = %+v, want stash of 1", r)
	}
}

func TestTopLevelUpdate(t *testing.T) {
	id := half.IDToF16(5, 1)
	stale := half.Pack2x16(1, half.IDToF16(4, 1))
	r := Update(stale, 0, id, 0, 0.75, false)
	if r.Stash {
		t.Error("top-level clips never stash")
	}
	if c, got := half.Unpack2x16(r.Slot); c != 0.75 || got != id {
		t.Errorf("slot = (%v, %v)", c, got)
	}
}

func TestRectDistances(t *testing.T) {
	// Rect [10, 30] x [20, 60]: x' = (x-20)/10, y' = (y-40)/20.
	invM := f32.Vec4{0.1, 0, 0, 0.05}
	invT := f32.Vec2{-2, -2}

	tests := []struct {
		name string
		p    f32.Vec2
		want float32
	}{
		{"center", f32.Vec2{20, 40}, 1},
		{"on left edge", f32.Vec2{10, 40}, 0.5},
		{"half pixel inside", f32.Vec2{10.5, 40}, 1},
		{"outside", f32.Vec2{5, 40}, 0},
		{"on bottom edge", f32.Vec2{20, 60}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := RectDistances(invM, invT, tt.p)
			if got := RectCoverage(d, 1); math32.Abs(got-tt.want) > 1e-5 {
				t.Errorf("coverage = %v, want %v (d=%v)", got, tt.want, d)
			}
		})
	}

	// Coverage never grows past the incoming value.
	d := RectDistances(invM, invT, f32.Vec2{20, 40})
	if got := RectCoverage(d, 0.3); got != 0.3 {
		t.Errorf("RectCoverage = %v, want 0.3", got)
	}
}

func TestRectDistancesSingular(t *testing.T) {
	d := RectDistances(f32.Vec4{}, f32.Vec2{1, 1}, f32.Vec2{123, 456})
	if got := RectCoverage(d, 1); got != 1 {
		t.Errorf("uniform coverage = %v, want 1", got)
	}
	d = RectDistances(f32.Vec4{}, f32.Vec2{-1, -1}, f32.Vec2{1, 1})
	if got := RectCoverage(d, 1); got != 0 {
		t.Errorf("uniform coverage = %v, want 0", got)
	}
}

func TestRectPlaneDistances(t *testing.T) {
	invM := f32.Vec4{0.1, 0, 0, 0.05}
	invT := f32.Vec2{-2, -2}
	if !InsidePlanes(RectPlaneDistances(invM, invT, f32.Vec2{29, 59})) {
		t.Error("point inside the rect was rejected")
	}
	if InsidePlanes(RectPlaneDistances(invM, invT, f32.Vec2{31, 40})) {
		t.Error("point right of the rect was accepted")
	}
	if InsidePlanes(RectPlaneDistances(invM, invT, f32.Vec2{20, 19})) {
		t.Error("point above the rect was accepted")
	}
	if !InsidePlanes(RectPlaneDistances(f32.Vec4{}, f32.Vec2{1, 1}, f32.Vec2{5, 5})) {
		t.Error("uniform inside rect was rejected")
	}
	if InsidePlanes(RectPlaneDistances(f32.Vec4{}, f32.Vec2{-1, -1}, f32.Vec2{5, 5})) {
		t.Error("uniform outside rect was accepted")
	}
}

func TestStack(t *testing.T) {
	s := NewStack(0)
	if s.Current() != 0 || s.Depth() != 0 {
		t.Fatal("new stack must be empty")
	}

	a, outerA, ok := s.Push()
	if !ok || a != 1 || outerA != 0 {
		t.Fatalf("Push() = %d, %d, %v; want 1, 0, true", a, outerA, ok)
	}
	b, outerB, _ := s.Push()
	if b != 2 || outerB != a {
		t.Fatalf("nested Push() = %d, %d; want 2, %d", b, outerB, a)
	}
	if s.Current() != b || s.Depth() != 2 {
		t.Errorf("Current() = %d, Depth() = %d", s.Current(), s.Depth())
	}

	s.Pop()
	if s.Current() != a {
		t.Errorf("after Pop Current() = %d, want %d", s.Current(), a)
	}
	// Ids are never reused within a flush.
	c, outerC, _ := s.Push()
	if c != 3 || outerC != a {
		t.Errorf("Push() after Pop = %d, %d; want 3, %d", c, outerC, a)
	}

	s.Pop()
	s.Pop()
	s.Pop()
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d after popping everything", s.Depth())
	}

	s.Reset()
	if id, _, _ := s.Push(); id != 1 {
		t.Errorf("Push() after Reset = %d, want 1", id)
	}
}

func TestStackExhaustion(t *testing.T) {
	s := NewStack(3)
	for i := 0; i < 2; i++ {
		if _, _, ok := s.Push(); !ok {
			t.Fatalf("push %d failed early", i)
		}
	}
	if _, _, ok := s.Push(); ok {
		t.Error("push beyond maxID must fail")
	}
}
