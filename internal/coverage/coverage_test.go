package coverage

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

func TestLoadOwnership(t *testing.T) {
	const g = 1
	a := half.IDToF16(3, g)
	b := half.IDToF16(4, g)

	slot := Store(0.75, a)
	if c, owned := Load(slot, a); !owned || c != 0.75 {
		t.Errorf("Load(own) = %v, %v; want 0.75, true", c, owned)
	}
	if c, owned := Load(slot, b); owned || c != 0 {
		t.Errorf("Load(other) = %v, %v; want 0, false", c, owned)
	}
	// The even-odd variant of the same id is a different owner.
	if _, owned := Load(slot, -a); owned {
		t.Error("negated id must not own the slot")
	}
	// A cleared slot is owned by nobody.
	if c, owned := Load(0, b); owned || c != 0 {
		t.Errorf("Load(cleared) = %v, %v", c, owned)
	}
}

func TestMismatchNeverBleeds(t *testing.T) {
	const g = 2
	for id := uint32(1); id < 200; id++ {
		prev := half.IDToF16(id, g)
		next := half.IDToF16(id+1, g)
		for _, stored := range []float32{-3, -1, 0.5, 1, 7} {
			if c, _ := Load(Store(stored, prev), next); c != 0 {
				t.Fatalf("id %d: leaked count %v into next path", id, c)
			}
		}
	}
}

func TestEvenOddPeriod(t *testing.T) {
	for n := 0; n < 16; n++ {
		want := float32(n % 2)
		if got := EvenOddFold(float32(n)); got != want {
			t.Errorf("EvenOddFold(%d) = %v, want %v", n, got, want)
		}
		if got := EvenOddFold(float32(-n)); got != want {
			t.Errorf("EvenOddFold(%d) = %v, want %v", -n, got, want)
		}
	}
	for _, c := range []float32{0.25, 0.5, 1.25, 1.5, 3.75} {
		if a, b := EvenOddFold(c), EvenOddFold(c+2); math32.Abs(a-b) > 1e-6 {
			t.Errorf("EvenOddFold(%v) = %v but EvenOddFold(%v) = %v", c, a, c+2, b)
		}
	}
	tests := []struct {
		c, want float32
	}{
		{0.25, 0.25},
		{0.5, 0.5},
		{1.5, 0.5},
		{1.75, 0.25},
	}
	for _, tt := range tests {
		if got := EvenOddFold(tt.c); math32.Abs(got-tt.want) > 1e-6 {
			t.Errorf("EvenOddFold(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestStrokeClamp(t *testing.T) {
	// Overlapping stroke fragments may each report more than full coverage.
	count := float32(0)
	for _, e := range []f32.Vec2{{1.8, 2.4}, {3, 1.6}, {0.4, 0.9}} {
		count = AccumulateEdge(count, e)
	}
	if count != 1.8 {
		t.Fatalf("stroke count = %v, want 1.8 (max of mins)", count)
	}
	if got := Resolve(count, NonZero, true); got != 1 {
		t.Errorf("Resolve = %v, want 1", got)
	}
	// Repeated stroke hits never accumulate.
	c := AccumulateEdge(AccumulateEdge(0, f32.Vec2{0.3, 0.5}), f32.Vec2{0.3, 0.5})
	if c != 0.3 {
		t.Errorf("repeated stroke = %v, want 0.3", c)
	}
}

func TestFillAccumulation(t *testing.T) {
	fill := f32.Vec2{0.5, -1}
	c := AccumulateEdge(0, fill)
	c = AccumulateEdge(c, fill)
	if c != 1 {
		t.Errorf("fill count = %v, want 1", c)
	}
	c = AccumulateWinding(c, -2)
	if got := Resolve(c, NonZero, false); got != 1 {
		t.Errorf("Resolve(%v) = %v, want 1", c, got)
	}
	if got := Resolve(2, EvenOdd, true); got != 0 {
		t.Errorf("even-odd winding 2 = %v, want 0", got)
	}
	// Variants without even-odd support treat every path as nonzero.
	if got := Resolve(2, EvenOdd, false); got != 1 {
		t.Errorf("even-odd disabled = %v, want 1", got)
	}
}

func TestRuleOf(t *testing.T) {
	id := half.IDToF16(9, 1)
	if RuleOf(id) != NonZero || RuleOf(-id) != EvenOdd {
		t.Error("fill rule must follow the id sign")
	}
	if NonZero.String() != "NonZero" || EvenOdd.String() != "EvenOdd" {
		t.Error("unexpected fill rule names")
	}
}
