package raster

import (
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// edge is the half-plane a*x + b*y + c >= 0 of one triangle side.
type edge struct {
	a, b, c float32
	// topLeft marks sides that own the pixel centers lying exactly on
	// them.
	topLeft bool
}

func edgeFrom(p, q f32.Vec2) edge {
	dx, dy := q[0]-p[0], q[1]-p[1]
	return edge{a: -dy, b: dx, c: dy*p[0] - dx*p[1]}
}

func (e *edge) eval(x, y float32) float32 { return e.a*x + e.b*y + e.c }

func (e *edge) covers(v float32) bool { return v > 0 || v == 0 && e.topLeft }

// setupResult classifies a triangle after setup.
type setupResult uint8

const (
	setupOK setupResult = iota
	setupDiscarded
	setupCulled
	setupEmpty
)

// triangle is a triangle in pixel space ready for traversal. Side k is
// opposite vertex k, so e[k]/area is vertex k's barycentric weight.
type triangle struct {
	p       [3]f32.Vec2
	z       [3]float32
	e       [3]edge
	invArea float32
	bounds  image.Rectangle
}

// setupTriangle maps clip-space positions to the pixel grid of a w x h
// target. Any non-finite coordinate rejects the triangle. Back faces,
// those with negative area in y-down pixel space, are rejected when
// cullBack is set.
func setupTriangle(pos [3]f32.Vec4, w, h int, cullBack bool) (triangle, setupResult) {
	var t triangle
	for k, v := range pos {
		for _, c := range v {
			if math32.IsNaN(c) || math32.IsInf(c, 0) {
				return t, setupDiscarded
			}
		}
		t.p[k] = f32.Vec2{(v[0] + 1) * float32(w) * 0.5, (1 - v[1]) * float32(h) * 0.5}
		t.z[k] = v[2]
	}
	t.e = [3]edge{edgeFrom(t.p[1], t.p[2]), edgeFrom(t.p[2], t.p[0]), edgeFrom(t.p[0], t.p[1])}
	area := t.e[2].eval(t.p[2][0], t.p[2][1])
	switch {
	case area == 0:
		return t, setupEmpty
	case area < 0:
		if cullBack {
			return t, setupCulled
		}
		area = -area
		for k := range t.e {
			t.e[k].a, t.e[k].b, t.e[k].c = -t.e[k].a, -t.e[k].b, -t.e[k].c
		}
	}
	for k := range t.e {
		e := &t.e[k]
		e.topLeft = e.a > 0 || e.a == 0 && e.b > 0
	}
	t.invArea = 1 / area

	lo := f32.Vec2{math32.Min(t.p[0][0], math32.Min(t.p[1][0], t.p[2][0])), math32.Min(t.p[0][1], math32.Min(t.p[1][1], t.p[2][1]))}
	hi := f32.Vec2{math32.Max(t.p[0][0], math32.Max(t.p[1][0], t.p[2][0])), math32.Max(t.p[0][1], math32.Max(t.p[1][1], t.p[2][1]))}
	clampX := func(v float32) int { return int(math32.Max(-1, math32.Min(v, float32(w+1)))) }
	clampY := func(v float32) int { return int(math32.Max(-1, math32.Min(v, float32(h+1)))) }
	t.bounds = image.Rect(
		clampX(math32.Floor(lo[0])), clampY(math32.Floor(lo[1])),
		clampX(math32.Ceil(hi[0])), clampY(math32.Ceil(hi[1])),
	).Intersect(image.Rect(0, 0, w, h))
	if t.bounds.Empty() {
		return t, setupEmpty
	}
	return t, setupOK
}

// weights returns the barycentric weights at a pixel center, and whether
// the center is covered.
func (t *triangle) weights(x, y int) ([3]float32, bool) {
	cx, cy := float32(x)+0.5, float32(y)+0.5
	var b [3]float32
	for k := range t.e {
		v := t.e[k].eval(cx, cy)
		if !t.e[k].covers(v) {
			return b, false
		}
		b[k] = v * t.invArea
	}
	return b, true
}

// gradient returns the screen-space derivatives of a varying.
func (t *triangle) gradient(v [3]f32.Vec2) (dx, dy f32.Vec2) {
	for k := range t.e {
		ga, gb := t.e[k].a*t.invArea, t.e[k].b*t.invArea
		dx[0] += v[k][0] * ga
		dx[1] += v[k][1] * ga
		dy[0] += v[k][0] * gb
		dy[1] += v[k][1] * gb
	}
	return dx, dy
}

func lerp(b [3]float32, v0, v1, v2 float32) float32 {
	return b[0]*v0 + b[1]*v1 + b[2]*v2
}

func lerp2(b [3]float32, v0, v1, v2 f32.Vec2) f32.Vec2 {
	return f32.Vec2{lerp(b, v0[0], v1[0], v2[0]), lerp(b, v0[1], v1[1], v2[1])}
}

func lerp4(b [3]float32, v0, v1, v2 f32.Vec4) f32.Vec4 {
	return f32.Vec4{
		lerp(b, v0[0], v1[0], v2[0]),
		lerp(b, v0[1], v1[1], v2[1]),
		lerp(b, v0[2], v1[2], v2[2]),
		lerp(b, v0[3], v1[3], v2[3]),
	}
}

// traverse calls frag for every covered pixel of t, grouped by tile.
// With locked set each tile's fragments run inside that tile's
// interlock. It returns the number of fragments.
func (tg *Target) traverse(t *triangle, locked bool, frag func(i int, b [3]float32)) int {
	n := 0
	tg.lock.Grid().Overlapping(t.bounds, func(tile int, part image.Rectangle) {
		run := func() {
			for y := part.Min.Y; y < part.Max.Y; y++ {
				row := y * tg.width
				for x := part.Min.X; x < part.Max.X; x++ {
					if b, ok := t.weights(x, y); ok {
						frag(row+x, b)
						n++
					}
				}
			}
		}
		if locked {
			tg.lock.Do(tile, run)
		} else {
			run()
		}
	})
	return n
}
