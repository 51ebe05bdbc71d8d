package encode

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func TestPaintDataPacking(t *testing.T) {
	red := color.NRGBA{R: 255, G: 16, B: 32, A: 200}
	p := SolidPaint(red, BlendMultiply, true, 7)
	if p.Type() != PaintTypeSolid {
		t.Errorf("Type = %v", p.Type())
	}
	if p.BlendMode() != BlendMultiply {
		t.Errorf("BlendMode = %v", p.BlendMode())
	}
	if !p.EvenOdd() {
		t.Error("EvenOdd flag lost")
	}
	if p.ClipID() != 7 {
		t.Errorf("ClipID = %d", p.ClipID())
	}
	if p.Color() != red {
		t.Errorf("Color = %v, want %v", p.Color(), red)
	}

	c := ClipUpdatePaint(9, 4, false)
	if c.Type() != PaintTypeClipUpdate || c.ClipID() != 4 || c.UpdateClipID() != 9 {
		t.Errorf("clip update = %v %d %d", c.Type(), c.ClipID(), c.UpdateClipID())
	}

	g := GradientPaint(true, 0.75, BlendSrcOver, false, 0)
	if g.Type() != PaintTypeRadialGradient || g.Float() != 0.75 {
		t.Errorf("gradient = %v %v", g.Type(), g.Float())
	}
	if im := ImagePaint(0.5, BlendScreen, false, 0); im.Float() != 0.5 || im.BlendMode() != BlendScreen {
		t.Errorf("image = %v %v", im.Float(), im.BlendMode())
	}
}

func TestFeaturesString(t *testing.T) {
	tests := []struct {
		f    Features
		want string
	}{
		{0, "None"},
		{FeatureClipping, "Clipping"},
		{FeatureClipping | FeatureEvenOdd, "Clipping|EvenOdd"},
		{AllFeatures, "Clipping|ClipRect|AdvancedBlend|EvenOdd|NestedClipping|HSLBlendModes"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Features(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
	if !AllFeatures.Has(FeatureClipRect | FeatureEvenOdd) {
		t.Error("AllFeatures must contain every feature")
	}
}

func TestPatchVertexParams(t *testing.T) {
	v := NewPatchVertex(3, -1, 0.5, 8, VertexTypeFanMidpoint)
	span, typ := UnpackPatchParams(v[3])
	if span != 8 || typ != VertexTypeFanMidpoint || v[0] != 3 {
		t.Errorf("unpacked span=%d type=%d local=%v", span, typ, v[0])
	}
}

// signedArea is positive for triangles that are front facing in a
// y-down pixel space.
func signedArea(a, b, c f32.Vec2) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func TestTemplates(t *testing.T) {
	const span = 4
	tests := []struct {
		name      string
		tpl       *PatchTemplate
		triangles int
	}{
		{"stroke", NewStrokeTemplate(span), 2 * span},
		{"fill", NewFillTemplate(span), 5 * span},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.tpl.Forward); got != 3*tt.triangles {
				t.Errorf("forward vertices = %d, want %d", got, 3*tt.triangles)
			}
			if len(tt.tpl.Mirrored) != len(tt.tpl.Forward) {
				t.Fatal("mirrored stream length differs")
			}
			for i := 0; i < len(tt.tpl.Forward); i += 3 {
				f, m := tt.tpl.Forward[i:i+3], tt.tpl.Mirrored[i:i+3]
				_, typ := UnpackPatchParams(f[0][3])
				fan := typ == VertexTypeFanMidpoint
				reversed := f[0] == m[0] && f[1] == m[2] && f[2] == m[1]
				same := f[0] == m[0] && f[1] == m[1] && f[2] == m[2]
				if fan && !reversed {
					t.Fatalf("fan triangle %d is not reversed in the mirrored stream", i/3)
				}
				if !fan && !same {
					t.Fatalf("fringe triangle %d changed in the mirrored stream", i/3)
				}
				for _, v := range f {
					if v[0] > span {
						t.Fatalf("local vertex %v beyond span", v[0])
					}
				}
			}
		})
	}

	// A horizontal edge walking +x with unit outsets: norm is -y.
	stroke := NewStrokeTemplate(1)
	pos := func(v PatchVertex) f32.Vec2 { return f32.Vec2{v[0], -v[1]} }
	for i := 0; i < len(stroke.Forward); i += 3 {
		a, b, c := pos(stroke.Forward[i]), pos(stroke.Forward[i+1]), pos(stroke.Forward[i+2])
		if signedArea(a, b, c) <= 0 {
			t.Errorf("stroke triangle %d is back facing", i/3)
		}
	}
}

func TestGradientAllocator(t *testing.T) {
	a := NewGradientAllocator(GradTextureWidth)
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}

	r0, err := a.Add([]GradientStop{{0, red}, {1, blue}})
	if err != nil {
		t.Fatal(err)
	}
	r1, _ := a.Add([]GradientStop{{0, blue}, {1, red}})
	if !r0.Simple || !r1.Simple || r0.Row != r1.Row || r1.X0 != 2 {
		t.Errorf("simple ramps = %+v %+v, want shared row", r0, r1)
	}
	if got := r1.RampX0(GradTextureWidth); got != 2.5/GradTextureWidth {
		t.Errorf("RampX0 = %v", got)
	}

	r2, err := a.Add([]GradientStop{{0, red}, {0.5, blue}, {1, red}})
	if err != nil {
		t.Fatal(err)
	}
	if r2.Simple || r2.Row != 1 || a.Rows() != 2 {
		t.Errorf("complex ramp = %+v, rows = %d", r2, a.Rows())
	}
	if r2.RampScale(GradTextureWidth) != 1 {
		t.Error("complex ramps span the full row")
	}
	// Two simple spans each plus lead-in, two stop spans and lead-out.
	if got := len(a.Spans()); got != 4+4 {
		t.Errorf("spans = %d, want 8", got)
	}

	if _, err := a.Add(nil); !errors.Is(err, ErrMissingResource) {
		t.Errorf("empty stops err = %v", err)
	}
	if _, err := a.Add([]GradientStop{{0.8, red}, {0.2, blue}, {1, red}}); err == nil {
		t.Error("unsorted stops must fail")
	}
}

func TestRampSpanUnits(t *testing.T) {
	s := newSpan(10, 11, GradTextureWidth, 3, color.NRGBA{A: 255}, color.NRGBA{R: 255, A: 255})
	if x0, x1 := s.X&0xffff, s.X>>16; x0 != 10*128 || x1 != 11*128 {
		t.Errorf("span units = %d, %d", x0, x1)
	}
	if s.Color0 != 0xff000000 || s.Color1 != 0xffff0000 {
		t.Errorf("colors = %#x %#x", s.Color0, s.Color1)
	}
	full := newSpan(500, GradTextureWidth, GradTextureWidth, 0, color.NRGBA{}, color.NRGBA{})
	if full.X>>16 != 65535 {
		t.Errorf("right edge clamps to 65535, got %d", full.X>>16)
	}
}

func square(x0, y0, x1, y1 float32) []f32.Vec2 {
	return []f32.Vec2{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestBuilderFill(t *testing.T) {
	b := NewBuilder(DefaultUniforms(64, 64), AllFeatures)
	id, err := b.Fill(Geometry{Contours: [][]f32.Vec2{square(8, 8, 40, 40)}}, NonZero,
		Solid(color.NRGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	f, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 || len(f.Paths) != 2 {
		t.Fatalf("id = %d, paths = %d", id, len(f.Paths))
	}
	// Forward and mirrored runs of 8 vertices each, one instance per run.
	if len(f.TessVertices) != 16 || len(f.Contours) != 3 {
		t.Errorf("tess = %d, contours = %d", len(f.TessVertices), len(f.Contours))
	}
	if f.TessVertices[8].Contour&ContourFlagMirrored == 0 {
		t.Error("second run must be mirrored")
	}
	if f.Contours[2].VertexIndex0 != 8 {
		t.Errorf("mirrored contour starts at %d", f.Contours[2].VertexIndex0)
	}
	if mid := f.Contours[1].Midpoint; mid != (f32.Vec2{24, 24}) {
		t.Errorf("midpoint = %v", mid)
	}
	d := f.Draws[0]
	if d.Kind != DrawPath || d.InstanceCount != 2 || d.BaseInstance != 0 || d.Template != TemplateFill {
		t.Errorf("draw = %+v", d)
	}
	if f.Paths[1].ZIndex != 1 {
		t.Errorf("z = %d", f.Paths[1].ZIndex)
	}
}

func TestBuilderStrokeAndGradient(t *testing.T) {
	b := NewBuilder(DefaultUniforms(64, 64), AllFeatures)
	p := Paint{
		Type:  PaintTypeLinearGradient,
		Stops: []GradientStop{{0, color.NRGBA{A: 255}}, {1, color.NRGBA{R: 255, A: 255}}},
		Start: f32.Vec2{0, 0},
		End:   f32.Vec2{64, 0},
	}
	id, err := b.Stroke([]f32.Vec2{{8, 8}, {56, 8}, {56, 56}}, false, 4, p)
	if err != nil {
		t.Fatal(err)
	}
	f, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if f.Paths[id].StrokeRadius != 2 {
		t.Errorf("radius = %v", f.Paths[id].StrokeRadius)
	}
	if f.GradRows != 1 || f.Uniforms.GradInverseViewportY != -2 {
		t.Errorf("rows = %d, inv = %v", f.GradRows, f.Uniforms.GradInverseViewportY)
	}
	if got := f.Paints[id].Float(); got != 0.5 {
		t.Errorf("row center = %v, want 0.5", got)
	}
	if got := f.PaintAux[id].Translate[3]; got != 0.5/GradTextureWidth {
		t.Errorf("rampX0 = %v", got)
	}
	// A right turn inserts join vertices flagged on the outer side.
	joins := 0
	for _, v := range f.TessVertices {
		if v.Contour&ContourFlagRightJoin != 0 {
			joins++
		}
	}
	if joins == 0 {
		t.Error("expected round join vertices")
	}
	if f.Contours[1].Closed() {
		t.Error("open stroke reported closed")
	}
	if len(f.TessVertices)%DefaultPatchSpan != 0 {
		t.Error("contour run not padded to whole instances")
	}
}

func TestBuilderNestedClip(t *testing.T) {
	b := NewBuilder(DefaultUniforms(32, 32), AllFeatures)
	outer := Geometry{Contours: [][]f32.Vec2{square(0, 0, 32, 32)}}
	inner := Geometry{Contours: [][]f32.Vec2{square(8, 8, 24, 24)}}
	if err := b.PushClip(outer, NonZero); err != nil {
		t.Fatal(err)
	}
	if err := b.PushClip(inner, NonZero); err != nil {
		t.Fatal(err)
	}
	id, _ := b.Fill(inner, NonZero, Solid(color.NRGBA{A: 255}))
	b.PopClip()
	id2, _ := b.Fill(outer, NonZero, Solid(color.NRGBA{A: 255}))
	f, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}

	if got := f.Paints[1].UpdateClipID(); got != 1 || f.Paints[1].ClipID() != 0 {
		t.Errorf("outer clip = %d nested in %d", got, f.Paints[1].ClipID())
	}
	if got := f.Paints[2].UpdateClipID(); got != 2 || f.Paints[2].ClipID() != 1 {
		t.Errorf("inner clip = %d nested in %d", got, f.Paints[2].ClipID())
	}
	if f.Paints[id].ClipID() != 2 {
		t.Errorf("color draw clipped to %d", f.Paints[id].ClipID())
	}
	// After the pop the outer clip is replayed under a fresh id.
	kinds := []DrawKind{DrawClipUpdate, DrawClipUpdate, DrawPath, DrawClipUpdate, DrawPath}
	if len(f.Draws) != len(kinds) {
		t.Fatalf("draws = %d, want %d", len(f.Draws), len(kinds))
	}
	for i, k := range kinds {
		if f.Draws[i].Kind != k {
			t.Errorf("draw %d kind = %v, want %v", i, f.Draws[i].Kind, k)
		}
	}
	replay := f.Paints[f.Draws[3].PathID]
	if replay.UpdateClipID() != 3 || replay.ClipID() != 0 {
		t.Errorf("replayed clip = %d nested in %d", replay.UpdateClipID(), replay.ClipID())
	}
	if f.Paints[id2].ClipID() != 3 {
		t.Errorf("draw after pop clipped to %d, want 3", f.Paints[id2].ClipID())
	}
}

func TestBuilderInterior(t *testing.T) {
	b := NewBuilder(DefaultUniforms(32, 32), 0)
	g := Geometry{
		Contours: [][]f32.Vec2{square(4, 4, 28, 28)},
		Interior: []f32.Vec2{{4, 4}, {28, 4}, {28, 28}, {4, 4}, {4, 28}, {28, 28}},
	}
	id, err := b.Fill(g, NonZero, Solid(color.NRGBA{A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	f, _ := b.Finish()
	d := f.Draws[0]
	if d.InteriorCount != 6 {
		t.Fatalf("interior vertices = %d", d.InteriorCount)
	}
	_, pid, w0 := f.Interior[0].Unpack()
	_, _, w1 := f.Interior[3].Unpack()
	if pid != id || w0 != 1 || w1 != -1 {
		t.Errorf("interior = id %d windings %d %d", pid, w0, w1)
	}
	if f.TessVertices[0].Contour&ContourFlagRetrofittedTriangle == 0 {
		t.Error("contours of triangulated paths only carry the fringe")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Flush {
		b := NewBuilder(DefaultUniforms(16, 16), 0)
		if _, err := b.Fill(Geometry{Contours: [][]f32.Vec2{square(0, 0, 8, 8)}}, NonZero,
			Solid(color.NRGBA{A: 255})); err != nil {
			t.Fatal(err)
		}
		f, err := b.Finish()
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	tests := []struct {
		name   string
		mutate func(f *Flush)
		want   error
	}{
		{"valid", func(*Flush) {}, nil},
		{"empty target", func(f *Flush) { f.Uniforms.Width = 0 }, ErrInvalidTarget},
		{"zero granularity", func(f *Flush) { f.Uniforms.PathIDGranularity = 0 }, ErrInvalidGranularity},
		{"granularity too coarse", func(f *Flush) { f.Uniforms.PathIDGranularity = 64 }, ErrInvalidPathID},
		{"draw path out of range", func(f *Flush) { f.Draws[0].PathID = 5 }, ErrInvalidPathID},
		{"unknown paint", func(f *Flush) { f.Paints[1][0] |= 0xf }, ErrInvalidPaintType},
		{"clip paint on color draw", func(f *Flush) { f.Paints[1] = ClipUpdatePaint(1, 0, false) }, ErrInvalidPaintType},
		{"missing template", func(f *Flush) { f.FillTemplate = nil }, ErrMissingResource},
		{"instances past buffer", func(f *Flush) { f.Draws[0].InstanceCount = 9 }, ErrMissingResource},
		{"nil image", func(f *Flush) { f.Images = append(f.Images, nil) }, ErrMissingResource},
		{"image mesh without image", func(f *Flush) {
			f.Draws = append(f.Draws, Draw{Kind: DrawImageMesh, Image: 0, Mesh: &ImageMesh{}})
		}, ErrMissingResource},
		{"contour orphan", func(f *Flush) { f.Contours[1].PathID = 0 }, ErrInvalidPathID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			err := f.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransforms(t *testing.T) {
	m, tr := LinearGradientTransform(f32.Vec2{10, 0}, f32.Vec2{30, 0})
	x := m[0]*20 + m[2]*5 + tr[0]
	if x != 0.5 {
		t.Errorf("linear t at midpoint = %v", x)
	}

	m, tr, ok := ImageTransform(f32.Aff3{2, 0, 10, 0, 2, 20}, 4, 8)
	if !ok {
		t.Fatal("ImageTransform failed")
	}
	u := m[0]*14 + m[2]*24 + tr[0]
	v := m[1]*14 + m[3]*24 + tr[1]
	if u != 0.5 || v != 0.25 {
		t.Errorf("uv = %v, %v; want 0.5, 0.25", u, v)
	}
	if _, _, ok := ImageTransform(f32.Aff3{}, 4, 4); ok {
		t.Error("singular transform must fail")
	}

	cm, ct := ClipRectTransform(10, 20, 30, 60)
	if got := cm[0]*10 + ct[0]; got != -1 {
		t.Errorf("left edge maps to %v", got)
	}
	if got := cm[3]*60 + ct[1]; got != 1 {
		t.Errorf("bottom edge maps to %v", got)
	}
}

func TestZIndexAndInterior(t *testing.T) {
	if NormalizeZIndex(0) != 1 || NormalizeZIndex(1) >= 1 || NormalizeZIndex(2) >= NormalizeZIndex(1) {
		t.Error("later z must map to smaller depth")
	}
	v := NewInteriorVertex(f32.Vec2{1, 2}, 77, -3)
	p, id, w := v.Unpack()
	if p != (f32.Vec2{1, 2}) || id != 77 || w != -3 {
		t.Errorf("Unpack = %v %d %d", p, id, w)
	}
	s := NewStencilVertex(f32.Vec2{3, 4}, 12)
	if math.Float32bits(s[2]) != 12 {
		t.Errorf("stencil z = %d", math.Float32bits(s[2]))
	}
}
