package encode

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/pls/internal/clip"
	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

// FillRule selects nonzero or even-odd filling.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

// Paint describes how a path is colored. Gradient geometry is given in
// pixel space.
type Paint struct {
	Type  PaintType
	Color color.NRGBA

	Stops      []GradientStop
	Start, End f32.Vec2
	Center     f32.Vec2
	Radius     float32

	Image image.Image
	// ImageTransform places image pixels in the target.
	ImageTransform f32.Aff3
	Opacity        float32

	Blend BlendMode
}

// Solid returns a solid source-over paint.
func Solid(c color.NRGBA) Paint {
	return Paint{Type: PaintTypeSolid, Color: c}
}

// Geometry is a path's outline. Contours are polylines in local
// coordinates; fill contours close implicitly.
type Geometry struct {
	Contours [][]f32.Vec2
	// Interior optionally triangulates the fill interior, three vertices
	// per triangle. Triangles must not overlap. When set, the contour
	// patches only contribute the anti-aliased fringe.
	Interior []f32.Vec2
}

// joinStep is the largest angle between two round-join vertices.
const joinStep = math32.Pi / 8

// Builder encodes draws into a Flush. A builder that returned an error
// must be discarded.
type Builder struct {
	f         *Flush
	span      uint32
	maxID     uint32
	transform f32.Aff3
	clipRect  [2]f32.Vec4
	clips     *clip.Stack
	clipGeoms []clipEntry
	// clipStale is set when a pop left an outer clip whose content was
	// overwritten in the clip plane.
	clipStale bool
	grads     *GradientAllocator
	pending   []pendingGradient
	nextZ     uint32
}

type clipEntry struct {
	g    Geometry
	rule FillRule
}

type pendingGradient struct {
	pathID uint32
	ref    GradientRef
}

// NewBuilder starts a flush for the given uniforms and features.
func NewBuilder(u Uniforms, features Features) *Builder {
	g := u.PathIDGranularity
	maxID := half.MaxID(g)
	f := &Flush{
		Uniforms:       u,
		Features:       features,
		Paints:         make([]PaintData, 1),
		PaintAux:       make([]PaintAux, 1),
		Paths:          make([]PathData, 1),
		Contours:       make([]ContourData, 1),
		StrokeTemplate: NewStrokeTemplate(DefaultPatchSpan),
		FillTemplate:   NewFillTemplate(DefaultPatchSpan),
	}
	return &Builder{
		f:         f,
		span:      DefaultPatchSpan,
		maxID:     maxID,
		transform: Identity,
		clipRect:  NoClipRect,
		clips:     clip.NewStack(maxID),
		grads:     NewGradientAllocator(GradTextureWidth),
		nextZ:     1,
	}
}

// SetTransform sets the local-to-pixel transform of subsequent paths.
func (b *Builder) SetTransform(a f32.Aff3) { b.transform = a }

// SetClipRect clips subsequent draws to a pixel-space rectangle.
func (b *Builder) SetClipRect(x0, y0, x1, y1 float32) {
	m, t := ClipRectTransform(x0, y0, x1, y1)
	b.clipRect = [2]f32.Vec4{m, t}
}

// ClearClipRect removes the clip rectangle.
func (b *Builder) ClearClipRect() { b.clipRect = NoClipRect }

// Fill encodes a filled path and returns its path id.
func (b *Builder) Fill(g Geometry, rule FillRule, p Paint) (uint32, error) {
	if err := b.restoreClip(); err != nil {
		return 0, err
	}
	pd, err := b.paintData(p, rule == EvenOdd)
	if err != nil {
		return 0, err
	}
	return b.addPath(g, pd, p, DrawPath)
}

// Stroke encodes a stroked polyline with round joins and butt caps.
func (b *Builder) Stroke(points []f32.Vec2, closed bool, width float32, p Paint) (uint32, error) {
	if err := b.restoreClip(); err != nil {
		return 0, err
	}
	pd, err := b.paintData(p, false)
	if err != nil {
		return 0, err
	}
	if width <= 0 {
		return 0, fmt.Errorf("%w: stroke width %v", ErrMissingResource, width)
	}
	if err := b.checkContours(1); err != nil {
		return 0, err
	}
	id, err := b.newPath(pd, b.aux(p), width/2)
	if err != nil {
		return 0, err
	}
	if err := b.addGradient(id, p); err != nil {
		return 0, err
	}
	d := Draw{Kind: DrawPath, PathID: id, Template: TemplateStroke, Image: -1}
	first := b.instanceStart()
	b.appendStrokeContour(id, points, closed)
	d.BaseInstance, d.InstanceCount = first, b.instanceStart()-first
	b.attachImage(&d, p)
	b.f.Draws = append(b.f.Draws, d)
	return id, nil
}

// PushClip intersects the active clip with a path. Draws until the
// matching PopClip are clipped to it.
func (b *Builder) PushClip(g Geometry, rule FillRule) error {
	if err := b.restoreClip(); err != nil {
		return err
	}
	if err := b.pushClip(g, rule); err != nil {
		return err
	}
	b.clipGeoms = append(b.clipGeoms, clipEntry{g: g, rule: rule})
	return nil
}

func (b *Builder) pushClip(g Geometry, rule FillRule) error {
	id, outer, ok := b.clips.Push()
	if !ok {
		return fmt.Errorf("%w: clip id space exhausted", ErrInvalidPathID)
	}
	pd := ClipUpdatePaint(id, outer, rule == EvenOdd)
	_, err := b.addPath(g, pd, Paint{}, DrawClipUpdate)
	return err
}

// PopClip restores the enclosing clip.
func (b *Builder) PopClip() {
	if len(b.clipGeoms) == 0 {
		return
	}
	b.clips.Pop()
	b.clipGeoms = b.clipGeoms[:len(b.clipGeoms)-1]
	b.clipStale = len(b.clipGeoms) > 0
}

// restoreClip re-renders the clip stack under fresh ids after a pop. The
// popped clip overwrote its parent's content in the clip plane, and the
// parent's own update needs its outer clip resident, so the whole chain is
// replayed from the bottom.
func (b *Builder) restoreClip() error {
	if !b.clipStale {
		return nil
	}
	b.clipStale = false
	for range b.clipGeoms {
		b.clips.Pop()
	}
	for _, e := range b.clipGeoms {
		if err := b.pushClip(e.g, e.rule); err != nil {
			return err
		}
	}
	return nil
}

// CurrentClip returns the clip id new color draws are clipped against.
func (b *Builder) CurrentClip() uint32 { return b.clips.Current() }

// DrawImageMesh encodes a textured mesh. mesh.Uniforms clip and z fields
// are filled in from the builder state.
func (b *Builder) DrawImageMesh(img image.Image, mesh ImageMesh, opacity float32, mode BlendMode) error {
	if err := b.restoreClip(); err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrMissingResource)
	}
	m, t := MatrixOf(b.transform)
	mesh.Uniforms = ImageDrawUniforms{
		ViewMatrix:               m,
		Translate:                t,
		Opacity:                  opacity,
		ClipRectInverseMatrix:    b.clipRect[0],
		ClipRectInverseTranslate: f32.Vec2{b.clipRect[1][0], b.clipRect[1][1]},
		ClipID:                   b.clips.Current(),
		BlendMode:                mode,
		ZIndex:                   b.z(),
	}
	b.f.Images = append(b.f.Images, img)
	b.f.Draws = append(b.f.Draws, Draw{Kind: DrawImageMesh, Image: len(b.f.Images) - 1, Mesh: &mesh})
	return nil
}

// Finish resolves gradient rows and returns the validated flush.
func (b *Builder) Finish() (*Flush, error) {
	rows := b.grads.Rows()
	for _, pg := range b.pending {
		pd := &b.f.Paints[pg.pathID]
		pd[1] = math.Float32bits(RowCenter(pg.ref.Row, rows))
		aux := &b.f.PaintAux[pg.pathID]
		aux.Translate[2] = pg.ref.RampScale(GradTextureWidth)
		aux.Translate[3] = pg.ref.RampX0(GradTextureWidth)
	}
	b.f.RampSpans = b.grads.Spans()
	b.f.GradRows = rows
	if rows > 0 {
		b.f.Uniforms.GradInverseViewportY = -2 / float32(rows)
	}
	if err := b.f.Validate(); err != nil {
		return nil, err
	}
	return b.f, nil
}

func (b *Builder) z() uint32 {
	z := b.nextZ
	b.nextZ++
	return z
}

func (b *Builder) paintData(p Paint, evenOdd bool) (PaintData, error) {
	clipID := b.clips.Current()
	switch p.Type {
	case PaintTypeSolid:
		return SolidPaint(p.Color, p.Blend, evenOdd, clipID), nil
	case PaintTypeLinearGradient, PaintTypeRadialGradient:
		// The row center is patched in by Finish.
		return GradientPaint(p.Type == PaintTypeRadialGradient, 0, p.Blend, evenOdd, clipID), nil
	case PaintTypeImage:
		if p.Image == nil {
			return PaintData{}, fmt.Errorf("%w: image paint without image", ErrMissingResource)
		}
		return ImagePaint(p.Opacity, p.Blend, evenOdd, clipID), nil
	default:
		return PaintData{}, fmt.Errorf("%w: %v", ErrInvalidPaintType, p.Type)
	}
}

func (b *Builder) aux(p Paint) PaintAux {
	a := PaintAux{
		ClipRectInverseMatrix:    b.clipRect[0],
		ClipRectInverseTranslate: b.clipRect[1],
	}
	var t f32.Vec2
	switch p.Type {
	case PaintTypeLinearGradient:
		a.Matrix, t = LinearGradientTransform(p.Start, p.End)
	case PaintTypeRadialGradient:
		a.Matrix, t = RadialGradientTransform(p.Center, p.Radius)
	case PaintTypeImage:
		xf := p.ImageTransform
		if xf == (f32.Aff3{}) {
			xf = Identity
		}
		bounds := p.Image.Bounds()
		a.Matrix, t, _ = ImageTransform(xf, bounds.Dx(), bounds.Dy())
	}
	a.Translate = f32.Vec4{t[0], t[1], 0, 0}
	return a
}

func (b *Builder) newPath(pd PaintData, aux PaintAux, strokeRadius float32) (uint32, error) {
	id := uint32(len(b.f.Paths))
	if id >= b.maxID {
		return 0, fmt.Errorf("%w: path %d exceeds limit %d", ErrInvalidPathID, id, b.maxID)
	}
	m, t := MatrixOf(b.transform)
	b.f.Paints = append(b.f.Paints, pd)
	b.f.PaintAux = append(b.f.PaintAux, aux)
	b.f.Paths = append(b.f.Paths, PathData{
		Matrix:       m,
		Translate:    t,
		StrokeRadius: strokeRadius,
		ZIndex:       b.z(),
	})
	return id, nil
}

func (b *Builder) addPath(g Geometry, pd PaintData, p Paint, kind DrawKind) (uint32, error) {
	if err := b.checkContours(2 * len(g.Contours)); err != nil {
		return 0, err
	}
	aux := PaintAux{ClipRectInverseMatrix: b.clipRect[0], ClipRectInverseTranslate: b.clipRect[1]}
	if kind == DrawPath {
		aux = b.aux(p)
	}
	id, err := b.newPath(pd, aux, 0)
	if err != nil {
		return 0, err
	}
	if kind == DrawPath {
		if err := b.addGradient(id, p); err != nil {
			return 0, err
		}
	}
	if len(g.Interior)%3 != 0 {
		return 0, fmt.Errorf("%w: %d interior vertices", ErrMissingResource, len(g.Interior))
	}
	retrofitted := len(g.Interior) > 0

	d := Draw{Kind: kind, PathID: id, Template: TemplateFill, Image: -1}
	first := b.instanceStart()
	for _, mirrored := range []bool{false, true} {
		for _, c := range g.Contours {
			b.appendFillContour(id, c, mirrored, retrofitted)
		}
	}
	d.BaseInstance, d.InstanceCount = first, b.instanceStart()-first

	d.FirstInterior = uint32(len(b.f.Interior))
	for i := 0; i+2 < len(g.Interior); i += 3 {
		p0, p1, p2 := g.Interior[i], g.Interior[i+1], g.Interior[i+2]
		area := (p1[0]-p0[0])*(p2[1]-p0[1]) - (p1[1]-p0[1])*(p2[0]-p0[0])
		if area == 0 {
			continue
		}
		w := int16(1)
		if area < 0 {
			w = -1
		}
		b.f.Interior = append(b.f.Interior,
			NewInteriorVertex(p0, id, w), NewInteriorVertex(p1, id, w), NewInteriorVertex(p2, id, w))
	}
	d.InteriorCount = uint32(len(b.f.Interior)) - d.FirstInterior
	if kind == DrawPath {
		b.attachImage(&d, p)
	}
	b.f.Draws = append(b.f.Draws, d)
	return id, nil
}

func (b *Builder) addGradient(pathID uint32, p Paint) error {
	if p.Type != PaintTypeLinearGradient && p.Type != PaintTypeRadialGradient {
		return nil
	}
	ref, err := b.grads.Add(p.Stops)
	if err != nil {
		return err
	}
	b.pending = append(b.pending, pendingGradient{pathID: pathID, ref: ref})
	return nil
}

func (b *Builder) attachImage(d *Draw, p Paint) {
	if p.Type != PaintTypeImage {
		return
	}
	b.f.Images = append(b.f.Images, p.Image)
	d.Image = len(b.f.Images) - 1
}

// checkContours fails when n more contours would overflow the 16-bit
// contour id.
func (b *Builder) checkContours(n int) error {
	if len(b.f.Contours)+n > ContourIDMask+1 {
		return fmt.Errorf("%w: too many contours", ErrMissingResource)
	}
	return nil
}

func (b *Builder) instanceStart() uint32 {
	return uint32(len(b.f.TessVertices)) / b.span
}

// newContour registers a contour whose tessellation starts at the end of
// the vertex buffer.
func (b *Builder) newContour(pathID uint32, midpoint f32.Vec2) uint32 {
	id := uint32(len(b.f.Contours))
	b.f.Contours = append(b.f.Contours, ContourData{
		Midpoint:     midpoint,
		PathID:       pathID,
		VertexIndex0: uint32(len(b.f.TessVertices)),
	})
	return id
}

// padContour repeats the last vertex until the contour fills whole patch
// instances. Repeated vertices form zero-area segments.
func (b *Builder) padContour(start int) {
	n := len(b.f.TessVertices) - start
	if n == 0 {
		return
	}
	last := b.f.TessVertices[len(b.f.TessVertices)-1]
	for (len(b.f.TessVertices)-start)%int(b.span) != 0 {
		b.f.TessVertices = append(b.f.TessVertices, last)
	}
}

func (b *Builder) appendFillContour(pathID uint32, pts []f32.Vec2, mirrored, retrofitted bool) {
	pts = dedupe(pts, true)
	if len(pts) < 3 {
		return
	}
	var mid f32.Vec2
	for _, p := range pts {
		mid[0] += p[0]
		mid[1] += p[1]
	}
	mid[0] /= float32(len(pts))
	mid[1] /= float32(len(pts))

	start := len(b.f.TessVertices)
	id := b.newContour(pathID, mid)
	flags := id
	if mirrored {
		flags |= ContourFlagMirrored
	}
	if retrofitted {
		flags |= ContourFlagRetrofittedTriangle
	}
	n := len(pts)
	for i := 0; i < n; i++ {
		p0, p1 := pts[i], pts[(i+1)%n]
		theta := angle(p0, p1)
		b.f.TessVertices = append(b.f.TessVertices,
			TessVertex{Origin: p0, Theta: theta, Contour: flags},
			TessVertex{Origin: p1, Theta: theta, Contour: flags})
	}
	b.padContour(start)
}

func (b *Builder) appendStrokeContour(pathID uint32, pts []f32.Vec2, closed bool) {
	pts = dedupe(pts, closed)
	if len(pts) < 2 {
		return
	}
	midpoint := f32.Vec2{}
	if closed {
		midpoint = ClosedStrokeMarker
	}
	start := len(b.f.TessVertices)
	id := b.newContour(pathID, midpoint)

	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	emit := func(p f32.Vec2, theta float32, flags uint32) {
		b.f.TessVertices = append(b.f.TessVertices, TessVertex{Origin: p, Theta: theta, Contour: id | flags})
	}
	for i := 0; i < segs; i++ {
		p0, p1 := pts[i], pts[(i+1)%n]
		theta := angle(p0, p1)
		emit(p0, theta, 0)
		emit(p1, theta, 0)
		if i+1 < segs || closed {
			next := angle(p1, pts[(i+2)%n])
			b.appendJoin(p1, theta, next, id)
		}
	}
	b.padContour(start)
}

// appendJoin inserts round-join vertices between two tangent angles,
// turning the short way.
func (b *Builder) appendJoin(p f32.Vec2, from, to float32, id uint32) {
	turn := to - from
	for turn > math32.Pi {
		turn -= 2 * math32.Pi
	}
	for turn < -math32.Pi {
		turn += 2 * math32.Pi
	}
	flag := uint32(ContourFlagRightJoin)
	if turn < 0 {
		flag = ContourFlagLeftJoin
	}
	steps := int(math32.Ceil(math32.Abs(turn) / joinStep))
	for s := 1; s < steps; s++ {
		theta := from + turn*float32(s)/float32(steps)
		b.f.TessVertices = append(b.f.TessVertices, TessVertex{Origin: p, Theta: theta, Contour: id | flag})
	}
}

func angle(p0, p1 f32.Vec2) float32 {
	return math32.Atan2(p1[1]-p0[1], p1[0]-p0[0])
}

// dedupe drops consecutive duplicate points, and a closing point equal
// to the first when closed.
func dedupe(pts []f32.Vec2, closed bool) []f32.Vec2 {
	out := make([]f32.Vec2, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if closed && len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
