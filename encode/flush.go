package encode

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/pls/internal/half"
	"golang.org/x/image/math/f32"
)

// Uniforms are the per-flush constants.
type Uniforms struct {
	Width, Height int
	// PathIDGranularity spaces encoded ids apart in half-precision ulps.
	PathIDGranularity uint32
	// GradInverseViewportY is -2/rows for a top-down ramp texture; a
	// positive value flips ramp rows.
	GradInverseViewportY float32
	// VertexDiscardValue is written to every position component of a
	// discarded vertex. Any non-finite value discards.
	VertexDiscardValue float32
	// FragCoordBottomUp flips y before paint matrices are applied.
	FragCoordBottomUp bool
}

// DefaultUniforms returns uniforms for a width x height target.
func DefaultUniforms(width, height int) Uniforms {
	return Uniforms{
		Width:              width,
		Height:             height,
		PathIDGranularity:  1,
		VertexDiscardValue: float32(math.NaN()),
	}
}

// ImageDrawUniforms configure one image mesh draw.
type ImageDrawUniforms struct {
	// ViewMatrix maps mesh positions to pixels, column-major 2x2.
	ViewMatrix               f32.Vec4
	Translate                f32.Vec2
	Opacity                  float32
	ClipRectInverseMatrix    f32.Vec4
	ClipRectInverseTranslate f32.Vec2
	ClipID                   uint32
	BlendMode                BlendMode
	ZIndex                   uint32
}

// ImageMesh is an indexed textured triangle mesh.
type ImageMesh struct {
	Positions []f32.Vec2
	UVs       []f32.Vec2
	Indices   []uint16
	Uniforms  ImageDrawUniforms
}

// DrawKind classifies a draw.
type DrawKind uint8

const (
	// DrawPath renders one path's patches and interior triangles.
	DrawPath DrawKind = iota
	// DrawClipUpdate renders a clip path into the clip plane.
	DrawClipUpdate
	// DrawImageMesh renders a textured mesh.
	DrawImageMesh
)

// String returns the draw kind name.
func (k DrawKind) String() string {
	switch k {
	case DrawPath:
		return "Path"
	case DrawClipUpdate:
		return "ClipUpdate"
	case DrawImageMesh:
		return "ImageMesh"
	default:
		return "Unknown"
	}
}

// Draw is one entry of the ordered draw list.
type Draw struct {
	Kind   DrawKind
	PathID uint32
	// Template selects the patch template of the instance range.
	Template TemplateKind
	// BaseInstance and InstanceCount select patch instances; instance i
	// covers tessellation vertices [i*span, (i+1)*span].
	BaseInstance  uint32
	InstanceCount uint32
	// FirstInterior and InteriorCount select vertices of Flush.Interior,
	// three per triangle.
	FirstInterior uint32
	InteriorCount uint32
	// Image indexes Flush.Images, or -1.
	Image int
	// Mesh is set for image mesh draws.
	Mesh *ImageMesh
}

// Flush is everything one render pass consumes.
type Flush struct {
	Uniforms Uniforms
	Features Features

	// Per-path records, indexed by path id. Index 0 is unused.
	Paints   []PaintData
	PaintAux []PaintAux
	Paths    []PathData

	// Contours are indexed by contour id. Index 0 is unused.
	Contours     []ContourData
	TessVertices []TessVertex
	Interior     []InteriorVertex

	StrokeTemplate *PatchTemplate
	FillTemplate   *PatchTemplate

	RampSpans []ColorRampSpan
	GradRows  uint32
	Images    []image.Image

	Draws []Draw
}

// Validate checks the flush against the guarantees the rasterizer relies
// on: dense path ids that the granularity can encode, known paint types
// and resources that exist.
func (f *Flush) Validate() error {
	u := f.Uniforms
	if u.Width <= 0 || u.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTarget, u.Width, u.Height)
	}
	if u.PathIDGranularity == 0 {
		return ErrInvalidGranularity
	}
	if len(f.PaintAux) != len(f.Paints) || len(f.Paths) != len(f.Paints) {
		return fmt.Errorf("%w: %d paints, %d aux, %d paths", ErrMissingResource,
			len(f.Paints), len(f.PaintAux), len(f.Paths))
	}
	maxID := half.MaxID(u.PathIDGranularity)
	if n := uint32(len(f.Paths)); n > maxID {
		return fmt.Errorf("%w: %d paths exceed granularity %d limit %d",
			ErrInvalidPathID, n-1, u.PathIDGranularity, maxID)
	}
	for i, p := range f.Paints {
		if !p.Type().Valid() {
			return fmt.Errorf("%w: path %d type %d", ErrInvalidPaintType, i, p.Type())
		}
		if p.ClipID() >= maxID || (p.Type() == PaintTypeClipUpdate && p.UpdateClipID() >= maxID) {
			return fmt.Errorf("%w: path %d clip id out of range", ErrInvalidPathID, i)
		}
	}
	for i, img := range f.Images {
		if img == nil {
			return fmt.Errorf("%w: image %d is nil", ErrMissingResource, i)
		}
	}
	for i, c := range f.Contours {
		if i == 0 {
			continue
		}
		if c.PathID == 0 || int(c.PathID) >= len(f.Paths) {
			return fmt.Errorf("%w: contour %d references path %d", ErrInvalidPathID, i, c.PathID)
		}
	}
	for i := range f.Draws {
		if err := f.validateDraw(&f.Draws[i]); err != nil {
			return fmt.Errorf("draw %d: %w", i, err)
		}
	}
	return nil
}

func (f *Flush) validateDraw(d *Draw) error {
	if d.Kind == DrawImageMesh {
		if d.Mesh == nil {
			return fmt.Errorf("%w: image mesh", ErrMissingResource)
		}
		if d.Image < 0 || d.Image >= len(f.Images) {
			return fmt.Errorf("%w: image %d", ErrMissingResource, d.Image)
		}
		if len(d.Mesh.UVs) != len(d.Mesh.Positions) {
			return fmt.Errorf("%w: %d uvs for %d positions", ErrMissingResource,
				len(d.Mesh.UVs), len(d.Mesh.Positions))
		}
		for _, idx := range d.Mesh.Indices {
			if int(idx) >= len(d.Mesh.Positions) {
				return fmt.Errorf("%w: mesh index %d", ErrMissingResource, idx)
			}
		}
		return nil
	}

	if d.PathID == 0 || int(d.PathID) >= len(f.Paths) {
		return fmt.Errorf("%w: %d", ErrInvalidPathID, d.PathID)
	}
	t := f.Paints[d.PathID].Type()
	if (d.Kind == DrawClipUpdate) != (t == PaintTypeClipUpdate) {
		return fmt.Errorf("%w: %v draw with %v paint", ErrInvalidPaintType, d.Kind, t)
	}
	if d.InstanceCount > 0 {
		tpl := f.Template(d.Template)
		if tpl == nil {
			return fmt.Errorf("%w: %v template", ErrMissingResource, d.Template)
		}
		end := uint64(d.BaseInstance+d.InstanceCount) * uint64(tpl.Span)
		if end > uint64(len(f.TessVertices)) {
			return fmt.Errorf("%w: instances end at vertex %d of %d", ErrMissingResource,
				end, len(f.TessVertices))
		}
	}
	if d.InteriorCount%3 != 0 || uint64(d.FirstInterior)+uint64(d.InteriorCount) > uint64(len(f.Interior)) {
		return fmt.Errorf("%w: interior vertices [%d, +%d)", ErrMissingResource,
			d.FirstInterior, d.InteriorCount)
	}
	if t == PaintTypeImage && (d.Image < 0 || d.Image >= len(f.Images)) {
		return fmt.Errorf("%w: image %d", ErrMissingResource, d.Image)
	}
	return nil
}
