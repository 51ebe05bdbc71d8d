// Package encode defines the host-side buffer layout consumed by the
// rasterizer: per-path paint and transform records, tessellation vertices,
// patch templates, gradient ramp spans and the ordered draw list of one
// flush.
//
// Every record is rebuilt per flush. Path ids are dense, start at 1 and
// index every per-path slice directly; index 0 is reserved and never
// drawn.
package encode

import (
	"errors"
	"strings"
)

// GradTextureWidth is the width of the gradient ramp texture in texels.
const GradTextureWidth = 512

// DefaultPatchSpan is the number of tessellation segments per patch
// instance.
const DefaultPatchSpan = 8

// Sentinel errors returned by Validate and the Builder.
var (
	// ErrInvalidPathID is returned when a draw or contour references a
	// path outside the flush, or beyond what the id granularity encodes.
	ErrInvalidPathID = errors.New("encode: invalid path id")

	// ErrInvalidPaintType is returned for paint records with an unknown
	// type, or a clip-update paint on a color draw and vice versa.
	ErrInvalidPaintType = errors.New("encode: invalid paint type")

	// ErrMissingResource is returned when a draw references an image,
	// template or vertex range that is not present.
	ErrMissingResource = errors.New("encode: missing resource")

	// ErrInvalidGranularity is returned for a zero path id granularity.
	ErrInvalidGranularity = errors.New("encode: invalid path id granularity")

	// ErrInvalidTarget is returned for an empty render target.
	ErrInvalidTarget = errors.New("encode: invalid render target")
)

// Features is the capability bitset a pipeline variant is built for.
// Each bit turns on one optional stage of the fragment programs.
type Features uint32

const (
	// FeatureClipping enables clip application and clip updates.
	FeatureClipping Features = 1 << iota
	// FeatureClipRect enables per-path axis-aligned clip rectangles.
	FeatureClipRect
	// FeatureAdvancedBlend enables the separable advanced blend modes.
	FeatureAdvancedBlend
	// FeatureEvenOdd enables the even-odd fill rule.
	FeatureEvenOdd
	// FeatureNestedClipping enables intersecting clip updates.
	FeatureNestedClipping
	// FeatureHSLBlendModes enables hue, saturation, color and luminosity.
	FeatureHSLBlendModes
)

// AllFeatures has every feature bit set.
const AllFeatures = FeatureClipping | FeatureClipRect | FeatureAdvancedBlend |
	FeatureEvenOdd | FeatureNestedClipping | FeatureHSLBlendModes

var featureNames = []struct {
	f    Features
	name string
}{
	{FeatureClipping, "Clipping"},
	{FeatureClipRect, "ClipRect"},
	{FeatureAdvancedBlend, "AdvancedBlend"},
	{FeatureEvenOdd, "EvenOdd"},
	{FeatureNestedClipping, "NestedClipping"},
	{FeatureHSLBlendModes, "HSLBlendModes"},
}

// Has reports whether every bit of g is set in f.
func (f Features) Has(g Features) bool {
	return f&g == g
}

// String lists the set features joined by '|'.
func (f Features) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	for _, n := range featureNames {
		if f.Has(n.f) {
			parts = append(parts, n.name)
		}
	}
	if rest := f &^ AllFeatures; rest != 0 {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}
