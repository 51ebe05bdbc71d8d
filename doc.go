// Package pls renders vector paths the way a single-pass GPU path renderer
// does: every path is a set of tessellated patches and interior triangles,
// and each fragment reads, modifies and writes its pixel's coverage, clip
// and color atomically.
//
// # Quick Start
//
//	r, err := pls.New(256, 256)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	b := r.NewBuilder()
//	_, err = b.Fill(encode.Geometry{Contours: [][]f32.Vec2{square}}, encode.NonZero,
//	    encode.Solid(color.NRGBA{R: 255, A: 255}))
//	if err != nil {
//	    return err
//	}
//	f, err := b.Finish()
//	if err != nil {
//	    return err
//	}
//	img, err := r.Flush(f)
//
// # Modes
//
// ModePLS emulates pixel local storage: a per-pixel coverage slot owned by
// a path id, a clip plane holding nested clip ids, and a color stash for
// re-blending. Edges are anti-aliased analytically.
//
// ModeDepthStencil is the fallback for hosts without pixel local storage:
// stencil-then-cover with the winding in the stencil, the resident clip in
// one stencil bit, and depth ordering by z index. Edges are hard.
//
// The mode is chosen once, in New, from the host's capabilities
// (see SelectMode). When the host passes a GPU device with WithDeviceHandle,
// the depth/stencil pipeline variants for each flush's feature set are
// built on that device.
//
// # Logging
//
// The package is silent by default. SetLogger enables log/slog output for
// the renderer and its internal packages.
package pls
