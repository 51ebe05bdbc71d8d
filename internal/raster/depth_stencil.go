package raster

import (
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/clip"
	"github.com/gogpu/pls/internal/coverage"
	"github.com/gogpu/pls/internal/paint"
	"github.com/gogpu/pls/internal/vertex"
	"golang.org/x/image/math/f32"
)

// Stencil layout: bit 7 is the clip, bits 0-6 count winding modulo 128.
const (
	stencilClipBit  = 0x80
	stencilWindMask = 0x7f
)

// DepthStencil renders without pixel local storage: paths are drawn
// stencil-then-cover with hard edges, and the clip lives in one stencil
// bit for the clip id last resolved into it.
type DepthStencil struct {
	*base
	residentClip uint32
	dstCopy      []uint32
}

// NewDepthStencil returns a depth/stencil backend.
func NewDepthStencil(cfg Config) (*DepthStencil, error) {
	b, err := newBase(cfg, true)
	if err != nil {
		return nil, err
	}
	return &DepthStencil{base: b}, nil
}

// Begin starts a pass with no clip resident.
func (ds *DepthStencil) Begin(load LoadAction) {
	ds.base.Begin(load)
	ds.residentClip = 0
}

// RenderPatches draws a path: a stencil pass accumulating winding, then a
// cover pass shading the pixels whose winding passes the fill rule.
func (ds *DepthStencil) RenderPatches(f *encode.Flush, d *encode.Draw) error {
	if err := ds.check(f, d, encode.DrawPath); err != nil {
		return err
	}
	v := ds.variants.get(f.Features)
	pd := f.Paints[d.PathID]
	clipID := uint32(0)
	if v.clipping {
		clipID = pd.ClipID()
	}
	if clipID != 0 && clipID != ds.residentClip {
		// The clip this path needs has been replaced; nothing is visible.
		return nil
	}
	env := &vertex.Env{Flush: f, DepthStencil: true}
	ds.stencilPass(f, d, env, v, clipID != 0)

	if v.advancedBlend && pd.BlendMode() != encode.BlendSrcOver {
		ds.snapshot()
	}
	s := ds.samplers(f, d)
	tg := ds.target
	cover := func(pr *primitive) {
		fl := &pr.v[0]
		evenOdd := v.evenOdd && coverage.RuleOf(fl.PathID) == coverage.EvenOdd
		n := tg.traverse(pr.t, true, func(i int, b [3]float32) {
			st := tg.stencil[i]
			w := st & stencilWindMask
			if w == 0 {
				return
			}
			tg.stencil[i] = st & stencilClipBit
			if evenOdd && w&1 == 0 {
				return
			}
			z := pr.z(b)
			if z >= tg.depth[i] {
				return
			}
			tg.depth[i] = z
			ds.shade(v, &s, pr, i, b, 1)
		})
		ds.stats.Fragments.Add(int64(n))
		ds.stats.InterlockedFragments.Add(int64(n))
	}
	ds.interiorTriangles(f, d, env, cover)
	ds.patchTriangles(f, d, env, false, cover)
	return nil
}

// stencilPass adds each triangle's winding to the stencil. Patches are
// culled so a fill's forward and mirrored contours count with opposite
// signs; strokes add 1 per covering triangle. With clipped set only
// pixels inside the resident clip are touched.
func (ds *DepthStencil) stencilPass(f *encode.Flush, d *encode.Draw, env *vertex.Env, v *variant, clipped bool) {
	tg := ds.target
	rect := v.clipRect && d.Kind != encode.DrawClipUpdate
	pass := func(pr *primitive, delta int) {
		n := tg.traverse(pr.t, true, func(i int, b [3]float32) {
			if pr.z(b) >= tg.depth[i] {
				return
			}
			if rect && !clip.InsidePlanes(pr.clipRect(b)) {
				return
			}
			st := tg.stencil[i]
			if clipped && st&stencilClipBit == 0 {
				return
			}
			tg.stencil[i] = st&stencilClipBit | uint8((int(st&stencilWindMask)+delta)&stencilWindMask)
		})
		ds.stats.Fragments.Add(int64(n))
		ds.stats.InterlockedFragments.Add(int64(n))
	}
	ds.interiorTriangles(f, d, env, func(pr *primitive) {
		pass(pr, int(pr.v[0].Winding))
	})
	ds.patchTriangles(f, d, env, true, func(pr *primitive) {
		delta := 1
		if e := pr.v[0].Edge; !coverage.IsStroke(e) && e[0] < 0 {
			delta = -1
		}
		pass(pr, delta)
	})
}

// RenderClipUpdate stencils a clip path, then resolves the winding into
// the clip bit over the whole target. A nested update keeps the bit only
// where the outer clip is resident and set.
func (ds *DepthStencil) RenderClipUpdate(f *encode.Flush, d *encode.Draw) error {
	if err := ds.check(f, d, encode.DrawClipUpdate); err != nil {
		return err
	}
	v := ds.variants.get(f.Features)
	if !v.clipping {
		slogger().Debug("raster: clip update skipped, clipping disabled", "path", d.PathID)
		return nil
	}
	pd := f.Paints[d.PathID]
	env := &vertex.Env{Flush: f, DepthStencil: true}
	ds.stencilPass(f, d, env, v, false)

	outer := pd.ClipID()
	nested := v.nestedClipping && outer != 0
	outerResident := ds.residentClip == outer
	evenOdd := v.evenOdd && pd.EvenOdd()
	tg := ds.target

	z := f.Paths[d.PathID].ZIndex
	w, h := float32(tg.width), float32(tg.height)
	corners := [4]f32.Vec4{}
	for k, p := range [4]f32.Vec2{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		corners[k] = vertex.StencilVertex(env, encode.NewStencilVertex(p, z))
	}
	for _, tri := range [2][3]int{{0, 1, 2}, {2, 1, 3}} {
		t, r := setupTriangle([3]f32.Vec4{corners[tri[0]], corners[tri[1]], corners[tri[2]]}, tg.width, tg.height, false)
		if r != setupOK {
			continue
		}
		tg.traverse(&t, true, func(i int, _ [3]float32) {
			st := tg.stencil[i]
			wind := st & stencilWindMask
			inside := wind != 0
			if evenOdd {
				inside = wind&1 != 0
			}
			if nested {
				inside = inside && outerResident && st&stencilClipBit != 0
			}
			if inside {
				tg.stencil[i] = stencilClipBit
			} else {
				tg.stencil[i] = 0
			}
		})
	}
	ds.residentClip = pd.UpdateClipID()
	return nil
}

// RenderImageMesh draws a textured mesh with depth and clip tests.
func (ds *DepthStencil) RenderImageMesh(f *encode.Flush, d *encode.Draw) error {
	if err := ds.check(f, d, encode.DrawImageMesh); err != nil {
		return err
	}
	v := ds.variants.get(f.Features)
	u := &d.Mesh.Uniforms
	clipID := uint32(0)
	if v.clipping {
		clipID = u.ClipID
	}
	if clipID != 0 && clipID != ds.residentClip {
		return nil
	}
	if v.advancedBlend && u.BlendMode != encode.BlendSrcOver {
		ds.snapshot()
	}
	s := ds.samplers(f, d)
	env := &vertex.Env{Flush: f, DepthStencil: true}
	tg := ds.target

	ds.meshTriangles(d, env, func(pr *primitive) {
		n := tg.traverse(pr.t, true, func(i int, b [3]float32) {
			z := pr.z(b)
			if z >= tg.depth[i] {
				return
			}
			if v.clipRect && !clip.InsidePlanes(pr.clipRect(b)) {
				return
			}
			if clipID != 0 && tg.stencil[i]&stencilClipBit == 0 {
				return
			}
			ds.shade(v, &s, pr, i, b, 1)
		})
		ds.stats.Fragments.Add(int64(n))
		ds.stats.InterlockedFragments.Add(int64(n))
	})
	return nil
}

// shade resolves the paint and blends it. Advanced modes read the
// destination from the snapshot taken before the draw.
func (ds *DepthStencil) shade(v *variant, s *paint.Samplers, pr *primitive, i int, b [3]float32, cov float32) {
	fl := &pr.v[0]
	src := paint.Resolve(paint.Decode(pr.paint(b)), *s, pr.d)
	src[3] *= cov
	dst := ds.target.colorAt(i)
	if v.advancedBlend && fl.BlendMode != encode.BlendSrcOver && ds.dstCopy != nil {
		dst = unpackUnorm(ds.dstCopy[i])
	}
	ds.target.color[i] = packUnorm(blendColor(v, fl.BlendMode, src, dst))
}

// snapshot copies the color plane for advanced blends to read.
func (ds *DepthStencil) snapshot() {
	if len(ds.dstCopy) != len(ds.target.color) {
		ds.dstCopy = make([]uint32, len(ds.target.color))
	}
	copy(ds.dstCopy, ds.target.color)
}
