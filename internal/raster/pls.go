package raster

import (
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/clip"
	"github.com/gogpu/pls/internal/coverage"
	"github.com/gogpu/pls/internal/half"
	"github.com/gogpu/pls/internal/paint"
	"github.com/gogpu/pls/internal/vertex"
)

// PLS renders with emulated pixel local storage: every fragment
// accumulates its path's coverage in the coverage plane and re-blends the
// path's paint over the destination color stashed on first touch.
type PLS struct {
	*base
}

// NewPLS returns a PLS backend.
func NewPLS(cfg Config) (*PLS, error) {
	b, err := newBase(cfg, false)
	if err != nil {
		return nil, err
	}
	return &PLS{base: b}, nil
}

// RenderPatches draws a path: its patches with back faces culled, then
// its interior triangles without the interlock.
func (p *PLS) RenderPatches(f *encode.Flush, d *encode.Draw) error {
	if err := p.check(f, d, encode.DrawPath); err != nil {
		return err
	}
	p.renderPath(f, d)
	return nil
}

// RenderClipUpdate draws a clip path into the clip plane.
func (p *PLS) RenderClipUpdate(f *encode.Flush, d *encode.Draw) error {
	if err := p.check(f, d, encode.DrawClipUpdate); err != nil {
		return err
	}
	if !f.Features.Has(encode.FeatureClipping) {
		slogger().Debug("raster: clip update skipped, clipping disabled", "path", d.PathID)
		return nil
	}
	p.renderPath(f, d)
	return nil
}

func (p *PLS) renderPath(f *encode.Flush, d *encode.Draw) {
	v := p.variants.get(f.Features)
	s := p.samplers(f, d)
	env := &vertex.Env{Flush: f}

	p.patchTriangles(f, d, env, true, func(pr *primitive) {
		n := p.target.traverse(pr.t, true, func(i int, b [3]float32) {
			p.shadePath(v, &s, pr, i, b, false)
		})
		p.stats.Fragments.Add(int64(n))
		p.stats.InterlockedFragments.Add(int64(n))
	})
	// Interior triangles go last: they never overlap each other and no
	// fragment of the draw follows them, so they run without the
	// interlock and leave the coverage and scratch planes alone.
	p.interiorTriangles(f, d, env, func(pr *primitive) {
		n := p.target.traverse(pr.t, false, func(i int, b [3]float32) {
			p.shadePath(v, &s, pr, i, b, true)
		})
		p.stats.Fragments.Add(int64(n))
	})
}

// shadePath is the path fragment program.
func (p *PLS) shadePath(v *variant, s *paint.Samplers, pr *primitive, i int, b [3]float32, interior bool) {
	tg := p.target
	fl := &pr.v[0]

	count, owned := coverage.Load(tg.coverage[i], fl.PathID)
	if interior {
		count = coverage.AccumulateWinding(count, fl.Winding)
	} else {
		count = coverage.AccumulateEdge(count, pr.edge(b))
		tg.coverage[i] = coverage.Store(count, fl.PathID)
	}
	cov := coverage.Resolve(count, coverage.RuleOf(fl.PathID), v.evenOdd)

	if fl.ClipID < 0 {
		outer := fl.Paint[0]
		if !v.nestedClipping {
			outer = 0
		}
		stashed, _ := half.Unpack2x16(tg.scratch[i])
		r := clip.Update(tg.clip[i], stashed, -fl.ClipID, outer, cov, interior)
		if r.Stash {
			tg.scratch[i] = half.Pack2x16(r.Outer, 0)
		}
		tg.clip[i] = r.Slot
		return
	}

	// Clip rects crop color draws only; clip contents stay whole.
	if v.clipRect {
		cov = clip.RectCoverage(pr.clipRect(b), cov)
	}
	if v.clipping && fl.ClipID != 0 {
		cov = clip.Apply(tg.clip[i], fl.ClipID, cov)
	}
	src := paint.Resolve(paint.Decode(pr.paint(b)), *s, pr.d)
	src[3] *= cov

	// The first fragment of a path at this pixel stashes the destination;
	// later ones blend the grown coverage over the stashed color.
	dst := tg.color[i]
	if owned {
		dst = tg.scratch[i]
	} else if !interior {
		tg.scratch[i] = dst
	}
	tg.color[i] = packUnorm(blendColor(v, fl.BlendMode, src, unpackUnorm(dst)))
}

// RenderImageMesh draws a textured mesh under the interlock.
func (p *PLS) RenderImageMesh(f *encode.Flush, d *encode.Draw) error {
	if err := p.check(f, d, encode.DrawImageMesh); err != nil {
		return err
	}
	v := p.variants.get(f.Features)
	s := p.samplers(f, d)
	env := &vertex.Env{Flush: f}
	tg := p.target

	p.meshTriangles(d, env, func(pr *primitive) {
		fl := &pr.v[0]
		n := tg.traverse(pr.t, true, func(i int, b [3]float32) {
			cov := float32(1)
			if v.clipping && fl.ClipID != 0 {
				cov = clip.Apply(tg.clip[i], fl.ClipID, cov)
			}
			if v.clipRect {
				cov = clip.RectCoverage(pr.clipRect(b), cov)
			}
			src := paint.Resolve(paint.Decode(pr.paint(b)), s, pr.d)
			src[3] *= cov
			tg.color[i] = packUnorm(blendColor(v, fl.BlendMode, src, tg.colorAt(i)))
		})
		p.stats.Fragments.Add(int64(n))
		p.stats.InterlockedFragments.Add(int64(n))
	})
	return nil
}
