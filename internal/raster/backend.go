package raster

import (
	"fmt"
	"image"
	"image/color"
	"reflect"
	"sync"

	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/blend"
	"github.com/gogpu/pls/internal/cache"
	"github.com/gogpu/pls/internal/paint"
	"github.com/gogpu/pls/internal/parallel"
	"github.com/gogpu/pls/internal/vertex"
	"golang.org/x/image/math/f32"
)

// Config configures a backend.
type Config struct {
	Width, Height int
	// Pool runs triangle batches. A nil pool gets a private one with
	// Workers workers, closed by Close.
	Pool    *parallel.WorkerPool
	Workers int
	// ClearColor fills the color plane on LoadClear.
	ClearColor color.NRGBA
	// BGRA swaps red and blue when resolving.
	BGRA bool
}

// primitive is one set-up triangle with its vertex outputs. Flat
// varyings come from v[0].
type primitive struct {
	t *triangle
	v *[3]vertex.Output
	d paint.Derivatives
}

func (p *primitive) edge(b [3]float32) f32.Vec2 {
	return lerp2(b, p.v[0].Edge, p.v[1].Edge, p.v[2].Edge)
}

func (p *primitive) paint(b [3]float32) f32.Vec4 {
	return lerp4(b, p.v[0].Paint, p.v[1].Paint, p.v[2].Paint)
}

func (p *primitive) clipRect(b [3]float32) f32.Vec4 {
	return lerp4(b, p.v[0].ClipRect, p.v[1].ClipRect, p.v[2].ClipRect)
}

func (p *primitive) z(b [3]float32) float32 {
	return lerp(b, p.t.z[0], p.t.z[1], p.t.z[2])
}

// base holds what both backends share: the target, the worker pool,
// per-flush textures and the variant cache.
type base struct {
	cfg          Config
	target       *Target
	pool         *parallel.WorkerPool
	ownPool      bool
	depthStencil bool
	stats        Stats
	variants     variantCache

	mu     sync.Mutex
	flush  *encode.Flush
	grad   *paint.GradientTexture
	images map[int]*paint.ImageTexture
	// textures outlives flushes; images are treated as immutable once
	// drawn.
	textures *cache.LRU[image.Image, *paint.ImageTexture]
}

// imageCacheSize bounds the mip chains kept across flushes.
const imageCacheSize = 64

func newBase(cfg Config, depthStencil bool) (*base, error) {
	t, err := NewTarget(cfg.Width, cfg.Height, depthStencil)
	if err != nil {
		return nil, err
	}
	b := &base{
		cfg:          cfg,
		target:       t,
		pool:         cfg.Pool,
		depthStencil: depthStencil,
		textures:     cache.NewLRU[image.Image, *paint.ImageTexture](imageCacheSize),
	}
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(cfg.Workers)
		b.ownPool = true
	}
	return b, nil
}

// Begin starts a pass on the target.
func (b *base) Begin(load LoadAction) {
	b.target.Begin(load, b.cfg.ClearColor)
	// Callers may edit a flush between passes, so its textures are
	// rebuilt on the first draw of every pass.
	b.mu.Lock()
	b.flush = nil
	b.mu.Unlock()
}

// End resolves the color plane.
func (b *base) End() *image.RGBA {
	return b.target.Resolve(b.cfg.BGRA)
}

// Target returns the render target.
func (b *base) Target() *Target { return b.target }

// Stats returns the backend's counters.
func (b *base) Stats() *Stats { return &b.stats }

// Variants returns how many fragment program variants have been built.
func (b *base) Variants() int { return b.variants.len() }

// Close drops cached images and stops a private worker pool.
func (b *base) Close() {
	b.textures.Purge()
	if b.ownPool {
		b.pool.Close()
	}
}

// prepare renders the ramp texture on the first draw of a flush in the
// current pass.
func (b *base) prepare(f *encode.Flush) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f == b.flush {
		return
	}
	b.flush = f
	b.grad = RenderRamp(f.RampSpans, f.GradRows, f.Uniforms.GradInverseViewportY)
	b.images = make(map[int]*paint.ImageTexture)
}

func (b *base) samplers(f *encode.Flush, d *encode.Draw) paint.Samplers {
	b.prepare(f)
	b.mu.Lock()
	defer b.mu.Unlock()
	s := paint.Samplers{Gradient: b.grad}
	if d.Image >= 0 && d.Image < len(f.Images) {
		tex, ok := b.images[d.Image]
		if !ok {
			tex = b.imageTexture(f.Images[d.Image])
			b.images[d.Image] = tex
		}
		s.Image = tex
	}
	return s
}

// imageTexture returns the mip chain for img, reusing one built by an
// earlier flush. Images whose dynamic type is not comparable are never
// cached.
func (b *base) imageTexture(img image.Image) *paint.ImageTexture {
	if !reflect.TypeOf(img).Comparable() {
		return paint.NewImageTexture(img)
	}
	return b.textures.GetOrCreate(img, func() *paint.ImageTexture {
		slogger().Debug("raster: built image mip chain", "bounds", img.Bounds())
		return paint.NewImageTexture(img)
	})
}

// ImageCache returns the counters of the cross-flush image cache.
func (b *base) ImageCache() cache.Stats { return b.textures.Stats() }

func (b *base) check(f *encode.Flush, d *encode.Draw, kind encode.DrawKind) error {
	if d.Kind != kind {
		return fmt.Errorf("raster: %s draw passed as %s", d.Kind, kind)
	}
	u := f.Uniforms
	if u.Width != b.target.width || u.Height != b.target.height {
		return fmt.Errorf("raster: %w: flush is %dx%d, target %dx%d",
			encode.ErrInvalidTarget, u.Width, u.Height, b.target.width, b.target.height)
	}
	if kind != encode.DrawImageMesh && (d.InstanceCount > 0 && f.Template(d.Template) == nil) {
		return fmt.Errorf("raster: %w: no %s template", encode.ErrMissingResource, d.Template)
	}
	if kind == encode.DrawImageMesh && d.Mesh == nil {
		return fmt.Errorf("raster: %w: image draw without mesh", encode.ErrMissingResource)
	}
	return nil
}

func (b *base) setup(v *[3]vertex.Output, cullBack bool) (triangle, bool) {
	t, r := setupTriangle([3]f32.Vec4{v[0].Position, v[1].Position, v[2].Position},
		b.target.width, b.target.height, cullBack)
	b.stats.record(r, 0)
	return t, r == setupOK
}

func (b *base) countDiscards(outs []vertex.Output) {
	n := 0
	for k := range outs {
		if outs[k].Discarded() {
			n++
		}
	}
	if n > 0 {
		b.stats.VerticesDiscarded.Add(int64(n))
	}
}

// patchTriangles runs the patch vertex program over the draw's instances
// and calls fn for every triangle that survives setup. Instances are
// spread over the worker pool.
func (b *base) patchTriangles(f *encode.Flush, d *encode.Draw, env *vertex.Env, cullBack bool, fn func(*primitive)) {
	tmpl := f.Template(d.Template)
	if tmpl == nil || d.InstanceCount == 0 {
		return
	}
	n := len(tmpl.Forward)
	b.pool.Range(int(d.InstanceCount), func(lo, hi int) {
		outs := make([]vertex.Output, n)
		for i := lo; i < hi; i++ {
			inst := d.BaseInstance + uint32(i)
			for k := range outs {
				outs[k] = vertex.DrawPathVertex(env, tmpl.Forward[k], tmpl.Mirrored[k], inst)
			}
			b.countDiscards(outs)
			for k := 0; k+2 < n; k += 3 {
				v := (*[3]vertex.Output)(outs[k : k+3])
				if t, ok := b.setup(v, cullBack); ok {
					p := &primitive{t: &t, v: v}
					p.d = derivatives(p)
					fn(p)
				}
			}
		}
	})
}

// interiorTriangles runs the interior triangle vertex program over the
// draw's interior range.
func (b *base) interiorTriangles(f *encode.Flush, d *encode.Draw, env *vertex.Env, fn func(*primitive)) {
	count := int(d.InteriorCount / 3)
	if count == 0 {
		return
	}
	b.pool.Range(count, func(lo, hi int) {
		var v [3]vertex.Output
		for i := lo; i < hi; i++ {
			first := int(d.FirstInterior) + i*3
			for k := range v {
				v[k] = vertex.DrawInteriorTriangleVertex(env, f.Interior[first+k])
			}
			b.countDiscards(v[:])
			if t, ok := b.setup(&v, false); ok {
				p := &primitive{t: &t, v: &v}
				p.d = derivatives(p)
				fn(p)
			}
		}
	})
}

// meshTriangles runs the image mesh vertex program and calls fn per
// triangle. Derivatives of the texture coordinate are filled in.
func (b *base) meshTriangles(d *encode.Draw, env *vertex.Env, fn func(*primitive)) {
	m := d.Mesh
	outs := make([]vertex.Output, len(m.Positions))
	for k := range outs {
		outs[k] = vertex.DrawImageMeshVertex(env, &m.Uniforms, m.Positions[k], m.UVs[k])
	}
	b.countDiscards(outs)
	b.pool.Range(len(m.Indices)/3, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := [3]vertex.Output{outs[m.Indices[i*3]], outs[m.Indices[i*3+1]], outs[m.Indices[i*3+2]]}
			if t, ok := b.setup(&v, false); ok {
				p := &primitive{t: &t, v: &v}
				p.d = derivatives(p)
				fn(p)
			}
		}
	})
}

// derivatives returns the screen-space derivatives of the paint
// coordinate, used for image level of detail.
func derivatives(p *primitive) paint.Derivatives {
	uv := [3]f32.Vec2{
		{p.v[0].Paint[0], p.v[0].Paint[1]},
		{p.v[1].Paint[0], p.v[1].Paint[1]},
		{p.v[2].Paint[0], p.v[2].Paint[1]},
	}
	dx, dy := p.t.gradient(uv)
	return paint.Derivatives{DX: dx, DY: dy}
}

func blendColor(v *variant, mode encode.BlendMode, src, dst f32.Vec4) f32.Vec4 {
	if v.advancedBlend && mode != encode.BlendSrcOver {
		return blend.Advanced(src, blend.Unmultiply(dst), blend.Mode(mode), v.hslBlendModes)
	}
	return blend.SourceOver(src, dst)
}
