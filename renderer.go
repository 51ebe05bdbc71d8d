package pls

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/raster"
	"github.com/gogpu/pls/render"
)

// RasterBackend executes the draws of a flush on a raster target.
// Implemented by the PLS and depth/stencil backends.
type RasterBackend interface {
	Begin(load LoadAction)
	RenderPatches(f *encode.Flush, d *encode.Draw) error
	RenderClipUpdate(f *encode.Flush, d *encode.Draw) error
	RenderImageMesh(f *encode.Flush, d *encode.Draw) error
	End() *image.RGBA

	Target() *raster.Target
	Stats() *raster.Stats
	Variants() int
	Close()
}

var (
	_ RasterBackend = (*raster.PLS)(nil)
	_ RasterBackend = (*raster.DepthStencil)(nil)
)

// deviceBinding prepares GPU-side resources for a flush.
type deviceBinding interface {
	prepare(f Features, width, height int) error
	close()
}

// Renderer renders flushes onto a fixed-size target.
//
// Renderer is safe for concurrent use; flushes are serialized.
type Renderer struct {
	mu sync.Mutex

	opts          options
	width, height int
	caps          render.Capabilities
	mode          Mode
	format        gputypes.TextureFormat
	backend       RasterBackend
	device        deviceBinding
	closed        bool
}

// New returns a renderer for a width x height target.
func New(width, height int, opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pls: %w: %dx%d", ErrInvalidTarget, width, height)
	}

	caps := render.Detect(o.device)
	mode, err := SelectMode(o.mode, caps)
	if err != nil {
		return nil, err
	}
	format := o.format
	if format == gputypes.TextureFormatUndefined {
		format = caps.TargetFormat
	}

	cfg := raster.Config{
		Width:      width,
		Height:     height,
		Workers:    o.workers,
		ClearColor: o.clear,
		BGRA:       format == gputypes.TextureFormatBGRA8Unorm,
	}
	var backend RasterBackend
	if mode == ModePLS {
		backend, err = raster.NewPLS(cfg)
	} else {
		backend, err = raster.NewDepthStencil(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("pls: %w", err)
	}

	r := &Renderer{
		opts:    o,
		width:   width,
		height:  height,
		caps:    caps,
		mode:    mode,
		format:  format,
		backend: backend,
	}
	if caps.Device {
		dev, err := openDevice(o.device, format)
		if err != nil {
			slogger().Warn("pls: GPU device unusable, rendering on the CPU only", "err", err)
		} else {
			r.device = dev
		}
	}
	slogger().Info("pls: renderer created", "mode", mode, "requested", o.mode,
		"size", fmt.Sprintf("%dx%d", width, height), "format", format)
	return r, nil
}

// Mode returns the backend in use.
func (r *Renderer) Mode() Mode { return r.mode }

// Capabilities returns what was detected for the host.
func (r *Renderer) Capabilities() render.Capabilities { return r.caps }

// Bounds returns the target rectangle.
func (r *Renderer) Bounds() image.Rectangle { return image.Rect(0, 0, r.width, r.height) }

// Uniforms returns the per-flush constants matching the renderer's target
// and options.
func (r *Renderer) Uniforms() encode.Uniforms {
	u := encode.DefaultUniforms(r.width, r.height)
	u.PathIDGranularity = r.opts.granularity
	u.VertexDiscardValue = r.opts.discard
	u.FragCoordBottomUp = r.opts.bottomUp
	return u
}

// NewBuilder starts a flush for this renderer.
func (r *Renderer) NewBuilder() *encode.Builder {
	return encode.NewBuilder(r.Uniforms(), r.opts.features)
}

// Flush validates f, renders its draws in order and returns the
// premultiplied result.
func (r *Renderer) Flush(f *encode.Flush) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush(f)
}

// RenderTo renders f into target. With LoadPreserve the target's content
// is the starting color.
func (r *Renderer) RenderTo(f *encode.Flush, target *render.PixmapTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if target.Width() != r.width || target.Height() != r.height || target.Format() != r.format {
		return fmt.Errorf("pls: %w: target %dx%d %v, renderer %dx%d %v", ErrInvalidTarget,
			target.Width(), target.Height(), target.Format(), r.width, r.height, r.format)
	}
	if r.opts.load == LoadPreserve {
		r.backend.Target().Load(target.Image())
	}
	img, err := r.flush(f)
	if err != nil {
		return err
	}
	target.Store(img)
	return nil
}

func (r *Renderer) flush(f *encode.Flush) (*image.RGBA, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if f == nil {
		return nil, fmt.Errorf("pls: %w: nil flush", ErrMissingResource)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("pls: %w", err)
	}
	if f.Uniforms.Width != r.width || f.Uniforms.Height != r.height {
		return nil, fmt.Errorf("pls: %w: flush is %dx%d, renderer %dx%d", ErrInvalidTarget,
			f.Uniforms.Width, f.Uniforms.Height, r.width, r.height)
	}
	f = r.restrict(f)

	if r.device != nil {
		if err := r.device.prepare(f.Features, r.width, r.height); err != nil {
			return nil, fmt.Errorf("pls: %w", err)
		}
	}

	before := r.backend.Stats().Snapshot()
	r.backend.Begin(r.opts.load)
	for i := range f.Draws {
		d := &f.Draws[i]
		var err error
		switch d.Kind {
		case encode.DrawPath:
			err = r.backend.RenderPatches(f, d)
		case encode.DrawClipUpdate:
			err = r.backend.RenderClipUpdate(f, d)
		case encode.DrawImageMesh:
			err = r.backend.RenderImageMesh(f, d)
		default:
			err = fmt.Errorf("%w: draw kind %v", ErrInvalidPaintType, d.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("pls: draw %d: %w", i, err)
		}
	}
	img := r.backend.End()

	after := r.backend.Stats().Snapshot()
	slogger().Debug("pls: flush",
		"mode", r.mode,
		"draws", len(f.Draws),
		"features", f.Features.String(),
		"triangles", after.Triangles-before.Triangles,
		"fragments", after.Fragments-before.Fragments)
	return img, nil
}

// restrict drops the feature bits the renderer was not configured for.
func (r *Renderer) restrict(f *encode.Flush) *encode.Flush {
	extra := f.Features &^ r.opts.features
	if extra == 0 {
		return f
	}
	slogger().Warn("pls: flush requests disabled features", "dropped", extra.String())
	g := *f
	g.Features &= r.opts.features
	return &g
}

// Stats returns the pipeline counters accumulated over every flush.
func (r *Renderer) Stats() Stats {
	return r.backend.Stats().Snapshot()
}

// ResetStats zeroes the pipeline counters.
func (r *Renderer) ResetStats() {
	r.backend.Stats().Reset()
}

// Variants returns how many fragment program variants have been built.
func (r *Renderer) Variants() int {
	return r.backend.Variants()
}

// Close releases the worker pool and any GPU resources. Further flushes
// fail with ErrClosed.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.backend.Close()
	if r.device != nil {
		r.device.close()
	}
}
