//go:build !nogpu

package gpu

import (
	"fmt"
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/raster"
	"github.com/gogpu/pls/render"
	"github.com/gogpu/wgpu/hal"
)

// Targets owns the attachments of a depth/stencil pass: the color
// target, the depth/stencil buffer and, for advanced blend variants, the
// destination copy the cover program reads.
type Targets struct {
	device hal.Device
	format gputypes.TextureFormat

	width, height uint32

	colorTex, depthTex, dstTex    hal.Texture
	colorView, depthView, dstView hal.TextureView
}

// NewTargets returns an empty target set. Call Ensure before use.
func NewTargets(device hal.Device, format gputypes.TextureFormat) (*Targets, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &Targets{device: device, format: format}, nil
}

// Descriptors returns the texture descriptors Ensure allocates.
func Descriptors(width, height uint32, format gputypes.TextureFormat, dstCopy bool) []render.TextureDescriptor {
	c := render.DefaultTextureDescriptor(width, height, format)
	c.Label = "pls_color"
	c.Usage = render.TextureUsageRenderAttachment | render.TextureUsageCopySrc

	d := render.DefaultTextureDescriptor(width, height, DepthStencilFormat)
	d.Label = "pls_depth_stencil"
	d.Usage = render.TextureUsageRenderAttachment

	descs := []render.TextureDescriptor{c, d}
	if dstCopy {
		dst := render.DefaultTextureDescriptor(width, height, format)
		dst.Label = "pls_dst_color"
		dst.Usage = render.TextureUsageTextureBinding | render.TextureUsageCopyDst
		descs = append(descs, dst)
	}
	return descs
}

// halUsage maps render usage bits to gputypes.
func halUsage(u render.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	pairs := []struct {
		from render.TextureUsage
		to   gputypes.TextureUsage
	}{
		{render.TextureUsageCopySrc, gputypes.TextureUsageCopySrc},
		{render.TextureUsageCopyDst, gputypes.TextureUsageCopyDst},
		{render.TextureUsageTextureBinding, gputypes.TextureUsageTextureBinding},
		{render.TextureUsageStorageBinding, gputypes.TextureUsageStorageBinding},
		{render.TextureUsageRenderAttachment, gputypes.TextureUsageRenderAttachment},
	}
	for _, p := range pairs {
		if u&p.from != 0 {
			out |= p.to
		}
	}
	return out
}

func (t *Targets) create(d render.TextureDescriptor) (hal.Texture, hal.TextureView, error) {
	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label: d.Label,
		Size: hal.Extent3D{
			Width:              d.Width,
			Height:             d.Height,
			DepthOrArrayLayers: d.Depth,
		},
		MipLevelCount: d.MipLevelCount,
		SampleCount:   d.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.Format,
		Usage:         halUsage(d.Usage),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", d.Label, err)
	}
	view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: d.Label + "_view"})
	if err != nil {
		t.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s view: %w", d.Label, err)
	}
	return tex, view, nil
}

// Ensure allocates the attachments for a width x height pass. Existing
// attachments of the right size are kept.
func (t *Targets) Ensure(width, height uint32, dstCopy bool) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("gpu: %w: %dx%d", encode.ErrInvalidTarget, width, height)
	}
	if t.width == width && t.height == height && t.colorTex != nil && (t.dstTex != nil) == dstCopy {
		return nil
	}
	t.Destroy()

	descs := Descriptors(width, height, t.format, dstCopy)
	texs := []*hal.Texture{&t.colorTex, &t.depthTex, &t.dstTex}
	views := []*hal.TextureView{&t.colorView, &t.depthView, &t.dstView}
	for i, d := range descs {
		tex, view, err := t.create(d)
		if err != nil {
			t.Destroy()
			return fmt.Errorf("gpu: %w", err)
		}
		*texs[i], *views[i] = tex, view
	}
	t.width, t.height = width, height
	slogger().Debug("gpu: allocated targets", "width", width, "height", height, "dstCopy", dstCopy)
	return nil
}

// Size returns the allocated size, zero before Ensure.
func (t *Targets) Size() (width, height uint32) { return t.width, t.height }

// Color returns the color target.
func (t *Targets) Color() hal.Texture { return t.colorTex }

// DstCopy returns the destination copy texture, nil unless allocated for
// an advanced blend variant.
func (t *Targets) DstCopy() hal.Texture { return t.dstTex }

// DstCopyView returns the view bound at binding 4 of the cover programs.
func (t *Targets) DstCopyView() hal.TextureView { return t.dstView }

// PassDescriptor describes a pass over the targets. Depth clears to 1 and
// stencil to 0 at every pass start; color is cleared to clear (straight
// alpha) or preserved.
func (t *Targets) PassDescriptor(load raster.LoadAction, clear color.NRGBA) *hal.RenderPassDescriptor {
	colorLoad := gputypes.LoadOpClear
	if load == raster.LoadPreserve {
		colorLoad = gputypes.LoadOpLoad
	}
	a := float64(clear.A) / 255
	return &hal.RenderPassDescriptor{
		Label: "pls_depth_stencil_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    t.colorView,
				LoadOp:  colorLoad,
				StoreOp: gputypes.StoreOpStore,
				ClearValue: gputypes.Color{
					R: float64(clear.R) / 255 * a,
					G: float64(clear.G) / 255 * a,
					B: float64(clear.B) / 255 * a,
					A: a,
				},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              t.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	}
}

// Destroy releases the attachments. Safe to call more than once.
func (t *Targets) Destroy() {
	for _, v := range []*hal.TextureView{&t.dstView, &t.depthView, &t.colorView} {
		if *v != nil {
			t.device.DestroyTextureView(*v)
			*v = nil
		}
	}
	for _, tex := range []*hal.Texture{&t.dstTex, &t.depthTex, &t.colorTex} {
		if *tex != nil {
			t.device.DestroyTexture(*tex)
			*tex = nil
		}
	}
	t.width, t.height = 0, 0
}
