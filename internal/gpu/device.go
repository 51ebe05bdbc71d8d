//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoHAL is returned when a device provider does not expose hal
// objects.
var ErrNoHAL = errors.New("gpu: provider does not expose a hal device")

// halProvider is implemented by device providers backed by gogpu/wgpu.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// HALFromProvider extracts the hal device and queue from a host's device
// provider.
func HALFromProvider(provider any) (hal.Device, hal.Queue, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, ErrNoHAL
	}
	queue, _ := hp.HalQueue().(hal.Queue)
	return device, queue, nil
}

// Device is the hal side of the depth/stencil backend: the pipeline
// variants and the attachments for the current target size.
type Device struct {
	device  hal.Device
	queue   hal.Queue
	cache   *PipelineCache
	targets *Targets
}

// NewDevice wraps device. The queue may be nil when only pipelines are
// prepared.
func NewDevice(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, opts ...CacheOption) (*Device, error) {
	cache, err := NewPipelineCache(device, format, opts...)
	if err != nil {
		return nil, err
	}
	targets, err := NewTargets(device, format)
	if err != nil {
		return nil, err
	}
	return &Device{device: device, queue: queue, cache: cache, targets: targets}, nil
}

// Prepare makes sure the variant for f and the attachments for a
// width x height target exist, and returns the variant.
func (d *Device) Prepare(f encode.Features, width, height int) (*Variant, error) {
	v, err := d.cache.Variant(f)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: %w: %dx%d", encode.ErrInvalidTarget, width, height)
	}
	if err := d.targets.Ensure(uint32(width), uint32(height), f.Has(encode.FeatureAdvancedBlend)); err != nil {
		return nil, err
	}
	return v, nil
}

// Cache returns the pipeline cache.
func (d *Device) Cache() *PipelineCache { return d.cache }

// Targets returns the attachments.
func (d *Device) Targets() *Targets { return d.targets }

// Queue returns the submission queue, possibly nil.
func (d *Device) Queue() hal.Queue { return d.queue }

// Close releases the attachments and every variant. The hal device
// itself belongs to the host.
func (d *Device) Close() {
	d.targets.Destroy()
	d.cache.DestroyAll()
}
