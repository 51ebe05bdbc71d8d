//go:build !nogpu

package pls

import (
	"image/color"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// halProvider is a device provider backed by the noop hal device.
type halProvider struct {
	mockProvider
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) Device() gpucontext.Device { return mockDevice{} }
func (p halProvider) HalDevice() any            { return p.device }
func (p halProvider) HalQueue() any             { return p.queue }

func noopProvider(t *testing.T) halProvider {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop instance has no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		open.Device.Destroy()
		instance.Destroy()
	})
	return halProvider{device: open.Device, queue: open.Queue}
}

func TestRendererWithHALDevice(t *testing.T) {
	r := newRenderer(t, 32, 32, WithDeviceHandle(noopProvider(t)))
	if r.Mode() != ModeDepthStencil {
		t.Fatalf("Mode = %v, want DepthStencil", r.Mode())
	}
	bound, ok := r.device.(*gpuBinding)
	if !ok {
		t.Fatalf("device binding = %T, want *gpuBinding", r.device)
	}

	b := r.NewBuilder()
	mustPushClip(t, b, rect(0, 0, 16, 32))
	mustFill(t, b, rect(0, 0, 32, 32), encode.NonZero, red)
	img, err := r.Flush(mustFinish(t, b))
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	// Undefined surface format means BGRA8 output.
	expectPixel(t, img, 8, 8, color.RGBA{B: 255, A: 255})
	expectPixel(t, img, 24, 8, clearRGBA)

	if n := bound.dev.Cache().Size(); n != 1 {
		t.Errorf("cached variants = %d, want 1", n)
	}
	if w, h := bound.dev.Targets().Size(); w != 32 || h != 32 {
		t.Errorf("targets = %dx%d, want 32x32", w, h)
	}
}
