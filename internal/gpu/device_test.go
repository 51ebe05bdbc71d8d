//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
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
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

type fakeProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p fakeProvider) HalDevice() any { return p.device }
func (p fakeProvider) HalQueue() any  { return p.queue }

func TestHALFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)

	d, q, err := HALFromProvider(fakeProvider{device, queue})
	if err != nil {
		t.Fatalf("HALFromProvider: %v", err)
	}
	if d != device || q != queue {
		t.Error("provider objects not returned")
	}

	if _, _, err := HALFromProvider(struct{}{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("plain value: err = %v, want ErrNoHAL", err)
	}
	if _, _, err := HALFromProvider(fakeProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("nil device: err = %v, want ErrNoHAL", err)
	}
}

func TestDevicePrepare(t *testing.T) {
	device, queue := createNoopDevice(t)

	if _, err := NewDevice(nil, nil, gputypes.TextureFormatRGBA8Unorm); !errors.Is(err, ErrNilDevice) {
		t.Fatalf("NewDevice(nil) err = %v, want ErrNilDevice", err)
	}

	d, err := NewDevice(device, queue, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	v, err := d.Prepare(encode.FeatureClipping|encode.FeatureEvenOdd, 64, 48)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if v.Features() != encode.FeatureClipping|encode.FeatureEvenOdd {
		t.Errorf("variant features = %s", v.Features())
	}
	if w, h := d.Targets().Size(); w != 64 || h != 48 {
		t.Errorf("targets = %dx%d, want 64x48", w, h)
	}
	if d.Targets().DstCopy() != nil {
		t.Error("dst copy allocated without advanced blend")
	}

	if _, err := d.Prepare(encode.AllFeatures, 64, 48); err != nil {
		t.Fatalf("Prepare(all): %v", err)
	}
	if d.Targets().DstCopy() == nil {
		t.Error("advanced blend variant needs the dst copy")
	}
	if d.Cache().Size() != 2 {
		t.Errorf("cache size = %d, want 2", d.Cache().Size())
	}

	if _, err := d.Prepare(0, 0, 10); !errors.Is(err, encode.ErrInvalidTarget) {
		t.Errorf("empty target: err = %v, want ErrInvalidTarget", err)
	}

	d.Close()
	if d.Cache().Size() != 0 {
		t.Error("Close left variants behind")
	}
	if w, _ := d.Targets().Size(); w != 0 {
		t.Error("Close left targets behind")
	}
}
