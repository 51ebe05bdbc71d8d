//go:build !nogpu

package pls

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/internal/gpu"
	"github.com/gogpu/pls/render"
)

func init() {
	gpuSetLogger = gpu.SetLogger
}

type gpuBinding struct {
	dev *gpu.Device
}

func openDevice(h render.DeviceHandle, format gputypes.TextureFormat) (deviceBinding, error) {
	device, queue, err := gpu.HALFromProvider(h)
	if err != nil {
		return nil, err
	}
	dev, err := gpu.NewDevice(device, queue, format)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &gpuBinding{dev: dev}, nil
}

func (b *gpuBinding) prepare(f Features, width, height int) error {
	_, err := b.dev.Prepare(f, width, height)
	return err
}

func (b *gpuBinding) close() { b.dev.Close() }
