// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
// It is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// TextureDescriptor describes a texture the depth/stencil backend
// allocates on a host device.
type TextureDescriptor struct {
	Label string

	Width  uint32
	Height uint32
	// Depth is the number of array layers, 1 for 2D targets.
	Depth uint32

	MipLevelCount uint32
	SampleCount   uint32

	Format gputypes.TextureFormat
	Usage  TextureUsage
}

// TextureUsage specifies how a texture will be used.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota
	// TextureUsageCopyDst allows the texture to be a copy destination.
	TextureUsageCopyDst
	// TextureUsageTextureBinding allows shader sampling.
	TextureUsageTextureBinding
	// TextureUsageStorageBinding allows storage access.
	TextureUsageStorageBinding
	// TextureUsageRenderAttachment allows use as a pass attachment.
	TextureUsageRenderAttachment
)

// DefaultTextureDescriptor returns a single-sample, single-level 2D
// descriptor usable as an attachment and for sampling.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Width:         width,
		Height:        height,
		Depth:         1,
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        format,
		Usage:         TextureUsageTextureBinding | TextureUsageRenderAttachment,
	}
}

// Capabilities describe what a host can run.
type Capabilities struct {
	// PixelLocalStorage reports raster-ordered per-pixel read-modify-write
	// storage. Only the CPU raster target provides it.
	PixelLocalStorage bool
	// DepthStencil reports a depth/stencil attachment with stencil
	// increment and decrement.
	DepthStencil bool
	// Device reports that a host GPU device is attached.
	Device bool
	// TargetFormat is the color format output is produced in.
	TargetFormat gputypes.TextureFormat
}

// Detect derives the capabilities of h. A nil handle or one without a
// device means CPU rendering.
func Detect(h DeviceHandle) Capabilities {
	if h == nil || h.Device() == nil {
		return Capabilities{
			PixelLocalStorage: true,
			DepthStencil:      true,
			TargetFormat:      gputypes.TextureFormatRGBA8Unorm,
		}
	}
	format := h.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	return Capabilities{DepthStencil: true, Device: true, TargetFormat: format}
}

// NullDeviceHandle is a DeviceHandle without a device.
type NullDeviceHandle struct{}

// Device returns nil.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns TextureFormatUndefined.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = NullDeviceHandle{}
