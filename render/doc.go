// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render is the boundary between the renderer and its host.
//
// The renderer never creates a GPU device. A host that owns one passes a
// DeviceHandle (a gpucontext.DeviceProvider); Detect turns the handle into
// the Capabilities that decide between the pixel-local-storage and the
// depth/stencil backends. Without a handle everything runs on the CPU
// raster target and both backends are available.
//
// Output goes to a RenderTarget. PixmapTarget is the CPU-backed target
// over *image.RGBA.
package render
