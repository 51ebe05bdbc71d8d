//go:build !nogpu

// Package gpu builds the depth/stencil fallback on a WebGPU hal device.
//
// Each feature set gets its own WGSL programs (the feature flags become
// WGSL constants, so the fragment code never tests the bitset) and a fixed
// set of render pipelines:
//
//	stencil forward / mirrored / interior   winding into stencil bits 0-6
//	cover                                   paint, reset winding, write depth
//	clip resolve                            winding into stencil bit 7
//	image mesh                              depth and clip tested paint
//
// Every pipeline is used with a stencil reference of StencilReference.
// Variants are created once per feature set and cached by PipelineCache.
package gpu
