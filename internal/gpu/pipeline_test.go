//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name     string
		features encode.Features
		want     int
	}{
		{"none", 0, 5},
		{"even-odd", encode.FeatureEvenOdd, 6},
		{"clipping", encode.FeatureClipping, 11},
		{"nested", encode.FeatureClipping | encode.FeatureNestedClipping, 12},
		{"all", encode.AllFeatures, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := Keys(tt.features)
			if len(keys) != tt.want {
				t.Errorf("len(Keys) = %d, want %d: %v", len(keys), tt.want, keys)
			}
			seen := make(map[Key]bool)
			for _, k := range keys {
				if seen[k] {
					t.Errorf("duplicate key %s", k)
				}
				seen[k] = true
			}
		})
	}
}

// stencilTest evaluates (ref & mask) compare (s & mask) the way the
// fixed-function stencil test does.
func stencilTest(t *testing.T, f hal.StencilFaceState, mask uint32, s uint32) bool {
	t.Helper()
	ref := uint32(StencilReference) & mask
	v := s & mask
	switch f.Compare {
	case gputypes.CompareFunctionAlways:
		return true
	case gputypes.CompareFunctionEqual:
		return ref == v
	case gputypes.CompareFunctionNotEqual:
		return ref != v
	case gputypes.CompareFunctionLess:
		return ref < v
	default:
		t.Fatalf("unexpected compare function %v", f.Compare)
		return false
	}
}

func TestCoverStencilPredicates(t *testing.T) {
	tests := []struct {
		key  Key
		want func(s uint32) bool
	}{
		{Key{Pipeline: PipelineCover}, func(s uint32) bool { return s&0x7f != 0 }},
		{Key{Pipeline: PipelineCover, Clipped: true}, func(s uint32) bool { return s&0x80 != 0 && s&0x7f != 0 }},
		{Key{Pipeline: PipelineCover, EvenOdd: true}, func(s uint32) bool { return s&1 != 0 }},
		{Key{Pipeline: PipelineCover, Clipped: true, EvenOdd: true}, func(s uint32) bool { return s&0x80 != 0 && s&1 != 0 }},
		{Key{Pipeline: PipelineClipResolve, Clipped: true}, func(s uint32) bool { return s&0x80 != 0 && s&0x7f != 0 }},
		{Key{Pipeline: PipelineStencilForward, Clipped: true}, func(s uint32) bool { return s&0x80 != 0 }},
		{Key{Pipeline: PipelineImageMesh}, func(uint32) bool { return true }},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			ds := depthStencilState(tt.key)
			for s := range uint32(256) {
				got := stencilTest(t, ds.StencilFront, uint32(ds.StencilReadMask), s)
				if got != tt.want(s) {
					t.Fatalf("stencil %#02x: pass = %v, want %v", s, got, !got)
				}
			}
		})
	}
}

func TestDepthStencilOps(t *testing.T) {
	fwd := depthStencilState(Key{Pipeline: PipelineStencilForward})
	if fwd.StencilFront.PassOp != hal.StencilOperationIncrementWrap || fwd.StencilWriteMask != stencilWindMask {
		t.Error("forward stencil must increment the winding bits only")
	}
	if fwd.DepthWriteEnabled || fwd.DepthCompare != gputypes.CompareFunctionLess {
		t.Error("stencil passes test depth without writing it")
	}
	if m := depthStencilState(Key{Pipeline: PipelineStencilMirrored}); m.StencilFront.PassOp != hal.StencilOperationDecrementWrap {
		t.Error("mirrored stencil must decrement")
	}
	in := depthStencilState(Key{Pipeline: PipelineStencilInterior})
	if in.StencilFront.PassOp != hal.StencilOperationIncrementWrap || in.StencilBack.PassOp != hal.StencilOperationDecrementWrap {
		t.Error("interior stencil counts both faces")
	}

	cover := depthStencilState(Key{Pipeline: PipelineCover})
	if cover.StencilFront.PassOp != hal.StencilOperationZero || cover.StencilFront.FailOp != hal.StencilOperationZero {
		t.Error("cover must reset the winding on every touched fragment")
	}
	if !cover.DepthWriteEnabled || cover.StencilWriteMask != stencilWindMask {
		t.Error("cover writes depth and keeps the clip bit")
	}

	clip := depthStencilState(Key{Pipeline: PipelineClipResolve})
	if clip.StencilFront.PassOp != hal.StencilOperationReplace || clip.StencilFront.FailOp != hal.StencilOperationZero {
		t.Error("clip resolve replaces passing fragments and clears the rest")
	}
	if clip.StencilWriteMask != 0xff || clip.DepthCompare != gputypes.CompareFunctionAlways {
		t.Error("clip resolve covers the whole stencil byte without depth testing")
	}

	if p := primitiveState(PipelineStencilForward); p.CullMode != gputypes.CullModeBack {
		t.Error("patch stencil pipelines cull back faces")
	}
	if p := primitiveState(PipelineCover); p.CullMode != gputypes.CullModeNone {
		t.Error("cover does not cull")
	}
}

func TestPipelineCache(t *testing.T) {
	device, _ := createNoopDevice(t)

	if _, err := NewPipelineCache(nil, gputypes.TextureFormatBGRA8Unorm); !errors.Is(err, ErrNilDevice) {
		t.Fatalf("nil device: err = %v", err)
	}

	c, err := NewPipelineCache(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewPipelineCache: %v", err)
	}
	defer c.DestroyAll()

	features := []encode.Features{0, encode.FeatureEvenOdd, encode.FeatureClipping, encode.AllFeatures}
	for _, f := range features {
		v, err := c.Variant(f)
		if err != nil {
			t.Fatalf("Variant(%s): %v", f, err)
		}
		keys := Keys(f)
		if got := len(v.Keys()); got != len(keys) {
			t.Errorf("Variant(%s) has %d pipelines, want %d", f, got, len(keys))
		}
		for _, k := range keys {
			if p, ok := v.Pipeline(k); !ok || p == nil {
				t.Errorf("Variant(%s) lacks %s", f, k)
			}
		}
		if v.BindGroupLayout() == nil {
			t.Errorf("Variant(%s) has no bind group layout", f)
		}
	}
	if _, ok := mustVariant(t, c, 0).Pipeline(Key{Pipeline: PipelineClipResolve}); ok {
		t.Error("variant without clipping has a clip resolve pipeline")
	}

	hits, misses := c.Stats()
	if misses != uint64(len(features)) || hits != 1 {
		t.Errorf("hits, misses = %d, %d; want 1, %d", hits, misses, len(features))
	}
	if c.Size() != len(features) {
		t.Errorf("Size = %d", c.Size())
	}

	c.DestroyAll()
	if c.Size() != 0 {
		t.Errorf("Size after DestroyAll = %d", c.Size())
	}
}

func mustVariant(t *testing.T, c *PipelineCache, f encode.Features) *Variant {
	t.Helper()
	v, err := c.Variant(f)
	if err != nil {
		t.Fatalf("Variant(%s): %v", f, err)
	}
	return v
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{Pipeline: PipelineCover}, "Cover"},
		{Key{Pipeline: PipelineClipResolve, Clipped: true, EvenOdd: true}, "ClipResolve/clipped/evenodd"},
		{Key{Pipeline: pipelineCount}, "Pipeline(6)"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
