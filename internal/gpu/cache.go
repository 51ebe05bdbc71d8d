//go:build !nogpu

package gpu

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
)

// ErrNilDevice is returned when a cache or target set is created without
// a device.
var ErrNilDevice = errors.New("gpu: device is nil")

// CacheOption configures a PipelineCache.
type CacheOption func(*PipelineCache)

// WithSPIRV makes the cache hand SPIR-V compiled by naga to the device
// instead of WGSL source.
func WithSPIRV() CacheOption {
	return func(c *PipelineCache) { c.spirv = true }
}

// PipelineCache builds one Variant per feature set, on first use.
//
// PipelineCache is safe for concurrent use.
type PipelineCache struct {
	device hal.Device
	format gputypes.TextureFormat
	spirv  bool

	mu       sync.RWMutex
	variants map[encode.Features]*Variant

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewPipelineCache returns an empty cache whose pipelines render to
// format.
func NewPipelineCache(device hal.Device, format gputypes.TextureFormat, opts ...CacheOption) (*PipelineCache, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	c := &PipelineCache{
		device:   device,
		format:   format,
		variants: make(map[encode.Features]*Variant),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Variant returns the variant for f, building it if needed.
func (c *PipelineCache) Variant(f encode.Features) (*Variant, error) {
	c.mu.RLock()
	if v, ok := c.variants[f]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.variants[f]; ok {
		c.hits.Add(1)
		return v, nil
	}
	v, err := newVariant(c.device, c.format, f, c.spirv)
	if err != nil {
		return nil, err
	}
	c.variants[f] = v
	c.misses.Add(1)
	slogger().Debug("gpu: built variant", "features", f.String(), "pipelines", len(v.pipelines), "spirv", c.spirv)
	return v, nil
}

// Stats returns the cache hit and miss counts.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the number of cached variants.
func (c *PipelineCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.variants)
}

// DestroyAll releases every cached variant.
func (c *PipelineCache) DestroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for f, v := range c.variants {
		v.destroy()
		delete(c.variants, f)
	}
}
