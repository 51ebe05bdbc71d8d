package raster

import (
	"sync"

	"github.com/gogpu/pls/encode"
)

// variant is a fragment program specialized for one feature set. Fragment
// code reads its flags instead of testing the bitset per pixel.
type variant struct {
	features       encode.Features
	clipping       bool
	clipRect       bool
	advancedBlend  bool
	evenOdd        bool
	nestedClipping bool
	hslBlendModes  bool
}

func newVariant(f encode.Features) *variant {
	return &variant{
		features:       f,
		clipping:       f.Has(encode.FeatureClipping),
		clipRect:       f.Has(encode.FeatureClipRect),
		advancedBlend:  f.Has(encode.FeatureAdvancedBlend),
		evenOdd:        f.Has(encode.FeatureEvenOdd),
		nestedClipping: f.Has(encode.FeatureClipping | encode.FeatureNestedClipping),
		hslBlendModes:  f.Has(encode.FeatureAdvancedBlend | encode.FeatureHSLBlendModes),
	}
}

// variantCache builds each variant once.
type variantCache struct {
	mu       sync.Mutex
	variants map[encode.Features]*variant
}

func (c *variantCache) get(f encode.Features) *variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.variants[f]; ok {
		return v
	}
	if c.variants == nil {
		c.variants = make(map[encode.Features]*variant)
	}
	v := newVariant(f)
	c.variants[f] = v
	slogger().Debug("raster: built variant", "features", f.String())
	return v
}

func (c *variantCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.variants)
}
