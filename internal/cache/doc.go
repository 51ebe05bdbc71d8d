// Package cache keeps decoded textures alive across flushes.
//
// LRU is a bounded least-recently-used map. The raster backends use it to
// reuse image mip chains when a host draws the same image in consecutive
// flushes.
//
//	c := cache.NewLRU[image.Image, *paint.ImageTexture](64)
//	tex := c.GetOrCreate(img, func() *paint.ImageTexture { return paint.NewImageTexture(img) })
package cache
