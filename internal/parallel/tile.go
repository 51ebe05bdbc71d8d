// Package parallel provides the worker pool that spreads triangles across
// goroutines and the 64x64 tile grid that serves as the interlock
// granularity: fragments inside one tile never run concurrently unless the
// draw opts out of the interlock.
package parallel

import (
	"image"
	"sync"
	"sync/atomic"
)

// TileSize is the edge length of a tile in pixels.
const TileSize = 64

// Grid divides a width x height target into tiles.
type Grid struct {
	Width, Height int
	Cols, Rows    int
}

// NewGrid returns the tile grid of a target. Sizes of 0 or less give an
// empty grid.
func NewGrid(width, height int) Grid {
	if width <= 0 || height <= 0 {
		return Grid{}
	}
	return Grid{
		Width:  width,
		Height: height,
		Cols:   (width + TileSize - 1) / TileSize,
		Rows:   (height + TileSize - 1) / TileSize,
	}
}

// Len returns the number of tiles.
func (g Grid) Len() int { return g.Cols * g.Rows }

// Index returns the tile containing pixel (x, y).
func (g Grid) Index(x, y int) int { return (y/TileSize)*g.Cols + x/TileSize }

// Rect returns the pixel bounds of tile i, clipped to the target.
func (g Grid) Rect(i int) image.Rectangle {
	x0, y0 := (i%g.Cols)*TileSize, (i/g.Cols)*TileSize
	return image.Rect(x0, y0, min(x0+TileSize, g.Width), min(y0+TileSize, g.Height))
}

// Overlapping calls fn for every tile intersecting r, row by row, with
// the part of r inside the tile.
func (g Grid) Overlapping(r image.Rectangle, fn func(i int, part image.Rectangle)) {
	r = r.Intersect(image.Rect(0, 0, g.Width, g.Height))
	if r.Empty() {
		return
	}
	for ty := r.Min.Y / TileSize; ty <= (r.Max.Y-1)/TileSize; ty++ {
		for tx := r.Min.X / TileSize; tx <= (r.Max.X-1)/TileSize; tx++ {
			i := ty*g.Cols + tx
			fn(i, g.Rect(i).Intersect(r))
		}
	}
}

// Interlock orders fragment work per tile. It stands in for the fragment
// shader interlock: a critical section spans one triangle's fragments in
// one tile.
type Interlock struct {
	grid  Grid
	locks []sync.Mutex
	taken atomic.Int64
}

// NewInterlock returns an interlock over g.
func NewInterlock(g Grid) *Interlock {
	return &Interlock{grid: g, locks: make([]sync.Mutex, g.Len())}
}

// Grid returns the tile grid.
func (l *Interlock) Grid() Grid { return l.grid }

// Do runs fn while holding tile i.
func (l *Interlock) Do(i int, fn func()) {
	l.locks[i].Lock()
	defer l.locks[i].Unlock()
	l.taken.Add(1)
	fn()
}

// Taken returns how many critical sections have run.
func (l *Interlock) Taken() int64 { return l.taken.Load() }
