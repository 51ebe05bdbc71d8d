package raster

import "sync/atomic"

// Stats counts pipeline events across passes. All fields are updated
// atomically.
type Stats struct {
	VerticesDiscarded atomic.Int64
	TrianglesCulled   atomic.Int64
	Triangles         atomic.Int64
	Fragments         atomic.Int64
	// InterlockedFragments counts fragments shaded inside the interlock.
	InterlockedFragments atomic.Int64
}

// Snapshot is a plain copy of Stats.
type Snapshot struct {
	VerticesDiscarded    int64
	TrianglesCulled      int64
	Triangles            int64
	Fragments            int64
	InterlockedFragments int64
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		VerticesDiscarded:    s.VerticesDiscarded.Load(),
		TrianglesCulled:      s.TrianglesCulled.Load(),
		Triangles:            s.Triangles.Load(),
		Fragments:            s.Fragments.Load(),
		InterlockedFragments: s.InterlockedFragments.Load(),
	}
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.VerticesDiscarded.Store(0)
	s.TrianglesCulled.Store(0)
	s.Triangles.Store(0)
	s.Fragments.Store(0)
	s.InterlockedFragments.Store(0)
}

func (s *Stats) record(r setupResult, discarded int) {
	s.VerticesDiscarded.Add(int64(discarded))
	switch r {
	case setupOK:
		s.Triangles.Add(1)
	case setupCulled:
		s.TrianglesCulled.Add(1)
	}
}
