package clip

// Stack assigns clip content ids on the host while a frame is encoded.
//
// Every clip pushed gets a fresh id, unique for the flush, so a pixel's
// clip slot can always tell which clip wrote it. The entry below the top is
// the outer clip a nested update intersects against.
type Stack struct {
	ids  []uint32
	next uint32
	max  uint32
}

// NewStack creates a stack handing out ids in [1, maxID). A maxID of 0
// means unbounded.
func NewStack(maxID uint32) *Stack {
	return &Stack{
		ids:  make([]uint32, 0, 8),
		next: 1,
		max:  maxID,
	}
}

// Push opens a new clip and returns its content id together with the id
// of the clip it is nested in (0 at the top level). ok is false once the
// id space is exhausted.
func (s *Stack) Push() (id, outer uint32, ok bool) {
	if s.max != 0 && s.next >= s.max {
		return 0, 0, false
	}
	id = s.next
	s.next++
	outer = s.Current()
	s.ids = append(s.ids, id)
	return id, outer, true
}

// Pop closes the innermost clip. Popping an empty stack is a no-op.
func (s *Stack) Pop() {
	if len(s.ids) == 0 {
		return
	}
	s.ids = s.ids[:len(s.ids)-1]
}

// Current returns the id color draws must be clipped against, or 0 when
// no clip is active.
func (s *Stack) Current() uint32 {
	if len(s.ids) == 0 {
		return 0
	}
	return s.ids[len(s.ids)-1]
}

// Depth returns the number of open clips.
func (s *Stack) Depth() int {
	return len(s.ids)
}

// Reset empties the stack and restarts id assignment for a new flush.
func (s *Stack) Reset() {
	s.ids = s.ids[:0]
	s.next = 1
}
