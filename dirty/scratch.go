package dirty

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Scratch is reusable traversal storage: a work stack and a visited
// set, plus a parallel cause slice used by trace-aware expansion. It
// exists so hot-path traversals don't allocate; the allocating
// convenience methods just build a fresh one per call.
//
// A Scratch is owned by its caller and is not safe to share between
// concurrent traversals. It is reset at the start of every traversal
// that borrows it, so state never leaks from one traversal to the next.
type Scratch[K comparable] struct {
	stack   []K
	causes  []K
	visited mapset.Set[K]
}

func NewScratch[K comparable]() *Scratch[K] {
	return &Scratch[K]{
		visited: mapset.NewThreadUnsafeSet[K](),
	}
}

func (s *Scratch[K]) reset() {
	s.stack = s.stack[:0]
	s.causes = s.causes[:0]
	s.visited.Clear()
}

func (s *Scratch[K]) push(k, cause K) {
	s.stack = append(s.stack, k)
	s.causes = append(s.causes, cause)
}

func (s *Scratch[K]) pop() (k, cause K, ok bool) {
	n := len(s.stack)
	if n == 0 {
		return k, cause, false
	}
	k = s.stack[n-1]
	cause = s.causes[n-1]
	s.stack = s.stack[:n-1]
	s.causes = s.causes[:n-1]
	return k, cause, true
}
