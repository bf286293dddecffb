package dirty

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Trace receives cause events during eager-style expansion: Root for a
// key that was explicitly marked, CausedBy for a key reached through
// propagation from another. newlyDirty reports whether the event
// freshly introduced the key (first insertion into the dirty or
// affected set) as opposed to re-touching it.
type Trace[K comparable] interface {
	Root(k K, ch Channel, newlyDirty bool)
	CausedBy(k, because K, ch Channel, newlyDirty bool)
}

type traceKey[K comparable] struct {
	key K
	ch  Channel
}

type traceCause[K comparable] struct {
	because K
	isRoot  bool
}

// OneParentRecorder keeps at most one cause per (key, channel): the
// first event wins and is never overwritten. That makes the recording a
// spanning forest over the dirtied keys rather than a full provenance
// graph, which is enough to reconstruct one plausible explanation per
// key at a fraction of the cost of recording every path.
type OneParentRecorder[K comparable] struct {
	causes map[traceKey[K]]traceCause[K]
}

func NewOneParentRecorder[K comparable]() *OneParentRecorder[K] {
	return &OneParentRecorder[K]{
		causes: make(map[traceKey[K]]traceCause[K]),
	}
}

func (r *OneParentRecorder[K]) Root(k K, ch Channel, _ bool) {
	tk := traceKey[K]{key: k, ch: ch}
	if _, ok := r.causes[tk]; !ok {
		r.causes[tk] = traceCause[K]{isRoot: true}
	}
}

func (r *OneParentRecorder[K]) CausedBy(k, because K, ch Channel, _ bool) {
	tk := traceKey[K]{key: k, ch: ch}
	if _, ok := r.causes[tk]; !ok {
		r.causes[tk] = traceCause[K]{because: because}
	}
}

// Cause returns the recorded cause of k on ch. isRoot means k was
// explicitly marked; otherwise because is the key it was reached from.
func (r *OneParentRecorder[K]) Cause(k K, ch Channel) (because K, isRoot, ok bool) {
	c, ok := r.causes[traceKey[K]{key: k, ch: ch}]
	return c.because, c.isRoot, ok
}

func (r *OneParentRecorder[K]) Len() int { return len(r.causes) }

// Reset forgets every recorded cause so the recorder can be reused
// across update passes.
func (r *OneParentRecorder[K]) Reset() {
	clear(r.causes)
}

// ExplainPath walks cause pointers from k back to a root and returns
// the path root-first, k last. A root explains itself with a one-key
// path. Returns nil when k has no recorded cause, and also when the
// walk revisits a key: cause pointers are normally a forest, but the
// walk refuses to follow a loop rather than spinning forever.
func (r *OneParentRecorder[K]) ExplainPath(k K, ch Channel) []K {
	c, ok := r.causes[traceKey[K]{key: k, ch: ch}]
	if !ok {
		return nil
	}
	path := []K{k}
	seen := mapset.NewThreadUnsafeSet[K](k)
	for !c.isRoot {
		next := c.because
		if !seen.Add(next) {
			return nil
		}
		path = append(path, next)
		c, ok = r.causes[traceKey[K]{key: next, ch: ch}]
		if !ok {
			// Dangling pointer: the recorder never saw an event for the
			// cause itself. Treat it as the root of this explanation.
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
