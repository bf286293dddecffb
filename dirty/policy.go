package dirty

// Policy is the propagation strategy invoked when a key is marked
// dirty. Policies must be pure with respect to the graph and dirty set
// (no hidden state between calls) so callers can swap them per call.
// Custom strategies, say a depth-limited flood, are just further
// implementations of this interface.
type Policy[K comparable] interface {
	Propagate(g *Graph[K], ds *DirtySet[K], k K, ch Channel)
}

// Eager marks k and immediately floods every transitive dependent into
// the dirty set, so IsDirty is accurate for the whole affected set the
// moment Propagate returns. Cost is proportional to the affected
// subgraph on every call; repeated eager marks into overlapping
// subgraphs redo work, which is what Lazy exists to avoid.
//
// The zero value allocates traversal storage per call. Set Scratch to
// reuse storage across calls, and Trace to record the spanning forest
// of causes as the flood discovers keys.
type Eager[K comparable] struct {
	Scratch *Scratch[K]
	Trace   Trace[K]
}

func (e Eager[K]) Propagate(g *Graph[K], ds *DirtySet[K], k K, ch Channel) {
	ds.bump()
	newly := ds.markQuiet(k, ch)
	if e.Trace != nil {
		e.Trace.Root(k, ch, newly)
	}
	g.eachTransitiveDependentCaused(k, ch, e.Scratch, func(dep, because K) {
		newly := ds.markQuiet(dep, ch)
		if e.Trace != nil {
			e.Trace.CausedBy(dep, because, ch, newly)
		}
	})
}

// Lazy records only k itself and defers expansion to drain time.
// Correctness then requires draining with Affected() (or DrainAffected)
// rather than the plain dirty drain, or downstream dependents will
// never be discovered. Intended for many-marks-before-one-drain
// workloads.
type Lazy[K comparable] struct{}

func (Lazy[K]) Propagate(g *Graph[K], ds *DirtySet[K], k K, ch Channel) {
	ds.Mark(k, ch)
}
