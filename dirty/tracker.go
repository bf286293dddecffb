package dirty

// Tracker bundles one Graph, one DirtySet, and one cycle-handling mode
// into a single object, for callers that don't need to share either
// piece. It adds no state of its own beyond the configured mode.
//
// The usual shape of an update pass:
//
//	t.DependOn(child, parent, layout)   // schema, occasionally mutated
//	t.Mark(parent, layout)              // on each upstream change
//	keys, status := t.Drain(layout).Run().Collect()
type Tracker[K comparable] struct {
	graph  *Graph[K]
	dirty  *DirtySet[K]
	cycles CycleHandling
}

func NewTracker[K comparable](cycles CycleHandling) *Tracker[K] {
	return &Tracker[K]{
		graph:  NewGraph[K](),
		dirty:  NewDirtySet[K](),
		cycles: cycles,
	}
}

func (t *Tracker[K]) Graph() *Graph[K]             { return t.graph }
func (t *Tracker[K]) Dirty() *DirtySet[K]          { return t.dirty }
func (t *Tracker[K]) CycleHandling() CycleHandling { return t.cycles }

// DependOn records that from depends on to in ch, under the tracker's
// cycle-handling mode.
func (t *Tracker[K]) DependOn(from, to K, ch Channel) error {
	return t.graph.AddDependency(from, to, ch, t.cycles)
}

func (t *Tracker[K]) Undepend(from, to K, ch Channel) {
	t.graph.RemoveDependency(from, to, ch)
}

// Mark eagerly marks k and its transitive dependents dirty on ch. Use
// MarkWith to pick a different policy per call.
func (t *Tracker[K]) Mark(k K, ch Channel) {
	Eager[K]{}.Propagate(t.graph, t.dirty, k, ch)
}

func (t *Tracker[K]) MarkWith(p Policy[K], k K, ch Channel) {
	p.Propagate(t.graph, t.dirty, k, ch)
}

func (t *Tracker[K]) IsDirty(k K, ch Channel) bool { return t.dirty.IsDirty(k, ch) }
func (t *Tracker[K]) HasDirty(ch Channel) bool     { return t.dirty.HasDirty(ch) }
func (t *Tracker[K]) Len(ch Channel) int           { return t.dirty.Len(ch) }
func (t *Tracker[K]) Generation() uint64           { return t.dirty.Generation() }

// RemoveKey purges k from the graph and every channel's dirty set, the
// teardown contract for discarded entities.
func (t *Tracker[K]) RemoveKey(k K) {
	t.graph.RemoveKey(k)
	t.dirty.RemoveKey(k)
}

// Drain starts a drain builder over the tracker's state.
func (t *Tracker[K]) Drain(ch Channel) *DrainBuilder[K] {
	return NewDrain(t.dirty, t.graph, ch)
}
