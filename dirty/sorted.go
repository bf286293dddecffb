package dirty

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// SortedDrain is the Ord-requiring flavor of Drain: whenever several
// keys are ready simultaneously it emits the smallest first, so the
// full sequence is deterministic for identical dirty/graph state,
// independent of map iteration order. Use it wherever test
// reproducibility matters; it costs a sort per ready batch.
//
// These are free functions rather than methods on Drain because Go
// methods cannot add the cmp.Ordered constraint to a type parameter.
type SortedDrain[K cmp.Ordered] struct {
	core  *drainCore[K]
	queue []K // kept ascending; emit from the front
}

func newSortedDrain[K cmp.Ordered](ds *DirtySet[K], g *Graph[K], ch Channel, scope mapset.Set[K]) *SortedDrain[K] {
	core := newDrainCore(ds, g, ch, scope)
	queue := core.ready()
	slices.Sort(queue)
	return &SortedDrain[K]{core: core, queue: queue}
}

// DrainDirtySorted is DrainDirty with deterministic tie-breaking.
func DrainDirtySorted[K cmp.Ordered](ds *DirtySet[K], g *Graph[K], ch Channel) *SortedDrain[K] {
	return newSortedDrain(ds, g, ch, dirtyScope(ds, ch))
}

// DrainAffectedSorted is DrainAffected with deterministic tie-breaking.
func DrainAffectedSorted[K cmp.Ordered](ds *DirtySet[K], g *Graph[K], ch Channel) *SortedDrain[K] {
	return newSortedDrain(ds, g, ch, affectedScope(ds, g, ch, nil, nil, nil))
}

func (d *SortedDrain[K]) Next() (k K, ok bool) {
	if len(d.queue) == 0 {
		return k, false
	}
	k = d.queue[0]
	d.queue = d.queue[1:]
	for _, newly := range d.core.emit(k) {
		at, _ := slices.BinarySearch(d.queue, newly)
		d.queue = slices.Insert(d.queue, at, newly)
	}
	return k, true
}

// Status reports completion. Only meaningful after Next has returned
// false.
func (d *SortedDrain[K]) Status() DrainStatus { return d.core.status() }

// Stalled returns the never-emitted keys in ascending order.
func (d *SortedDrain[K]) Stalled() []K {
	out := d.core.stalled()
	slices.Sort(out)
	return out
}

// Collect exhausts the drain, returning the emitted keys and status.
func (d *SortedDrain[K]) Collect() ([]K, DrainStatus) {
	var out []K
	for {
		k, ok := d.Next()
		if !ok {
			return out, d.Status()
		}
		out = append(out, k)
	}
}
