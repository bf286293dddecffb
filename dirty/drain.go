package dirty

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// DrainStatus is the completion state of an exhausted drain.
type DrainStatus uint8

const (
	// DrainComplete means every in-scope key was emitted.
	DrainComplete DrainStatus = iota
	// DrainStalled means the in-scope subgraph contained a cycle, so
	// some keys never reached zero in-degree and were never emitted.
	// Kahn's algorithm terminates rather than hangs, and the stalled
	// keys are exactly the cycle members (plus anything downstream of
	// them inside the scope).
	DrainStalled
)

func (s DrainStatus) String() string {
	switch s {
	case DrainComplete:
		return "complete"
	case DrainStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// drainCore is the Kahn state shared by the unordered and sorted drain
// iterators: remaining in-degrees restricted to the drained scope, and
// the side effect of clearing emitted keys from the dirty set.
type drainCore[K comparable] struct {
	ds       *DirtySet[K]
	g        *Graph[K]
	ch       Channel
	indegree map[K]int
	total    int
	emitted  int
}

// newDrainCore counts, for each in-scope key, how many of its direct
// dependencies are also in scope. Out-of-scope dependencies don't gate
// emission: the scope is the whole world as far as this drain is
// concerned. Construction is the drain's single generation bump.
func newDrainCore[K comparable](ds *DirtySet[K], g *Graph[K], ch Channel, scope mapset.Set[K]) *drainCore[K] {
	ds.bump()
	c := &drainCore[K]{
		ds:       ds,
		g:        g,
		ch:       ch,
		indegree: make(map[K]int, scope.Cardinality()),
		total:    scope.Cardinality(),
	}
	e, hasEdges := g.channels[ch]
	scope.Each(func(k K) bool {
		n := 0
		if hasEdges {
			if deps, ok := e.deps[k]; ok {
				deps.Each(func(dep K) bool {
					if scope.Contains(dep) {
						n++
					}
					return false
				})
			}
		}
		c.indegree[k] = n
		return false
	})
	return c
}

// ready returns the keys currently at zero in-degree, in unspecified
// order.
func (c *drainCore[K]) ready() []K {
	var out []K
	for k, n := range c.indegree {
		if n == 0 {
			out = append(out, k)
		}
	}
	return out
}

// emit consumes k: clears it from the dirty set, and decrements the
// in-degree of its in-scope dependents. Returns the dependents that
// just became ready.
func (c *drainCore[K]) emit(k K) []K {
	delete(c.indegree, k)
	c.emitted++
	c.ds.removeQuiet(k, c.ch)

	var newly []K
	if e, ok := c.g.channels[c.ch]; ok {
		if dependents, ok := e.dependents[k]; ok {
			dependents.Each(func(d K) bool {
				if n, ok := c.indegree[d]; ok {
					n--
					c.indegree[d] = n
					if n == 0 {
						newly = append(newly, d)
					}
				}
				return false
			})
		}
	}
	return newly
}

func (c *drainCore[K]) status() DrainStatus {
	if c.emitted == c.total {
		return DrainComplete
	}
	return DrainStalled
}

func (c *drainCore[K]) stalled() []K {
	if len(c.indegree) == 0 {
		return nil
	}
	out := make([]K, 0, len(c.indegree))
	for k := range c.indegree {
		out = append(out, k)
	}
	return out
}

// Drain yields in-scope keys in a topological order consistent with the
// channel's dependency edges restricted to the scope: a key is emitted
// only after all of its in-scope dependencies. The relative order among
// keys that become ready simultaneously is unspecified and may vary run
// to run; use the Sorted variants when reproducibility matters.
//
// A Drain conceptually borrows its dirty set and graph: mutating either
// while a drain is open gives undefined results. Emitting a key removes
// it from the dirty set; keys stalled behind a cycle stay dirty.
type Drain[K comparable] struct {
	core  *drainCore[K]
	stack []K
}

func newDrain[K comparable](ds *DirtySet[K], g *Graph[K], ch Channel, scope mapset.Set[K]) *Drain[K] {
	core := newDrainCore(ds, g, ch, scope)
	return &Drain[K]{core: core, stack: core.ready()}
}

// DrainDirty drains exactly the keys currently dirty on ch, with no
// expansion to dependents. Pair it with Eager marking; after Lazy
// marking it will miss dependents.
func DrainDirty[K comparable](ds *DirtySet[K], g *Graph[K], ch Channel) *Drain[K] {
	return newDrain(ds, g, ch, dirtyScope(ds, ch))
}

// DrainAffected expands the dirty roots to their full transitive
// dependent closure first, then drains the union. This is the drain
// required after Lazy marking.
func DrainAffected[K comparable](ds *DirtySet[K], g *Graph[K], ch Channel) *Drain[K] {
	return newDrain(ds, g, ch, affectedScope(ds, g, ch, nil, nil, nil))
}

// dirtyScope snapshots the current dirty keys of ch.
func dirtyScope[K comparable](ds *DirtySet[K], ch Channel) mapset.Set[K] {
	scope := mapset.NewThreadUnsafeSet[K]()
	ds.Each(ch, func(k K) bool {
		scope.Add(k)
		return false
	})
	return scope
}

// affectedScope is dirtyScope plus each root's downstream closure. A
// non-nil allow set restricts both root selection and expansion; a
// non-nil trace receives the expansion's cause events.
func affectedScope[K comparable](ds *DirtySet[K], g *Graph[K], ch Channel, allow mapset.Set[K], scratch *Scratch[K], trace Trace[K]) mapset.Set[K] {
	scope := mapset.NewThreadUnsafeSet[K]()
	var roots []K
	ds.Each(ch, func(k K) bool {
		if allow == nil || allow.Contains(k) {
			roots = append(roots, k)
		}
		return false
	})
	for _, root := range roots {
		newly := scope.Add(root)
		if trace != nil {
			trace.Root(root, ch, newly)
		}
		g.eachTransitiveDependentCaused(root, ch, scratch, func(dep, because K) {
			if allow != nil && !allow.Contains(dep) {
				return
			}
			newly := scope.Add(dep)
			if trace != nil {
				trace.CausedBy(dep, because, ch, newly)
			}
		})
	}
	return scope
}

// Next yields the next key, or ok=false once the drain is exhausted
// (either complete or stalled).
func (d *Drain[K]) Next() (k K, ok bool) {
	n := len(d.stack)
	if n == 0 {
		return k, false
	}
	k = d.stack[n-1]
	d.stack = d.stack[:n-1]
	d.stack = append(d.stack, d.core.emit(k)...)
	return k, true
}

// Status reports completion. Only meaningful after Next has returned
// false.
func (d *Drain[K]) Status() DrainStatus { return d.core.status() }

// Stalled returns the in-scope keys that were never emitted, in
// unspecified order. Empty on a complete drain.
func (d *Drain[K]) Stalled() []K { return d.core.stalled() }

// Collect exhausts the drain and returns everything it emitted along
// with the completion status. Callers that need to detect unexpected
// cycles should use this (or check Status themselves) rather than
// ignoring the tail.
func (d *Drain[K]) Collect() ([]K, DrainStatus) {
	var out []K
	for {
		k, ok := d.Next()
		if !ok {
			return out, d.Status()
		}
		out = append(out, k)
	}
}
