package dirty

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Graph is a directed dependency graph with one edge set per channel.
// An edge from -> to means "from depends on to": when to becomes dirty,
// from must become dirty. The same key pair may be related on one
// channel and unrelated on another.
//
// A key with no edges is implicitly present once referenced; there is
// no separate node registry. The graph is single-threaded and owned
// exclusively by its caller.
type Graph[K comparable] struct {
	channels map[Channel]*channelEdges[K]
}

// channelEdges holds both adjacency directions for one channel. The
// deps map answers "what does this key depend on" (upstream), the
// dependents map answers "who depends on this key" (downstream). Both
// are kept in lockstep so either direction is a single lookup.
type channelEdges[K comparable] struct {
	deps       map[K]mapset.Set[K]
	dependents map[K]mapset.Set[K]
}

func NewGraph[K comparable]() *Graph[K] {
	return &Graph[K]{
		channels: make(map[Channel]*channelEdges[K]),
	}
}

func (g *Graph[K]) edges(ch Channel) *channelEdges[K] {
	e, ok := g.channels[ch]
	if !ok {
		e = &channelEdges[K]{
			deps:       make(map[K]mapset.Set[K]),
			dependents: make(map[K]mapset.Set[K]),
		}
		g.channels[ch] = e
	}
	return e
}

// AddDependency records that from depends on to in channel ch. The
// handling mode decides what happens if the edge would close a cycle;
// a self-loop counts as a one-node cycle. Only OnCycleError ever
// returns a non-nil error.
func (g *Graph[K]) AddDependency(from, to K, ch Channel, handling CycleHandling) error {
	if handling != OnCycleAllow {
		if cycle := g.wouldCycle(from, to, ch); cycle != nil {
			err := &CycleError[K]{From: from, To: to, Channel: ch, Cycle: cycle}
			switch handling {
			case OnCycleError:
				return err
			case OnCycleIgnore:
				return nil
			case OnCycleDebugAssert:
				if debugAsserts {
					panic(err.Error())
				}
				// Release builds accept the edge; the drain's completion
				// status is the safety net.
			}
		}
	}

	e := g.edges(ch)
	addEdge(e.deps, from, to)
	addEdge(e.dependents, to, from)
	return nil
}

func addEdge[K comparable](adj map[K]mapset.Set[K], key, other K) {
	s, ok := adj[key]
	if !ok {
		s = mapset.NewThreadUnsafeSet[K]()
		adj[key] = s
	}
	s.Add(other)
}

// wouldCycle reports the cycle that adding from -> to would close, or
// nil. Since from -> to means propagation flows to -> from, a cycle
// exists exactly when from is already reachable walking upstream from
// to. The returned slice starts and ends at from.
func (g *Graph[K]) wouldCycle(from, to K, ch Channel) []K {
	if from == to {
		return []K{from, from}
	}
	e, ok := g.channels[ch]
	if !ok {
		return nil
	}

	parent := map[K]K{}
	stack := []K{to}
	seen := mapset.NewThreadUnsafeSet[K](to)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		deps, ok := e.deps[cur]
		if !ok {
			continue
		}
		found := false
		deps.Each(func(dep K) bool {
			if dep == from {
				parent[dep] = cur
				found = true
				return true
			}
			if seen.Add(dep) {
				parent[dep] = cur
				stack = append(stack, dep)
			}
			return false
		})
		if found {
			// Rebuild from -> ... -> to backwards via parent pointers,
			// then close the loop with the proposed edge.
			rev := []K{from}
			for cur := from; cur != to; {
				cur = parent[cur]
				rev = append(rev, cur)
			}
			cycle := make([]K, 0, len(rev)+1)
			cycle = append(cycle, from)
			for i := len(rev) - 1; i >= 1; i-- {
				cycle = append(cycle, rev[i])
			}
			cycle = append(cycle, from)
			return cycle
		}
	}
	return nil
}

// RemoveDependency removes the from -> to edge in ch. Removing an edge
// that was never added is a no-op.
func (g *Graph[K]) RemoveDependency(from, to K, ch Channel) {
	e, ok := g.channels[ch]
	if !ok {
		return
	}
	removeEdge(e.deps, from, to)
	removeEdge(e.dependents, to, from)
}

func removeEdge[K comparable](adj map[K]mapset.Set[K], key, other K) {
	if s, ok := adj[key]; ok {
		s.Remove(other)
		if s.Cardinality() == 0 {
			delete(adj, key)
		}
	}
}

// RemoveKey purges every edge touching k in every channel. Callers must
// do this when discarding an entity or stale edges will resurrect it
// during future traversals.
func (g *Graph[K]) RemoveKey(k K) {
	for _, e := range g.channels {
		if deps, ok := e.deps[k]; ok {
			deps.Each(func(dep K) bool {
				removeEdge(e.dependents, dep, k)
				return false
			})
			delete(e.deps, k)
		}
		if dependents, ok := e.dependents[k]; ok {
			dependents.Each(func(d K) bool {
				removeEdge(e.deps, d, k)
				return false
			})
			delete(e.dependents, k)
		}
	}
}

// Dependencies returns the direct upstream keys of k in ch (what k
// depends on). Order is unspecified.
func (g *Graph[K]) Dependencies(k K, ch Channel) []K {
	if e, ok := g.channels[ch]; ok {
		if s, ok := e.deps[k]; ok {
			return s.ToSlice()
		}
	}
	return nil
}

// Dependents returns the direct downstream keys of k in ch (who depends
// on k). Order is unspecified.
func (g *Graph[K]) Dependents(k K, ch Channel) []K {
	if e, ok := g.channels[ch]; ok {
		if s, ok := e.dependents[k]; ok {
			return s.ToSlice()
		}
	}
	return nil
}

// HasEdge reports whether from -> to exists in ch.
func (g *Graph[K]) HasEdge(from, to K, ch Channel) bool {
	if e, ok := g.channels[ch]; ok {
		if s, ok := e.deps[from]; ok {
			return s.Contains(to)
		}
	}
	return false
}

// TransitiveDependents returns every key reachable downstream of k in
// ch, each exactly once, k excluded. The visited set makes diamond
// shapes (two paths converging on one node) yield the node once, and
// lets the walk terminate on graphs built with OnCycleAllow. Order
// within the closure is unspecified. Allocates its own scratch; use
// EachTransitiveDependent on hot paths.
func (g *Graph[K]) TransitiveDependents(k K, ch Channel) []K {
	var out []K
	g.EachTransitiveDependent(k, ch, nil, func(dep K) {
		out = append(out, dep)
	})
	return out
}

// EachTransitiveDependent invokes fn once per transitively reachable
// dependent of k. A nil scratch allocates a fresh one.
func (g *Graph[K]) EachTransitiveDependent(k K, ch Channel, scratch *Scratch[K], fn func(dep K)) {
	g.eachTransitiveDependentCaused(k, ch, scratch, func(dep, _ K) {
		fn(dep)
	})
}

// eachTransitiveDependentCaused is the cause-aware flood used by eager
// propagation and affected drains: fn receives both the discovered
// dependent and the key it was discovered through, which is exactly the
// spanning-forest edge a trace records.
func (g *Graph[K]) eachTransitiveDependentCaused(k K, ch Channel, scratch *Scratch[K], fn func(dep, because K)) {
	e, ok := g.channels[ch]
	if !ok {
		return
	}
	if scratch == nil {
		scratch = NewScratch[K]()
	}
	scratch.reset()
	scratch.visited.Add(k)
	scratch.push(k, k)
	for {
		cur, _, ok := scratch.pop()
		if !ok {
			return
		}
		dependents, ok := e.dependents[cur]
		if !ok {
			continue
		}
		dependents.Each(func(dep K) bool {
			if scratch.visited.Add(dep) {
				fn(dep, cur)
				scratch.push(dep, cur)
			}
			return false
		})
	}
}

// EachTransitiveDependency is the upstream mirror: fn is invoked once
// per key that k transitively depends on, k excluded. Scoped drains use
// it to build the allow-set for WithinDependenciesOf.
func (g *Graph[K]) EachTransitiveDependency(k K, ch Channel, scratch *Scratch[K], fn func(dep K)) {
	e, ok := g.channels[ch]
	if !ok {
		return
	}
	if scratch == nil {
		scratch = NewScratch[K]()
	}
	scratch.reset()
	scratch.visited.Add(k)
	scratch.push(k, k)
	for {
		cur, _, ok := scratch.pop()
		if !ok {
			return
		}
		deps, ok := e.deps[cur]
		if !ok {
			continue
		}
		deps.Each(func(dep K) bool {
			if scratch.visited.Add(dep) {
				fn(dep)
				scratch.push(dep, cur)
			}
			return false
		})
	}
}
