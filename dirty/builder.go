package dirty

import (
	"cmp"

	mapset "github.com/deckarep/golang-set/v2"
)

// DrainBuilder is the configurable front-end over the drain entry
// points. It exists mainly for scoped drains: restricting a drain to a
// subset of keys without disturbing dirty state outside the scope. An
// out-of-scope dirty root is simply never selected, so it stays dirty
// for a later drain; there is no drain-everything-then-reinsert
// workaround anywhere in here.
//
// Typical use:
//
//	keys, status := dirty.NewDrain(ds, g, layout).
//		Affected().
//		WithinDependenciesOf(widget).
//		Run().
//		Collect()
type DrainBuilder[K comparable] struct {
	ds *DirtySet[K]
	g  *Graph[K]
	ch Channel

	affected     bool
	scopeKeys    []K
	closureOf    K
	hasClosureOf bool
	scratch      *Scratch[K]
	trace        Trace[K]
}

// NewDrain starts configuring a drain of ch over ds and g. With no
// further configuration, Run is equivalent to DrainDirty.
func NewDrain[K comparable](ds *DirtySet[K], g *Graph[K], ch Channel) *DrainBuilder[K] {
	return &DrainBuilder[K]{ds: ds, g: g, ch: ch}
}

// Affected expands dirty roots to their transitive dependents before
// sorting, mirroring DrainAffected. Required after Lazy marking.
func (b *DrainBuilder[K]) Affected() *DrainBuilder[K] {
	b.affected = true
	return b
}

// WithinKeys restricts the drain to the given keys. Dirty roots outside
// the list are left untouched. Overrides a prior scope.
func (b *DrainBuilder[K]) WithinKeys(keys ...K) *DrainBuilder[K] {
	b.scopeKeys = keys
	b.hasClosureOf = false
	return b
}

// WithinDependenciesOf restricts the drain to k and its transitive
// dependency closure (upstream, not downstream): the set of keys that
// must be clean before k can be recomputed. Overrides a prior scope.
func (b *DrainBuilder[K]) WithinDependenciesOf(k K) *DrainBuilder[K] {
	b.closureOf = k
	b.hasClosureOf = true
	b.scopeKeys = nil
	return b
}

// WithScratch reuses s for the builder's traversals instead of
// allocating per Run.
func (b *DrainBuilder[K]) WithScratch(s *Scratch[K]) *DrainBuilder[K] {
	b.scratch = s
	return b
}

// WithTrace records cause events during affected expansion. Tracing
// implies scratch reuse, so a scratch is provisioned if none was given;
// in plain (non-affected) mode there is no expansion and the trace
// receives nothing.
func (b *DrainBuilder[K]) WithTrace(t Trace[K]) *DrainBuilder[K] {
	b.trace = t
	if b.scratch == nil {
		b.scratch = NewScratch[K]()
	}
	return b
}

// allowSet resolves the configured scope to a membership set that both
// root selection and expansion consult. nil means unscoped.
func (b *DrainBuilder[K]) allowSet() mapset.Set[K] {
	switch {
	case b.hasClosureOf:
		allow := mapset.NewThreadUnsafeSet[K](b.closureOf)
		b.g.EachTransitiveDependency(b.closureOf, b.ch, b.scratch, func(dep K) {
			allow.Add(dep)
		})
		return allow
	case b.scopeKeys != nil:
		return mapset.NewThreadUnsafeSet[K](b.scopeKeys...)
	default:
		return nil
	}
}

func (b *DrainBuilder[K]) buildScope() mapset.Set[K] {
	allow := b.allowSet()
	if b.affected {
		return affectedScope(b.ds, b.g, b.ch, allow, b.scratch, b.trace)
	}
	scope := mapset.NewThreadUnsafeSet[K]()
	b.ds.Each(b.ch, func(k K) bool {
		if allow == nil || allow.Contains(k) {
			scope.Add(k)
		}
		return false
	})
	return scope
}

// Run builds the configured drain with unspecified tie-break order.
func (b *DrainBuilder[K]) Run() *Drain[K] {
	return newDrain(b.ds, b.g, b.ch, b.buildScope())
}

// RunSorted builds the configured drain with deterministic, key-ordered
// tie-breaking. A free function because the ordering requirement is a
// constraint the builder's own type parameter doesn't carry.
func RunSorted[K cmp.Ordered](b *DrainBuilder[K]) *SortedDrain[K] {
	return newSortedDrain(b.ds, b.g, b.ch, b.buildScope())
}
