package dirty_test

import (
	"testing"

	"github.com/delaneyj/dirtyparty/dirty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEagerMarksTransitiveClosure(t *testing.T) {
	// 1 <- 2 <- 3: marking 1 must flood 2 and 3 immediately.
	g := chainGraph(t)
	ds := dirty.NewDirtySet[int]()

	dirty.Eager[int]{}.Propagate(g, ds, 1, layout)

	assert.True(t, ds.IsDirty(1, layout))
	assert.True(t, ds.IsDirty(2, layout))
	assert.True(t, ds.IsDirty(3, layout))
	assert.Equal(t, 3, ds.Len(layout))
}

func TestEagerDiamondMarksEachKeyOnce(t *testing.T) {
	//     1
	//   /   \
	//  2     3
	//   \   /
	//     4
	g := diamondGraph(t)
	ds := dirty.NewDirtySet[int]()

	dirty.Eager[int]{}.Propagate(g, ds, 1, layout)

	assert.Equal(t, 4, ds.Len(layout), "diamond convergence must not double-mark")
	for _, k := range []int{1, 2, 3, 4} {
		assert.True(t, ds.IsDirty(k, layout), "key %d", k)
	}
}

func TestEagerMarksExactlyTheClosure(t *testing.T) {
	g := chainGraph(t)
	require.NoError(t, g.AddDependency(9, 8, layout, dirty.OnCycleError))
	ds := dirty.NewDirtySet[int]()

	dirty.Eager[int]{}.Propagate(g, ds, 2, layout)

	assert.False(t, ds.IsDirty(1, layout), "upstream keys stay clean")
	assert.True(t, ds.IsDirty(2, layout))
	assert.True(t, ds.IsDirty(3, layout))
	assert.False(t, ds.IsDirty(8, layout), "disconnected keys stay clean")
	assert.False(t, ds.IsDirty(9, layout))
}

func TestEagerIsOneGenerationBump(t *testing.T) {
	g := diamondGraph(t)
	ds := dirty.NewDirtySet[int]()
	before := ds.Generation()

	dirty.Eager[int]{}.Propagate(g, ds, 1, layout)

	assert.Equal(t, before+1, ds.Generation(), "a flood is one mutating operation")
}

func TestEagerWithScratchReuse(t *testing.T) {
	g := diamondGraph(t)
	scratch := dirty.NewScratch[int]()
	eager := dirty.Eager[int]{Scratch: scratch}

	for i := 0; i < 3; i++ {
		ds := dirty.NewDirtySet[int]()
		eager.Propagate(g, ds, 1, layout)
		assert.Equal(t, 4, ds.Len(layout))
	}
}

func TestLazyMarksOnlyTheKey(t *testing.T) {
	g := chainGraph(t)
	ds := dirty.NewDirtySet[int]()

	dirty.Lazy[int]{}.Propagate(g, ds, 1, layout)

	assert.True(t, ds.IsDirty(1, layout))
	assert.False(t, ds.IsDirty(2, layout))
	assert.False(t, ds.IsDirty(3, layout))
	assert.Equal(t, 1, ds.Len(layout))
}

func TestLazyAffectedMatchesEagerPlain(t *testing.T) {
	// The lazy-then-affected route must land on the same final set and
	// relative order as the eager-then-plain route.
	gEager := diamondGraph(t)
	dsEager := dirty.NewDirtySet[int]()
	dirty.Eager[int]{}.Propagate(gEager, dsEager, 1, layout)
	eagerKeys, eagerStatus := dirty.DrainDirtySorted(dsEager, gEager, layout).Collect()

	gLazy := diamondGraph(t)
	dsLazy := dirty.NewDirtySet[int]()
	dirty.Lazy[int]{}.Propagate(gLazy, dsLazy, 1, layout)
	lazyKeys, lazyStatus := dirty.DrainAffectedSorted(dsLazy, gLazy, layout).Collect()

	assert.Equal(t, dirty.DrainComplete, eagerStatus)
	assert.Equal(t, dirty.DrainComplete, lazyStatus)
	assert.Equal(t, eagerKeys, lazyKeys)
}

// depthLimited proves Policy is open to custom strategies: it floods at
// most depth levels below the marked key.
type depthLimited struct {
	depth int
}

func (p depthLimited) Propagate(g *dirty.Graph[int], ds *dirty.DirtySet[int], k int, ch dirty.Channel) {
	frontier := []int{k}
	ds.Mark(k, ch)
	for d := 0; d < p.depth; d++ {
		var next []int
		for _, cur := range frontier {
			for _, dep := range g.Dependents(cur, ch) {
				if ds.Mark(dep, ch) {
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}
}

func TestCustomPolicy(t *testing.T) {
	g := chainGraph(t)
	ds := dirty.NewDirtySet[int]()

	var p dirty.Policy[int] = depthLimited{depth: 1}
	p.Propagate(g, ds, 1, layout)

	assert.True(t, ds.IsDirty(1, layout))
	assert.True(t, ds.IsDirty(2, layout))
	assert.False(t, ds.IsDirty(3, layout), "depth 1 must stop before 3")
}
