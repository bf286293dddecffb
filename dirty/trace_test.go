package dirty_test

import (
	"testing"

	"github.com/delaneyj/dirtyparty/dirty"
	"github.com/stretchr/testify/assert"
)

func TestOneParentRecorderExplainChain(t *testing.T) {
	// 1 <- 2 <- 3 with an eager trace from root 1: the recorder can
	// explain 3 as root 1 -> 2 -> 3.
	g := chainGraph(t)
	ds := dirty.NewDirtySet[int]()
	rec := dirty.NewOneParentRecorder[int]()

	dirty.Eager[int]{Trace: rec}.Propagate(g, ds, 1, layout)

	assert.Equal(t, []int{1}, rec.ExplainPath(1, layout))
	assert.Equal(t, []int{1, 2}, rec.ExplainPath(2, layout))
	assert.Equal(t, []int{1, 2, 3}, rec.ExplainPath(3, layout))
}

func TestOneParentRecorderDiamondSingleParent(t *testing.T) {
	g := diamondGraph(t)
	ds := dirty.NewDirtySet[int]()
	rec := dirty.NewOneParentRecorder[int]()

	dirty.Eager[int]{Trace: rec}.Propagate(g, ds, 1, layout)

	// 4 is reachable through 2 and through 3; exactly one parent is
	// recorded, and the path it yields is a real path.
	because, isRoot, ok := rec.Cause(4, layout)
	assert.True(t, ok)
	assert.False(t, isRoot)
	assert.Contains(t, []int{2, 3}, because)

	path := rec.ExplainPath(4, layout)
	assert.Len(t, path, 3)
	assert.Equal(t, 1, path[0])
	assert.Equal(t, 4, path[2])
}

func TestOneParentRecorderFirstWriteWins(t *testing.T) {
	rec := dirty.NewOneParentRecorder[int]()

	rec.CausedBy(5, 2, layout, true)
	rec.CausedBy(5, 3, layout, false)
	rec.Root(5, layout, false)

	because, isRoot, ok := rec.Cause(5, layout)
	assert.True(t, ok)
	assert.False(t, isRoot)
	assert.Equal(t, 2, because, "later events must not overwrite the first cause")
}

func TestOneParentRecorderChannelsIndependent(t *testing.T) {
	rec := dirty.NewOneParentRecorder[int]()
	rec.Root(1, layout, true)
	rec.CausedBy(1, 8, paint, true)
	rec.Root(8, paint, true)

	assert.Equal(t, []int{1}, rec.ExplainPath(1, layout))
	assert.Equal(t, []int{8, 1}, rec.ExplainPath(1, paint))
}

func TestOneParentRecorderUnknownKey(t *testing.T) {
	rec := dirty.NewOneParentRecorder[int]()
	assert.Nil(t, rec.ExplainPath(42, layout))
}

func TestOneParentRecorderRefusesPointerCycle(t *testing.T) {
	// Hand-built pointer loop: 1 because 2, 2 because 1. Normally
	// impossible, but the walk must refuse it rather than spin.
	rec := dirty.NewOneParentRecorder[int]()
	rec.CausedBy(1, 2, layout, true)
	rec.CausedBy(2, 1, layout, true)

	assert.Nil(t, rec.ExplainPath(1, layout))
	assert.Nil(t, rec.ExplainPath(2, layout))
}

func TestOneParentRecorderDanglingCause(t *testing.T) {
	// A cause with no record of its own terminates the walk and acts as
	// the root of the explanation.
	rec := dirty.NewOneParentRecorder[int]()
	rec.CausedBy(3, 2, layout, true)

	assert.Equal(t, []int{2, 3}, rec.ExplainPath(3, layout))
}

func TestOneParentRecorderReset(t *testing.T) {
	rec := dirty.NewOneParentRecorder[int]()
	rec.Root(1, layout, true)
	assert.Equal(t, 1, rec.Len())

	rec.Reset()
	assert.Equal(t, 0, rec.Len())
	assert.Nil(t, rec.ExplainPath(1, layout))
}
