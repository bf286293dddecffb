package intern_test

import (
	"testing"

	"github.com/delaneyj/dirtyparty/dirty"
	"github.com/delaneyj/dirtyparty/intern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternStringsStableHandles(t *testing.T) {
	in := intern.Strings()

	a := in.Intern("layout.width")
	b := in.Intern("layout.height")
	again := in.Intern("layout.width")

	assert.Equal(t, a, again, "same key must yield the same handle")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, in.Len())
}

func TestInternHandlesAreDense(t *testing.T) {
	in := intern.Strings()
	for i, key := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, intern.ID(i), in.Intern(key))
	}
}

func TestInternValueRoundTrip(t *testing.T) {
	in := intern.Strings()
	id := in.Intern("scene/42")
	assert.Equal(t, "scene/42", in.Value(id))
}

func TestInternLookupDoesNotAllocate(t *testing.T) {
	in := intern.Strings()
	_, ok := in.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, in.Len())

	id := in.Intern("present")
	got, ok := in.Lookup("present")
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestInternBytes(t *testing.T) {
	in := intern.Bytes()
	a := in.Intern([]byte("node-1"))
	b := in.Intern([]byte("node-2"))
	again := in.Intern([]byte("node-1"))

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, []byte("node-1"), in.Value(a))
}

func TestInternSurvivesHashCollisions(t *testing.T) {
	// A deliberately terrible hash puts every key in one bucket; the
	// linear probe with the equality function must still distinguish
	// them all.
	in := intern.New(
		func(string) uint64 { return 0 },
		func(a, b string) bool { return a == b },
	)

	ids := map[intern.ID]bool{}
	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		ids[in.Intern(k)] = true
	}
	assert.Len(t, ids, len(keys), "colliding keys must get distinct handles")
	for _, k := range keys {
		id, ok := in.Lookup(k)
		require.True(t, ok)
		assert.Equal(t, k, in.Value(id))
	}
}

func TestInternStructKeys(t *testing.T) {
	type nodeKey struct {
		doc  uint32
		node uint32
	}
	in := intern.New(
		func(k nodeKey) uint64 { return uint64(k.doc)<<32 | uint64(k.node) },
		func(a, b nodeKey) bool { return a == b },
	)

	a := in.Intern(nodeKey{doc: 1, node: 7})
	again := in.Intern(nodeKey{doc: 1, node: 7})
	other := in.Intern(nodeKey{doc: 1, node: 8})

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, other)
}

func TestInternDrivesTheEngine(t *testing.T) {
	// The whole point: owned keys in, Copy handles through the engine.
	layout := dirty.NewChannel(0)
	in := intern.Strings()
	tr := dirty.NewTracker[intern.ID](dirty.OnCycleError)

	width := in.Intern("width")
	height := in.Intern("height")
	area := in.Intern("area")

	require.NoError(t, tr.DependOn(area, width, layout))
	require.NoError(t, tr.DependOn(area, height, layout))

	tr.Mark(width, layout)
	assert.True(t, tr.IsDirty(area, layout))

	keys, status := dirty.RunSorted(tr.Drain(layout)).Collect()
	assert.Equal(t, dirty.DrainComplete, status)
	require.Len(t, keys, 2)
	assert.Equal(t, "width", in.Value(keys[0]))
	assert.Equal(t, "area", in.Value(keys[1]))
}
