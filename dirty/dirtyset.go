package dirty

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// DirtySet tracks, per channel, the keys currently needing
// recomputation, plus one generation counter shared across channels.
//
// The generation bumps exactly once per mutating call no matter how
// many keys the call touched (a drain that clears a thousand keys is
// one bump). It exists purely so callers can diff generations for cheap
// staleness checks; the value itself carries no other meaning. It wraps
// on overflow.
type DirtySet[K comparable] struct {
	channels   map[Channel]mapset.Set[K]
	generation uint64
}

func NewDirtySet[K comparable]() *DirtySet[K] {
	return &DirtySet[K]{
		channels: make(map[Channel]mapset.Set[K]),
	}
}

func (d *DirtySet[K]) set(ch Channel) mapset.Set[K] {
	s, ok := d.channels[ch]
	if !ok {
		s = mapset.NewThreadUnsafeSet[K]()
		d.channels[ch] = s
	}
	return s
}

func (d *DirtySet[K]) bump() { d.generation++ }

// markQuiet inserts without bumping the generation. Policies and drains
// that touch many keys use it so the whole operation counts as one
// mutation.
func (d *DirtySet[K]) markQuiet(k K, ch Channel) bool {
	return d.set(ch).Add(k)
}

// removeQuiet removes without bumping; drains use it as they emit.
func (d *DirtySet[K]) removeQuiet(k K, ch Channel) {
	if s, ok := d.channels[ch]; ok {
		s.Remove(k)
	}
}

// Mark flags k dirty on ch. Returns true if k was newly inserted.
func (d *DirtySet[K]) Mark(k K, ch Channel) bool {
	d.bump()
	return d.markQuiet(k, ch)
}

// MarkSet flags k dirty on every channel in chs, as one mutation.
func (d *DirtySet[K]) MarkSet(k K, chs ChannelSet) {
	d.bump()
	chs.Each(func(ch Channel) bool {
		d.markQuiet(k, ch)
		return false
	})
}

func (d *DirtySet[K]) IsDirty(k K, ch Channel) bool {
	if s, ok := d.channels[ch]; ok {
		return s.Contains(k)
	}
	return false
}

func (d *DirtySet[K]) HasDirty(ch Channel) bool {
	return d.Len(ch) > 0
}

func (d *DirtySet[K]) Len(ch Channel) int {
	if s, ok := d.channels[ch]; ok {
		return s.Cardinality()
	}
	return 0
}

// Each visits the dirty keys of ch in unspecified order without
// consuming them. Return true from fn to stop early.
func (d *DirtySet[K]) Each(ch Channel, fn func(K) bool) {
	if s, ok := d.channels[ch]; ok {
		s.Each(fn)
	}
}

// Keys returns the dirty keys of ch in unspecified order, without
// consuming them.
func (d *DirtySet[K]) Keys(ch Channel) []K {
	if s, ok := d.channels[ch]; ok {
		return s.ToSlice()
	}
	return nil
}

// Drain removes and returns every dirty key of ch, in unspecified
// order. For dependency-ordered output use DrainDirty or the builder
// instead; this is the raw consume.
func (d *DirtySet[K]) Drain(ch Channel) []K {
	d.bump()
	s, ok := d.channels[ch]
	if !ok {
		return nil
	}
	keys := s.ToSlice()
	s.Clear()
	return keys
}

func (d *DirtySet[K]) Clear(ch Channel) {
	d.bump()
	if s, ok := d.channels[ch]; ok {
		s.Clear()
	}
}

func (d *DirtySet[K]) ClearAll() {
	d.bump()
	for _, s := range d.channels {
		s.Clear()
	}
}

// RemoveKey purges k from every channel. Part of the teardown contract
// alongside Graph.RemoveKey.
func (d *DirtySet[K]) RemoveKey(k K) {
	d.bump()
	for _, s := range d.channels {
		s.Remove(k)
	}
}

func (d *DirtySet[K]) Generation() uint64 { return d.generation }
