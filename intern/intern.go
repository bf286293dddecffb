// Package intern maps owned, structured keys to dense integer handles.
//
// The engine in package dirty wants a trivially copyable key; embedders
// whose natural identifiers are strings, paths, or composite structs
// intern them once and drive the graph and dirty set with the resulting
// ID, which is comparable, ordered (so the sorted drains work), and a
// single machine word.
package intern

import (
	"github.com/cespare/xxhash/v2"
)

// ID is a dense handle into an Interner's arena. IDs are assigned
// sequentially from 0, never reused, and totally ordered by assignment.
type ID uint32

// Interner stores each distinct key once in an arena and indexes it by
// hash. Lookups hash the key, fetch the candidate bucket, and linearly
// probe it with the equality function before allocating a new handle,
// so hash collisions cost a few extra comparisons rather than a wrong
// answer.
type Interner[K any] struct {
	hash    func(K) uint64
	eq      func(K, K) bool
	arena   []K
	buckets map[uint64][]ID
}

// New builds an Interner from a hash function and an equality function
// over the key type. The hash need not be collision-free; it only
// steers bucketing.
func New[K any](hash func(K) uint64, eq func(K, K) bool) *Interner[K] {
	return &Interner[K]{
		hash:    hash,
		eq:      eq,
		buckets: make(map[uint64][]ID),
	}
}

// Strings interns string keys, hashed with xxhash.
func Strings() *Interner[string] {
	return New(
		xxhash.Sum64String,
		func(a, b string) bool { return a == b },
	)
}

// Bytes interns byte-slice keys, hashed with xxhash. The arena aliases
// the slices it is given; callers must not mutate a key after interning
// it.
func Bytes() *Interner[[]byte] {
	return New(
		xxhash.Sum64,
		func(a, b []byte) bool { return string(a) == string(b) },
	)
}

// Intern returns the handle for k, allocating one if k was never seen.
// The same key (per the equality function) always yields the same ID.
func (in *Interner[K]) Intern(k K) ID {
	h := in.hash(k)
	for _, id := range in.buckets[h] {
		if in.eq(in.arena[id], k) {
			return id
		}
	}
	id := ID(len(in.arena))
	in.arena = append(in.arena, k)
	in.buckets[h] = append(in.buckets[h], id)
	return id
}

// Lookup returns the handle for k without allocating one.
func (in *Interner[K]) Lookup(k K) (ID, bool) {
	h := in.hash(k)
	for _, id := range in.buckets[h] {
		if in.eq(in.arena[id], k) {
			return id, true
		}
	}
	return 0, false
}

// Value returns the key behind id. Panics on a handle this interner
// never issued, the same way an out-of-range slice index would.
func (in *Interner[K]) Value(id ID) K {
	return in.arena[id]
}

// Len is the number of distinct keys interned so far.
func (in *Interner[K]) Len() int { return len(in.arena) }
