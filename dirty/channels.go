package dirty

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxChannels is the number of invalidation domains a single graph or
// dirty set can distinguish. Channels are indices into a 64-bit mask,
// so the limit is fixed.
const MaxChannels = 64

// Channel identifies one invalidation domain (layout vs paint vs
// accessibility, or whatever the embedder partitions by). Collaborators
// pick their channel indices as constants at registration time.
type Channel uint8

// NewChannel panics if idx is out of range. An out-of-range channel is
// a programmer error, not a runtime condition, so there is no error
// return.
func NewChannel(idx uint8) Channel {
	if idx >= MaxChannels {
		panic(fmt.Sprintf("dirty: channel index %d out of range [0,%d)", idx, MaxChannels))
	}
	return Channel(idx)
}

func (c Channel) Index() uint8 { return uint8(c) }

// Mask returns the single-channel set containing c.
func (c Channel) Mask() ChannelSet { return ChannelSet(1) << c }

func (c Channel) String() string { return fmt.Sprintf("ch%d", uint8(c)) }

// ChannelSet is a 64-bit mask of channels. It is an immutable value
// type; every operation returns a new set.
type ChannelSet uint64

func NewChannelSet(channels ...Channel) ChannelSet {
	var s ChannelSet
	for _, c := range channels {
		s |= c.Mask()
	}
	return s
}

func (s ChannelSet) With(c Channel) ChannelSet    { return s | c.Mask() }
func (s ChannelSet) Without(c Channel) ChannelSet { return s &^ c.Mask() }

func (s ChannelSet) Union(other ChannelSet) ChannelSet     { return s | other }
func (s ChannelSet) Intersect(other ChannelSet) ChannelSet { return s & other }
func (s ChannelSet) Complement() ChannelSet                { return ^s }

func (s ChannelSet) Contains(c Channel) bool { return s&c.Mask() != 0 }
func (s ChannelSet) IsEmpty() bool           { return s == 0 }
func (s ChannelSet) Len() int                { return bits.OnesCount64(uint64(s)) }

// Each visits channels in ascending index order. Return true from fn to
// stop early, mirroring mapset's Each convention.
func (s ChannelSet) Each(fn func(Channel) bool) {
	for s != 0 {
		idx := bits.TrailingZeros64(uint64(s))
		if fn(Channel(idx)) {
			return
		}
		s &= s - 1
	}
}

// Channels returns the member channels in ascending index order.
func (s ChannelSet) Channels() []Channel {
	out := make([]Channel, 0, s.Len())
	s.Each(func(c Channel) bool {
		out = append(out, c)
		return false
	})
	return out
}

func (s ChannelSet) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	s.Each(func(c Channel) bool {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(c.String())
		return false
	})
	sb.WriteByte('}')
	return sb.String()
}
