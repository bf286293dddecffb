package dirty

import (
	"errors"
	"fmt"
	"strings"
)

// CycleHandling decides what AddDependency does with an edge that would
// close a cycle. It is evaluated at edge-add time only; once an edge is
// in the graph no further checking happens.
type CycleHandling uint8

const (
	// OnCycleDebugAssert panics when the dirtydebug build tag is set and
	// silently accepts the edge otherwise. The default.
	OnCycleDebugAssert CycleHandling = iota
	// OnCycleError refuses the edge and returns a *CycleError describing
	// the cycle it would have closed.
	OnCycleError
	// OnCycleIgnore refuses the edge silently.
	OnCycleIgnore
	// OnCycleAllow skips detection entirely. Cycles are permitted and
	// drains over them report DrainStalled instead of emitting the cycle
	// members.
	OnCycleAllow
)

func (h CycleHandling) String() string {
	switch h {
	case OnCycleDebugAssert:
		return "DebugAssert"
	case OnCycleError:
		return "Error"
	case OnCycleIgnore:
		return "Ignore"
	case OnCycleAllow:
		return "Allow"
	default:
		return "Unknown"
	}
}

// ErrCycle is the sentinel wrapped by every *CycleError, so callers can
// errors.Is(err, ErrCycle) without knowing the key type.
var ErrCycle = errors.New("dependency cycle")

// CycleError reports a rejected edge and the cycle it would have
// completed. Cycle starts and ends at From; a self-loop is [k, k].
type CycleError[K comparable] struct {
	From    K
	To      K
	Channel Channel
	Cycle   []K
}

func (e *CycleError[K]) Error() string {
	var sb strings.Builder
	for i, k := range e.Cycle {
		if i > 0 {
			sb.WriteString(" -> ")
		}
		fmt.Fprintf(&sb, "%v", k)
	}
	return fmt.Sprintf("%v: adding %v -> %v on %v would close %s",
		ErrCycle, e.From, e.To, e.Channel, sb.String())
}

func (e *CycleError[K]) Unwrap() error { return ErrCycle }
