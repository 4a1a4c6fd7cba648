package bt

// ActiveSelector arbitrates between a high priority subtree and a low
// priority group evaluated with Parallel policies. Low priority children run
// one at a time; every low priority completion re-checks the high priority
// subtree, and a high priority success preempts whatever is running.
type ActiveSelector struct {
	composite
	high    NodeID
	low     ChildrenNodes
	policy  policyState
	lowDone bool
}

func (n *ActiveSelector) Kind() Kind { return KindActiveSelector }

func (n *ActiveSelector) Initialize(s Scope) Status {
	n.low.Reset()
	n.policy.reset(n.low.Len())
	n.lowDone = false
	s.Activate(n.high)
	return StatusRunning
}

func (n *ActiveSelector) OnChildComplete(s Scope, child NodeID, result Status) Status {
	// a high priority subtree may have resolved before its entry reported
	if s.Status(n.high) == StatusSuccess || (child == n.high && result == StatusSuccess) {
		return StatusSuccess
	}
	if child == n.high {
		if n.low.Cursor() > 0 {
			// a low priority child is still in flight
			return StatusRunning
		}
		if n.low.Len() == 0 {
			return StatusFailure
		}
		return n.advanceLow(s)
	}

	if current, ok := n.low.Current(); !ok || current != child {
		violation("active selector %d got completion from %d, active low child is %d", s.self, child, current)
	}
	st := n.policy.record(result)
	if st != StatusRunning {
		n.lowDone = true
		return st
	}
	if s.Status(n.high) != StatusRunning {
		s.Activate(n.high)
	}
	return n.advanceLow(s)
}

func (n *ActiveSelector) advanceLow(s Scope) Status {
	next, ok := n.low.Next()
	if !ok {
		violation("active selector %d has no low priority child left while running", s.self)
	}
	s.Activate(next)
	return StatusRunning
}

func (n *ActiveSelector) Terminate(s Scope) { s.AbortRunning(n.Children()) }

func (n *ActiveSelector) Abort(s Scope) { s.AbortRunning(n.Children()) }

func (n *ActiveSelector) Children() []NodeID {
	return append([]NodeID{n.high}, n.low.All()...)
}

// LowResolved reports whether the low priority group produced the result of
// the current activation.
func (n *ActiveSelector) LowResolved() bool { return n.lowDone }
