package bt

// Monitor runs actions only while conditions keep succeeding. The conditions
// subtree is re-run after every success for as long as actions are running;
// the first non-Success condition result aborts actions and becomes the
// Monitor status. A finished actions subtree resolves the Monitor with its
// own result.
type Monitor struct {
	composite
	conditions NodeID
	actions    NodeID
	started    bool
}

func (n *Monitor) Kind() Kind { return KindMonitor }

func (n *Monitor) Initialize(s Scope) Status {
	n.started = false
	s.Activate(n.conditions)
	return StatusRunning
}

func (n *Monitor) OnChildComplete(s Scope, child NodeID, result Status) Status {
	switch child {
	case n.conditions:
		if result != StatusSuccess {
			s.AbortRunning([]NodeID{n.actions})
			return result
		}
		switch {
		case !n.started:
			n.started = true
			s.Activate(n.actions)
		case s.Status(n.actions) != StatusRunning:
			return s.Status(n.actions)
		}
		// keep the guard under watch while actions run
		s.Activate(n.conditions)
		return StatusRunning
	case n.actions:
		s.AbortRunning([]NodeID{n.conditions})
		return result
	default:
		violation("monitor %d got completion from foreign node %d", s.self, child)
		return StatusInvalid
	}
}

func (n *Monitor) Terminate(s Scope) { s.AbortRunning(n.Children()) }

func (n *Monitor) Abort(s Scope) { s.AbortRunning(n.Children()) }

func (n *Monitor) Children() []NodeID { return []NodeID{n.conditions, n.actions} }
