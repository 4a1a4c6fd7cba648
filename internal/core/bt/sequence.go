package bt

// Sequence runs children in order and succeeds only if all of them succeed.
// The first non-Success result is propagated verbatim.
type Sequence struct {
	composite
	children ChildrenNodes
}

func (n *Sequence) Kind() Kind { return KindSequence }

func (n *Sequence) Initialize(s Scope) Status {
	n.children.Reset()
	if child, ok := n.children.Next(); ok {
		s.Activate(child)
		return StatusRunning
	}
	return StatusFailure
}

func (n *Sequence) OnChildComplete(s Scope, child NodeID, result Status) Status {
	expectCurrent(s, &n.children, child)
	if result != StatusSuccess {
		return result
	}
	if next, ok := n.children.Next(); ok {
		s.Activate(next)
		return StatusRunning
	}
	return StatusSuccess
}

func (n *Sequence) Terminate(s Scope) { s.AbortRunning(n.children.All()) }

func (n *Sequence) Abort(s Scope) {
	if child, ok := n.children.Current(); ok && s.Status(child) == StatusRunning {
		s.Abort(child)
	}
}

func (n *Sequence) Children() []NodeID { return n.children.All() }

// Selector runs children in order and succeeds as soon as one succeeds.
// When every child fails the last result is propagated.
type Selector struct {
	composite
	children ChildrenNodes
}

func (n *Selector) Kind() Kind { return KindSelector }

func (n *Selector) Initialize(s Scope) Status {
	n.children.Reset()
	if child, ok := n.children.Next(); ok {
		s.Activate(child)
		return StatusRunning
	}
	return StatusFailure
}

func (n *Selector) OnChildComplete(s Scope, child NodeID, result Status) Status {
	expectCurrent(s, &n.children, child)
	if result == StatusSuccess {
		return StatusSuccess
	}
	if next, ok := n.children.Next(); ok {
		s.Activate(next)
		return StatusRunning
	}
	return result
}

func (n *Selector) Terminate(s Scope) { s.AbortRunning(n.children.All()) }

func (n *Selector) Abort(s Scope) {
	if child, ok := n.children.Current(); ok && s.Status(child) == StatusRunning {
		s.Abort(child)
	}
}

func (n *Selector) Children() []NodeID { return n.children.All() }

func expectCurrent(s Scope, children *ChildrenNodes, child NodeID) {
	if current, ok := children.Current(); !ok || current != child {
		violation("node %d got completion from %d, active child is %d", s.self, child, current)
	}
}
