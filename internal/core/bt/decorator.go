package bt

// DecoratorState is the per-activation state handed to a DecoratorFunc.
type DecoratorState struct {
	// Completions counts terminal results of the child in this activation,
	// the one being transformed included.
	Completions int
}

// DecoratorFunc maps a terminal child result to the decorator status.
// Returning Running re-activates the child. An aborted child aborts the
// decorator without consulting the function.
type DecoratorFunc func(state *DecoratorState, child Status) Status

// Invert swaps Success and Failure. Aborted passes through.
func Invert(_ *DecoratorState, child Status) Status {
	switch child {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return child
	}
}

// AlwaysSucceed turns any completed child into Success.
func AlwaysSucceed(_ *DecoratorState, child Status) Status {
	if child == StatusAborted {
		return child
	}
	return StatusSuccess
}

// AlwaysFail turns any completed child into Failure.
func AlwaysFail(_ *DecoratorState, child Status) Status {
	if child == StatusAborted {
		return child
	}
	return StatusFailure
}

// RetryUntilSuccess re-runs a failing child up to attempts times in total.
func RetryUntilSuccess(attempts int) DecoratorFunc {
	return func(state *DecoratorState, child Status) Status {
		if child == StatusFailure && state.Completions < attempts {
			return StatusRunning
		}
		return child
	}
}

// Decorator wraps one child behind a DecoratorFunc applied to each of the
// child's terminal results.
type Decorator struct {
	composite
	child NodeID
	fn    DecoratorFunc
	state DecoratorState
}

func (n *Decorator) Kind() Kind { return KindDecorator }

func (n *Decorator) Initialize(s Scope) Status {
	n.state = DecoratorState{}
	s.Activate(n.child)
	return StatusRunning
}

func (n *Decorator) OnChildComplete(s Scope, child NodeID, result Status) Status {
	if child != n.child {
		violation("decorator %d got completion from foreign node %d", s.self, child)
	}
	if result == StatusAborted {
		return result
	}
	n.state.Completions++
	st := n.fn(&n.state, result)
	if st == StatusRunning {
		s.Activate(n.child)
	}
	return st
}

func (n *Decorator) Terminate(s Scope) { s.AbortRunning(n.Children()) }

func (n *Decorator) Abort(s Scope) { s.AbortRunning(n.Children()) }

func (n *Decorator) Children() []NodeID { return []NodeID{n.child} }

// Repeater re-runs its child until it has completed times times and then
// adopts the last child result. A Repeater with times < 1 succeeds without
// starting the child; an aborted child ends the loop as Aborted.
type Repeater struct {
	composite
	child NodeID
	times int
	loop  int
}

func (n *Repeater) Kind() Kind { return KindRepeater }

func (n *Repeater) Initialize(s Scope) Status {
	n.loop = 0
	if n.times < 1 {
		return StatusSuccess
	}
	s.Activate(n.child)
	return StatusRunning
}

func (n *Repeater) OnChildComplete(s Scope, child NodeID, result Status) Status {
	if child != n.child {
		violation("repeater %d got completion from foreign node %d", s.self, child)
	}
	switch result {
	case StatusRunning:
		return StatusRunning
	case StatusAborted:
		return result
	}
	n.loop++
	if n.loop < n.times {
		s.Activate(n.child)
		return StatusRunning
	}
	return result
}

func (n *Repeater) Terminate(s Scope) { s.AbortRunning(n.Children()) }

func (n *Repeater) Abort(s Scope) { s.AbortRunning(n.Children()) }

func (n *Repeater) Children() []NodeID { return []NodeID{n.child} }

// Loop returns how many times the child completed in the current activation.
func (n *Repeater) Loop() int { return n.loop }
