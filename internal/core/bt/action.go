package bt

import "context"

// TickContext is passed to leaves on every call.
type TickContext struct {
	Ctx  context.Context
	BB   *Blackboard
	Node NodeID
	// Step is the number of scheduler steps taken since the tree was created.
	Step uint64
}

// Leaf is the unit of work supplied by the embedding application.
// Tick must return Running, Success or Failure.
type Leaf interface {
	Tick(tc *TickContext) Status
}

// Initializer is implemented by leaves that need to reset state on activation.
type Initializer interface {
	Initialize(tc *TickContext)
}

// Terminator is implemented by leaves that clean up once they finish.
type Terminator interface {
	Terminate(result Status)
}

// Aborter is implemented by leaves that must react to cancellation.
type Aborter interface {
	Abort()
}

// ActionFunc adapts a function to the Leaf interface.
type ActionFunc func(tc *TickContext) Status

func (f ActionFunc) Tick(tc *TickContext) Status { return f(tc) }

// ConditionFunc adapts a predicate: true is Success, false is Failure.
type ConditionFunc func(tc *TickContext) bool

func (f ConditionFunc) Tick(tc *TickContext) Status {
	if f(tc) {
		return StatusSuccess
	}
	return StatusFailure
}

// Action is the leaf behavior wrapping a Leaf.
type Action struct {
	leaf Leaf
}

func (a *Action) Kind() Kind { return KindAction }

func (a *Action) Initialize(s Scope) Status {
	if in, ok := a.leaf.(Initializer); ok {
		in.Initialize(s.Context())
	}
	return StatusRunning
}

func (a *Action) Tick(s Scope) Status {
	st := a.leaf.Tick(s.Context())
	switch st {
	case StatusRunning, StatusSuccess, StatusFailure:
		return st
	default:
		violation("leaf %d returned %s", s.self, st)
		return StatusInvalid
	}
}

func (a *Action) OnChildComplete(s Scope, child NodeID, _ Status) Status {
	violation("leaf %d received completion from node %d", s.self, child)
	return StatusInvalid
}

func (a *Action) Terminate(s Scope) {
	if term, ok := a.leaf.(Terminator); ok {
		term.Terminate(s.Status(s.self))
	}
}

func (a *Action) Abort(Scope) {
	if ab, ok := a.leaf.(Aborter); ok {
		ab.Abort()
	}
}

func (a *Action) Children() []NodeID { return nil }

// Leaf returns the wrapped leaf.
func (a *Action) Leaf() Leaf { return a.leaf }
