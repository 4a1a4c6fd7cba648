package bt

import "fmt"

// NodeID addresses a node inside the arena of the Tree that built it.
type NodeID int32

// NoNode is the absent parent of a root entry.
const NoNode NodeID = -1

// Kind enumerates the closed set of node kinds.
type Kind uint8

const (
	KindAction Kind = iota
	KindSequence
	KindSelector
	KindParallel
	KindDecorator
	KindRepeater
	KindMonitor
	KindActiveSelector
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "Action"
	case KindSequence:
		return "Sequence"
	case KindSelector:
		return "Selector"
	case KindParallel:
		return "Parallel"
	case KindDecorator:
		return "Decorator"
	case KindRepeater:
		return "Repeater"
	case KindMonitor:
		return "Monitor"
	case KindActiveSelector:
		return "ActiveSelector"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Behavior is the contract every node kind implements. The scheduler owns
// the cached status of each node; behaviors read and request changes through
// the Scope they are handed and report their own status as return values.
//
// Child activation and abort requested through the Scope are deferred until
// the current call returns, so a behavior is never re-entered while one of
// its methods is on the stack.
type Behavior interface {
	Kind() Kind

	// Initialize resets node-local state, requests activation of the
	// children that must start now and returns the immediate status.
	Initialize(s Scope) Status

	// Tick advances leaf work by one slice. Composites return their cached status.
	Tick(s Scope) Status

	// OnChildComplete applies the node policy to one terminal child result
	// and returns the new own status.
	OnChildComplete(s Scope, child NodeID, result Status) Status

	// Terminate runs once after the node reached a terminal status.
	Terminate(s Scope)

	// Abort requests cancellation of the active subtree. The scheduler sets
	// the node status to Aborted afterwards.
	Abort(s Scope)

	// Children lists every direct child in execution order.
	Children() []NodeID
}

// Scope is the view of the scheduler handed to a behavior for one call.
type Scope struct {
	tree *Tree
	self NodeID
}

func (s Scope) Self() NodeID { return s.self }

// Status returns the cached status of any node in the tree.
func (s Scope) Status(id NodeID) Status { return s.tree.slot(id).status }

// Activate enqueues child under the current node and initializes it once the
// current call returns.
func (s Scope) Activate(child NodeID) {
	s.tree.slot(child)
	s.tree.work.Push(op{kind: opActivate, node: child, parent: s.self})
}

// Abort cancels child if it is still running when the request is processed.
func (s Scope) Abort(child NodeID) {
	s.tree.slot(child)
	s.tree.work.Push(op{kind: opAbort, node: child, parent: s.self})
}

// AbortRunning requests abort of every listed node that is currently running.
func (s Scope) AbortRunning(ids []NodeID) {
	for _, id := range ids {
		if s.Status(id) == StatusRunning {
			s.Abort(id)
		}
	}
}

// Context returns the tick context bound to the current node.
func (s Scope) Context() *TickContext {
	s.tree.tc.Node = s.self
	return &s.tree.tc
}

// composite carries the pieces shared by every non-leaf kind.
type composite struct{}

func (composite) Tick(s Scope) Status { return s.Status(s.self) }
