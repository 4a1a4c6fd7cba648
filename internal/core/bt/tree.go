package bt

import (
	"context"
	"fmt"

	"github.com/zeusync/behave/pkg/sequence"
)

type slot struct {
	name     string
	behavior Behavior
	status   Status
	// gen changes on every activation and abort; queue entries carrying an
	// older generation are stale.
	gen      uint32
	attached bool
	// caller is the parent of the current activation, NoNode for the root.
	caller NodeID
}

type entry struct {
	node      NodeID
	parent    NodeID
	gen       uint32
	parentGen uint32
}

type opKind uint8

const (
	opActivate opKind = iota
	opAbort
	opComplete
)

// op is one unit of deferred scheduler work. node is always the subject:
// the node to activate, to abort, or the child that completed.
type op struct {
	kind   opKind
	node   NodeID
	parent NodeID
	result Status
	// parentGen is the activation of parent a completion belongs to.
	parentGen uint32
}

// Tree is the arena of nodes and the scheduler that ticks them. It is not
// safe for concurrent use: one goroutine owns a Tree at a time.
type Tree struct {
	nodes    []slot
	queue    *sequence.Queue[entry]
	work     *sequence.Queue[op]
	root     NodeID
	tc       TickContext
	observer Observer
	stats    Stats
	busy     bool
}

type Option func(*Tree)

// WithObserver installs an observer for node lifecycle events.
func WithObserver(obs Observer) Option {
	return func(t *Tree) { t.observer = obs }
}

// WithBlackboard shares bb with every leaf of the tree.
func WithBlackboard(bb *Blackboard) Option {
	return func(t *Tree) { t.tc.BB = bb }
}

func New(opts ...Option) *Tree {
	t := &Tree{
		queue: sequence.NewQueue[entry](16),
		work:  sequence.NewQueue[op](16),
		root:  NoNode,
		tc:    TickContext{Ctx: context.Background(), Node: NoNode},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.tc.BB == nil {
		t.tc.BB = NewBlackboard()
	}
	return t
}

// Start clears pending work, rewinds every node reachable from root to
// Invalid and activates root. A previous run that is still in progress is
// aborted first.
func (t *Tree) Start(ctx context.Context, root NodeID) error {
	if t.busy {
		violation("Start called while the tree is stepping")
	}
	if !t.valid(root) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, root)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t.tc.Ctx = ctx
	if t.root != NoNode && t.nodes[t.root].status == StatusRunning {
		t.work.Push(op{kind: opAbort, node: t.root, parent: NoNode})
		t.drain()
	}
	t.queue.Clear()
	t.work.Clear()
	t.rewind(root)
	t.root = root
	t.work.Push(op{kind: opActivate, node: root, parent: NoNode})
	t.drain()
	return nil
}

// Step pops one pending entry and ticks it. Running entries go to the back
// of the queue; terminal results are reported to the parent before Step
// returns. Step returns false when there was nothing to do.
func (t *Tree) Step(ctx context.Context) bool {
	if t.busy {
		violation("Step called while the tree is stepping")
	}
	e, ok := t.queue.Pop()
	if !ok {
		return false
	}
	if ctx != nil {
		t.tc.Ctx = ctx
	}
	t.stats.Steps++
	t.tc.Step++

	s := &t.nodes[e.node]
	// aborting a node bumps its generation, so aborted entries land here too
	if e.gen != s.gen {
		t.stats.Dropped++
		t.emit(EventDrop, e.node, e.parent, s.status)
		return true
	}

	prev := s.status
	scope := Scope{tree: t, self: e.node}
	t.busy = true
	st := s.behavior.Tick(scope)
	t.busy = false
	if s.behavior.Kind() == KindAction {
		t.stats.Ticks++
	}

	switch {
	case st == StatusRunning:
		s.status = st
		t.queue.Push(e)
		t.stats.Requeues++
	case st.IsTerminal():
		s.status = st
		if prev == StatusRunning {
			t.busy = true
			s.behavior.Terminate(scope)
			t.busy = false
		}
		t.stats.Completions++
		t.emit(EventComplete, e.node, e.parent, st)
		if e.parent != NoNode {
			t.work.Push(op{kind: opComplete, node: e.node, parent: e.parent, result: st, parentGen: e.parentGen})
		}
	default:
		violation("node %d (%s) ticked to %s", e.node, s.name, st)
	}

	t.drain()
	return true
}

// Run steps until the queue is empty and returns the root status. When ctx
// is cancelled the root is aborted and ctx.Err() is returned.
func (t *Tree) Run(ctx context.Context) (Status, error) {
	if t.root == NoNode {
		return StatusInvalid, ErrNotStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		if err := ctx.Err(); err != nil {
			_ = t.Abort(t.root)
			return t.nodes[t.root].status, err
		}
		if !t.Step(ctx) {
			break
		}
	}
	return t.nodes[t.root].status, nil
}

// Abort cancels the running subtree rooted at id. A non-root node reports
// Aborted to the parent of its current activation. Calling Abort for a node
// that is not running does nothing.
func (t *Tree) Abort(id NodeID) error {
	if !t.valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	s := t.nodes[id]
	if s.status != StatusRunning {
		return nil
	}
	t.work.Push(op{kind: opAbort, node: id, parent: NoNode})
	if s.caller != NoNode {
		t.work.Push(op{
			kind:      opComplete,
			node:      id,
			parent:    s.caller,
			result:    StatusAborted,
			parentGen: t.nodes[s.caller].gen,
		})
	}
	t.drain()
	return nil
}

// Reset drops all pending work and marks every node Invalid.
func (t *Tree) Reset() {
	if t.busy {
		violation("Reset called while the tree is stepping")
	}
	t.queue.Clear()
	t.work.Clear()
	for i := range t.nodes {
		t.nodes[i].status = StatusInvalid
		t.nodes[i].gen++
		t.nodes[i].caller = NoNode
	}
	t.root = NoNode
}

func (t *Tree) drain() {
	if t.busy {
		return
	}
	t.busy = true
	defer func() { t.busy = false }()
	for {
		o, ok := t.work.Pop()
		if !ok {
			return
		}
		switch o.kind {
		case opActivate:
			t.activate(o.node, o.parent)
		case opAbort:
			t.abort(o.node)
		case opComplete:
			t.complete(o.parent, o.parentGen, o.node, o.result)
		}
	}
}

func (t *Tree) activate(id, parent NodeID) {
	s := &t.nodes[id]
	if s.status == StatusRunning {
		violation("node %d (%s) activated while running", id, s.name)
	}
	s.gen++
	s.caller = parent
	s.status = StatusRunning
	e := entry{node: id, parent: parent, gen: s.gen}
	if parent != NoNode {
		e.parentGen = t.nodes[parent].gen
	}
	t.queue.Push(e)
	t.stats.Activations++
	t.emit(EventActivate, id, parent, StatusRunning)
	t.settle(id, s.behavior.Initialize(Scope{tree: t, self: id}))
}

func (t *Tree) abort(id NodeID) {
	s := &t.nodes[id]
	if s.status != StatusRunning {
		return
	}
	s.behavior.Abort(Scope{tree: t, self: id})
	s.status = StatusAborted
	s.gen++
	t.stats.Aborts++
	t.emit(EventAbort, id, s.caller, StatusAborted)
}

// complete delivers a terminal child result to its parent. Results addressed
// to an earlier activation of the parent, or to a parent that has already
// resolved or been aborted, are dropped: a composite child may resolve
// before its own queue entry reports upward.
func (t *Tree) complete(parent NodeID, parentGen uint32, child NodeID, result Status) {
	if !result.IsTerminal() {
		violation("node %d reported non-terminal %s", child, result)
	}
	p := &t.nodes[parent]
	if p.gen != parentGen || p.status != StatusRunning {
		t.stats.Dropped++
		t.emit(EventDrop, child, parent, result)
		return
	}
	t.settle(parent, p.behavior.OnChildComplete(Scope{tree: t, self: parent}, child, result))
}

// settle stores a status produced by Initialize or OnChildComplete.
func (t *Tree) settle(id NodeID, st Status) {
	s := &t.nodes[id]
	switch {
	case st == StatusRunning:
		s.status = st
	case st.IsTerminal():
		s.status = st
		s.behavior.Terminate(Scope{tree: t, self: id})
	default:
		violation("node %d (%s) resolved to %s", id, s.name, st)
	}
}

func (t *Tree) rewind(root NodeID) {
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := &t.nodes[id]
		s.status = StatusInvalid
		s.caller = NoNode
		s.gen++
		stack = append(stack, s.behavior.Children()...)
	}
}

func (t *Tree) emit(kind EventKind, id, parent NodeID, st Status) {
	if t.observer == nil {
		return
	}
	s := &t.nodes[id]
	t.observer.Observe(Event{
		Kind:     kind,
		Node:     id,
		Name:     s.name,
		NodeKind: s.behavior.Kind(),
		Parent:   parent,
		Status:   st,
		Step:     t.tc.Step,
	})
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tree) slot(id NodeID) *slot {
	if !t.valid(id) {
		panic(fmt.Errorf("%w: %d", ErrUnknownNode, id))
	}
	return &t.nodes[id]
}

// Status returns the cached status of id.
func (t *Tree) Status(id NodeID) Status { return t.slot(id).status }

func (t *Tree) Name(id NodeID) string { return t.slot(id).name }

func (t *Tree) KindOf(id NodeID) Kind { return t.slot(id).behavior.Kind() }

// Behavior returns the behavior stored at id.
func (t *Tree) Behavior(id NodeID) Behavior { return t.slot(id).behavior }

func (t *Tree) Children(id NodeID) []NodeID { return t.slot(id).behavior.Children() }

// Lookup returns the first node registered under name.
func (t *Tree) Lookup(name string) (NodeID, bool) {
	for i := range t.nodes {
		if t.nodes[i].name == name {
			return NodeID(i), true
		}
	}
	return NoNode, false
}

// Root returns the node passed to the last Start, or NoNode.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Pending returns the number of queued entries, stale ones included.
func (t *Tree) Pending() int { return t.queue.Len() }

func (t *Tree) Blackboard() *Blackboard { return t.tc.BB }

func (t *Tree) Stats() Stats { return t.stats }
