package bt

import "fmt"

// The builder methods below assemble a tree bottom-up: every child must be
// created before the node that holds it, and a node can be attached to one
// parent only. They panic on unknown or shared children.

// Action adds a leaf node.
func (t *Tree) Action(name string, leaf Leaf) NodeID {
	if leaf == nil {
		panic(fmt.Errorf("action %q: nil leaf", name))
	}
	return t.add(name, &Action{leaf: leaf})
}

// Condition adds a predicate leaf.
func (t *Tree) Condition(name string, fn ConditionFunc) NodeID {
	return t.Action(name, fn)
}

func (t *Tree) Sequence(name string, children ...NodeID) NodeID {
	return t.add(name, &Sequence{children: NewChildren(children...)}, children...)
}

func (t *Tree) Selector(name string, children ...NodeID) NodeID {
	return t.add(name, &Selector{children: NewChildren(children...)}, children...)
}

func (t *Tree) Parallel(name string, success, failure ParallelPolicy, children ...NodeID) NodeID {
	checkPolicies(name, success, failure)
	return t.add(name, &Parallel{
		children: NewChildren(children...),
		policy:   policyState{success: success, failure: failure},
	}, children...)
}

func (t *Tree) Decorator(name string, fn DecoratorFunc, child NodeID) NodeID {
	if fn == nil {
		panic(fmt.Errorf("decorator %q: nil function", name))
	}
	return t.add(name, &Decorator{child: child, fn: fn}, child)
}

func (t *Tree) Repeater(name string, times int, child NodeID) NodeID {
	return t.add(name, &Repeater{child: child, times: times}, child)
}

// Monitor adds a guarded action: actions run only while conditions succeed.
func (t *Tree) Monitor(name string, conditions, actions NodeID) NodeID {
	return t.add(name, &Monitor{conditions: conditions, actions: actions}, conditions, actions)
}

// ActiveSelector adds a priority arbiter over high and the low priority group.
func (t *Tree) ActiveSelector(name string, high NodeID, success, failure ParallelPolicy, low ...NodeID) NodeID {
	checkPolicies(name, success, failure)
	return t.add(name, &ActiveSelector{
		high:   high,
		low:    NewChildren(low...),
		policy: policyState{success: success, failure: failure},
	}, append([]NodeID{high}, low...)...)
}

func (t *Tree) add(name string, b Behavior, children ...NodeID) NodeID {
	if t.busy {
		violation("node %q added while the tree is stepping", name)
	}
	// a rejected add attaches none of its children
	seen := make(map[NodeID]bool, len(children))
	for _, child := range children {
		s := t.slot(child)
		if s.attached || seen[child] {
			panic(fmt.Errorf("%w: %q under %q", ErrSharedNode, s.name, name))
		}
		seen[child] = true
	}
	for _, child := range children {
		t.nodes[child].attached = true
	}
	t.nodes = append(t.nodes, slot{name: name, behavior: b, caller: NoNode})
	return NodeID(len(t.nodes) - 1)
}

func checkPolicies(name string, success, failure ParallelPolicy) {
	if !success.Valid() || !failure.Valid() {
		panic(fmt.Errorf("%w: %q success=%s failure=%s", ErrInvalidPolicy, name, success, failure))
	}
}
