package loader

import (
	"fmt"

	"github.com/zeusync/behave/internal/core/bt"
)

// Build validates d and assembles it into a new tree. Leaves are created
// through reg, one instance per node.
func Build(d *Definition, reg *Registry, opts ...bt.Option) (*bt.Tree, bt.NodeID, error) {
	if err := d.Validate(); err != nil {
		return nil, bt.NoNode, err
	}
	b := &builder{def: d, reg: reg, tree: bt.New(opts...)}
	root, err := b.node(d.Root)
	if err != nil {
		return nil, bt.NoNode, err
	}
	return b.tree, root, nil
}

type builder struct {
	def  *Definition
	reg  *Registry
	tree *bt.Tree
}

func (b *builder) node(name string) (bt.NodeID, error) {
	n := b.def.Nodes[name]
	id, err := b.build(name, n)
	if err != nil {
		return bt.NoNode, fmt.Errorf("node %q: %w", name, err)
	}
	return id, nil
}

func (b *builder) build(name string, n Node) (bt.NodeID, error) {
	switch n.Type {
	case TypeAction, TypeCondition:
		leafName := n.Action
		if n.Type == TypeCondition {
			leafName = n.Condition
		}
		leaf, err := b.reg.New(leafName, n.Params)
		if err != nil {
			return bt.NoNode, err
		}
		return b.tree.Action(name, leaf), nil

	case TypeSequence, TypeSelector:
		children, err := b.nodes(n.Children)
		if err != nil {
			return bt.NoNode, err
		}
		if n.Type == TypeSequence {
			return b.tree.Sequence(name, children...), nil
		}
		return b.tree.Selector(name, children...), nil

	case TypeParallel:
		success, failure, err := policies(n, bt.PolicyAll, bt.PolicyOne)
		if err != nil {
			return bt.NoNode, err
		}
		children, err := b.nodes(n.Children)
		if err != nil {
			return bt.NoNode, err
		}
		return b.tree.Parallel(name, success, failure, children...), nil

	case TypeDecorator:
		fn, err := decorator(n)
		if err != nil {
			return bt.NoNode, err
		}
		child, err := b.node(n.Child)
		if err != nil {
			return bt.NoNode, err
		}
		return b.tree.Decorator(name, fn, child), nil

	case TypeRepeater:
		child, err := b.node(n.Child)
		if err != nil {
			return bt.NoNode, err
		}
		return b.tree.Repeater(name, n.Times, child), nil

	case TypeMonitor:
		conditions, err := b.node(n.Conditions)
		if err != nil {
			return bt.NoNode, err
		}
		actions, err := b.node(n.Actions)
		if err != nil {
			return bt.NoNode, err
		}
		return b.tree.Monitor(name, conditions, actions), nil

	case TypeActiveSelector:
		success, failure, err := policies(n, bt.PolicyOne, bt.PolicyAll)
		if err != nil {
			return bt.NoNode, err
		}
		high, err := b.node(n.High)
		if err != nil {
			return bt.NoNode, err
		}
		low, err := b.nodes(n.Children)
		if err != nil {
			return bt.NoNode, err
		}
		return b.tree.ActiveSelector(name, high, success, failure, low...), nil

	default:
		return bt.NoNode, fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
}

func (b *builder) nodes(names []string) ([]bt.NodeID, error) {
	ids := make([]bt.NodeID, 0, len(names))
	for _, name := range names {
		id, err := b.node(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func policies(n Node, success, failure bt.ParallelPolicy) (bt.ParallelPolicy, bt.ParallelPolicy, error) {
	var err error
	if n.Success != "" {
		if success, err = bt.ParsePolicy(n.Success); err != nil {
			return 0, 0, fmt.Errorf("%w: success: %v", ErrInvalidParam, err)
		}
	}
	if n.Failure != "" {
		if failure, err = bt.ParsePolicy(n.Failure); err != nil {
			return 0, 0, fmt.Errorf("%w: failure: %v", ErrInvalidParam, err)
		}
	}
	return success, failure, nil
}

func decorator(n Node) (bt.DecoratorFunc, error) {
	switch n.Decorator {
	case "invert":
		return bt.Invert, nil
	case "always_succeed":
		return bt.AlwaysSucceed, nil
	case "always_fail":
		return bt.AlwaysFail, nil
	case "retry":
		attempts, err := n.Params.Int("attempts", 3)
		if err != nil {
			return nil, err
		}
		if attempts < 1 {
			return nil, fmt.Errorf("%w: attempts %d", ErrInvalidParam, attempts)
		}
		return bt.RetryUntilSuccess(attempts), nil
	default:
		return nil, fmt.Errorf("%w: decorator %q", ErrInvalidParam, n.Decorator)
	}
}
