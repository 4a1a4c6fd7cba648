package bt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutStart(t *testing.T) {
	tree := New()
	_, err := tree.Run(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStartUnknownRoot(t *testing.T) {
	tree := New()
	assert.ErrorIs(t, tree.Start(context.Background(), 3), ErrUnknownNode)
}

func TestStepOnEmptyQueue(t *testing.T) {
	tree := New()
	assert.False(t, tree.Step(context.Background()))
}

func TestLeafRootLifecycle(t *testing.T) {
	tree := New()
	leaf := script(StatusRunning, StatusRunning, StatusSuccess)
	root := tree.Action("work", leaf)

	require.NoError(t, tree.Start(context.Background(), root))
	assert.Equal(t, StatusRunning, tree.Status(root))
	assert.Equal(t, 1, leaf.inits)
	assert.Equal(t, 1, tree.Pending())

	assert.True(t, tree.Step(context.Background()))
	assert.Equal(t, StatusRunning, tree.Status(root))
	assert.Equal(t, 1, tree.Pending(), "running leaf is re-queued")

	assert.True(t, tree.Step(context.Background()))
	assert.True(t, tree.Step(context.Background()))
	assert.Equal(t, StatusSuccess, tree.Status(root))
	assert.Equal(t, []Status{StatusSuccess}, leaf.terms)
	assert.False(t, tree.Step(context.Background()))

	stats := tree.Stats()
	assert.Equal(t, uint64(3), stats.Ticks)
	assert.Equal(t, uint64(2), stats.Requeues)
	assert.Equal(t, uint64(1), stats.Completions)
}

func TestCompositeRootTicksCachedStatus(t *testing.T) {
	tree := New()
	leaf := succeed()
	root := tree.Sequence("seq", tree.Action("a", leaf))

	require.NoError(t, tree.Start(context.Background(), root))
	// first entry is the sequence itself, which only reports its cached status
	assert.True(t, tree.Step(context.Background()))
	assert.Equal(t, 0, leaf.calls)
	assert.Equal(t, StatusSuccess, mustRun(t, tree))
}

func mustRun(t *testing.T, tree *Tree) Status {
	t.Helper()
	st, err := tree.Run(context.Background())
	require.NoError(t, err)
	return st
}

func TestRestartResetsReachableNodes(t *testing.T) {
	tree := New()
	a, b, c := succeed(), fail(), succeed()
	root := tree.Parallel("par", PolicyAll, PolicyOneDelayed,
		tree.Action("a", a), tree.Action("b", b), tree.Action("c", c))

	require.Equal(t, StatusFailure, runTree(t, tree, root))
	par := tree.Behavior(root).(*Parallel)
	s, f := par.Counts()
	assert.Equal(t, 2, s)
	assert.Equal(t, 1, f)

	require.NoError(t, tree.Start(context.Background(), root))
	s, f = par.Counts()
	assert.Zero(t, s)
	assert.Zero(t, f)
	for _, child := range tree.Children(root) {
		assert.Equal(t, StatusRunning, tree.Status(child))
	}

	require.Equal(t, StatusFailure, mustRun(t, tree))
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, b.calls)
	assert.Equal(t, 2, c.calls)
}

func TestRestartWhileRunningAbortsPreviousRun(t *testing.T) {
	tree := New()
	leaf := forever()
	root := tree.Sequence("seq", tree.Action("spin", leaf))

	require.NoError(t, tree.Start(context.Background(), root))
	tree.Step(context.Background())
	tree.Step(context.Background())

	require.NoError(t, tree.Start(context.Background(), root))
	assert.Equal(t, 1, leaf.aborts)
	assert.Equal(t, 2, leaf.inits)
	assert.Equal(t, StatusRunning, tree.Status(root))
}

func TestAbortRoot(t *testing.T) {
	tree := New()
	a, b := forever(), forever()
	root := tree.Parallel("par", PolicyAll, PolicyOne, tree.Action("a", a), tree.Action("b", b))

	require.NoError(t, tree.Start(context.Background(), root))
	for i := 0; i < 4; i++ {
		tree.Step(context.Background())
	}
	require.NoError(t, tree.Abort(root))

	assert.Equal(t, StatusAborted, tree.Status(root))
	assert.Equal(t, 1, a.aborts)
	assert.Equal(t, 1, b.aborts)
	callsBefore := a.calls + b.calls

	assert.Equal(t, StatusAborted, mustRun(t, tree))
	assert.Equal(t, callsBefore, a.calls+b.calls, "aborted entries are never ticked")
	assert.Equal(t, 0, tree.Pending())
	assert.Equal(t, uint64(3), tree.Stats().Aborts)
}

func TestAbortIsFinal(t *testing.T) {
	tree := New()
	root := tree.Action("spin", forever())
	require.NoError(t, tree.Start(context.Background(), root))
	require.NoError(t, tree.Abort(root))
	require.NoError(t, tree.Abort(root))
	mustRun(t, tree)
	assert.Equal(t, StatusAborted, tree.Status(root))
}

func TestAbortInnerNodeNotifiesParent(t *testing.T) {
	t.Run("sequence propagates", func(t *testing.T) {
		tree := New()
		spin, next := forever(), succeed()
		spinID := tree.Action("spin", spin)
		root := tree.Sequence("seq", spinID, tree.Action("next", next))

		require.NoError(t, tree.Start(context.Background(), root))
		tree.Step(context.Background())
		require.NoError(t, tree.Abort(spinID))

		assert.Equal(t, StatusAborted, mustRun(t, tree))
		assert.Equal(t, 0, next.calls)
	})

	t.Run("selector moves on", func(t *testing.T) {
		tree := New()
		spin, next := forever(), succeed()
		spinID := tree.Action("spin", spin)
		root := tree.Selector("sel", spinID, tree.Action("next", next))

		require.NoError(t, tree.Start(context.Background(), root))
		tree.Step(context.Background())
		require.NoError(t, tree.Abort(spinID))

		assert.Equal(t, StatusSuccess, mustRun(t, tree))
		assert.Equal(t, 1, next.calls)
		assert.Equal(t, StatusAborted, tree.Status(spinID))
	})
}

func TestAbortedChildIsNotRestarted(t *testing.T) {
	t.Run("repeater", func(t *testing.T) {
		tree := New()
		leaf := forever()
		leafID := tree.Action("spin", leaf)
		root := tree.Repeater("loop", 3, leafID)

		require.NoError(t, tree.Start(context.Background(), root))
		tree.Step(context.Background())
		require.NoError(t, tree.Abort(leafID))

		assert.Equal(t, StatusAborted, tree.Status(leafID))
		assert.Equal(t, StatusAborted, mustRun(t, tree))
		assert.Equal(t, 1, leaf.inits)
		assert.Equal(t, 1, leaf.aborts)
		assert.Zero(t, tree.Behavior(root).(*Repeater).Loop())
		assert.Equal(t, 0, tree.Pending())
	})

	t.Run("decorator", func(t *testing.T) {
		tree := New()
		leaf := forever()
		leafID := tree.Action("spin", leaf)
		again := func(*DecoratorState, Status) Status { return StatusRunning }
		root := tree.Decorator("again", again, leafID)

		require.NoError(t, tree.Start(context.Background(), root))
		tree.Step(context.Background())
		require.NoError(t, tree.Abort(leafID))

		assert.Equal(t, StatusAborted, tree.Status(leafID))
		assert.Equal(t, StatusAborted, mustRun(t, tree))
		assert.Equal(t, 1, leaf.inits)
		assert.Equal(t, 0, tree.Pending())
	})
}

func TestRunCancelledContext(t *testing.T) {
	tree := New()
	leaf := forever()
	root := tree.Action("spin", leaf)
	require.NoError(t, tree.Start(context.Background(), root))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := tree.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusAborted, st)
	assert.Equal(t, 1, leaf.aborts)
}

func TestRunNilContext(t *testing.T) {
	tree := New()
	root := tree.Action("a", script(StatusRunning, StatusSuccess))
	var ctx context.Context
	require.NoError(t, tree.Start(ctx, root))

	st, err := tree.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)
}

func TestLeafContractViolations(t *testing.T) {
	for _, bad := range []Status{StatusInvalid, StatusAborted} {
		tree := New()
		root := tree.Action("bad", script(bad))
		require.NoError(t, tree.Start(context.Background(), root))
		requireViolation(t, func() { tree.Step(context.Background()) })
	}
}

func TestDecoratorFuncMustNotReturnInvalid(t *testing.T) {
	tree := New()
	broken := func(*DecoratorState, Status) Status { return StatusInvalid }
	root := tree.Decorator("broken", broken, tree.Action("a", succeed()))
	require.NoError(t, tree.Start(context.Background(), root))
	tree.Step(context.Background())
	requireViolation(t, func() { tree.Step(context.Background()) })
}

func TestBuilderRejectsSharedChild(t *testing.T) {
	tree := New()
	leaf := tree.Action("a", succeed())
	tree.Sequence("first", leaf)
	assert.PanicsWithError(t, `node already has a parent: "a" under "second"`, func() {
		tree.Sequence("second", leaf)
	})
}

func TestRejectedAddAttachesNothing(t *testing.T) {
	tree := New()
	shared := tree.Action("shared", succeed())
	tree.Sequence("owner", shared)
	free := tree.Action("free", succeed())

	assert.Panics(t, func() { tree.Sequence("greedy", free, shared) })
	assert.Panics(t, func() { tree.Sequence("twice", free, free) })

	root := tree.Sequence("seq", free)
	assert.Equal(t, StatusSuccess, runTree(t, tree, root))
}

func TestBuilderRejectsUnknownChild(t *testing.T) {
	tree := New()
	assert.Panics(t, func() { tree.Sequence("seq", 42) })
}

func TestBuilderRejectsInvalidPolicy(t *testing.T) {
	tree := New()
	assert.Panics(t, func() { tree.Parallel("par", ParallelPolicy(9), PolicyOne) })
}

func TestObserverSeesLifecycle(t *testing.T) {
	var events []Event
	tree := New(WithObserver(ObserverFunc(func(e Event) { events = append(events, e) })))
	a := tree.Action("a", succeed())
	root := tree.Sequence("seq", a)
	runTree(t, tree, root)

	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventActivate, EventActivate, EventComplete, EventComplete}, kinds)
	assert.Equal(t, "seq", events[0].Name)
	assert.Equal(t, NoNode, events[0].Parent)
	assert.Equal(t, root, events[1].Parent)
	assert.Equal(t, StatusSuccess, events[3].Status)
}

func TestTickContextCarriesBlackboard(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("target", "door")
	tree := New(WithBlackboard(bb))

	var seen string
	var node NodeID
	id := tree.Action("read", ActionFunc(func(tc *TickContext) Status {
		seen, _ = tc.BB.GetString("target")
		node = tc.Node
		tc.BB.Set("done", true)
		return StatusSuccess
	}))
	runTree(t, tree, id)

	assert.Equal(t, "door", seen)
	assert.Equal(t, id, node)
	done, _ := bb.GetBool("done")
	assert.True(t, done)
	assert.Same(t, bb, tree.Blackboard())
}

func TestLookup(t *testing.T) {
	tree := New()
	a := tree.Action("a", succeed())
	root := tree.Selector("root", a)

	id, ok := tree.Lookup("root")
	require.True(t, ok)
	assert.Equal(t, root, id)
	assert.Equal(t, KindSelector, tree.KindOf(id))
	assert.Equal(t, "a", tree.Name(a))
	_, ok = tree.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, tree.Len())
}

func TestReset(t *testing.T) {
	tree := New()
	root := tree.Action("spin", forever())
	require.NoError(t, tree.Start(context.Background(), root))
	tree.Reset()
	assert.Equal(t, StatusInvalid, tree.Status(root))
	assert.Equal(t, NoNode, tree.Root())
	assert.False(t, tree.Step(context.Background()))
}
