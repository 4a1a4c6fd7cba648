package bt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptLeaf replays results; the last one repeats forever.
type scriptLeaf struct {
	results []Status
	calls   int
	inits   int
	terms   []Status
	aborts  int
}

func script(results ...Status) *scriptLeaf {
	return &scriptLeaf{results: results}
}

func (l *scriptLeaf) Tick(*TickContext) Status {
	i := l.calls
	if i >= len(l.results) {
		i = len(l.results) - 1
	}
	l.calls++
	return l.results[i]
}

func (l *scriptLeaf) Initialize(*TickContext) { l.inits++ }
func (l *scriptLeaf) Terminate(result Status) { l.terms = append(l.terms, result) }
func (l *scriptLeaf) Abort()                  { l.aborts++ }

func succeed() *scriptLeaf { return script(StatusSuccess) }
func fail() *scriptLeaf    { return script(StatusFailure) }
func forever() *scriptLeaf { return script(StatusRunning) }

func runTree(t *testing.T, tree *Tree, root NodeID) Status {
	t.Helper()
	require.NoError(t, tree.Start(context.Background(), root))
	st, err := tree.Run(context.Background())
	require.NoError(t, err)
	return st
}

func requireViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a contract violation panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, ErrContractViolation)
	}()
	fn()
}
