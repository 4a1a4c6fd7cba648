package loader

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/core/bt"
)

func newTickContext() *bt.TickContext {
	return &bt.TickContext{BB: bt.NewBlackboard(), Node: bt.NoNode}
}

func TestWaitLeaf(t *testing.T) {
	reg := NewDefaultRegistry()
	leaf, err := reg.New("wait", Params{"ticks": 2, "result": "failure"})
	require.NoError(t, err)

	tc := newTickContext()
	initer, ok := leaf.(bt.Initializer)
	require.True(t, ok)
	initer.Initialize(tc)

	assert.Equal(t, bt.StatusRunning, leaf.Tick(tc))
	assert.Equal(t, bt.StatusRunning, leaf.Tick(tc))
	assert.Equal(t, bt.StatusFailure, leaf.Tick(tc))

	initer.Initialize(tc)
	assert.Equal(t, bt.StatusRunning, leaf.Tick(tc), "initialize rewinds the counter")

	_, err = reg.New("wait", Params{"result": "running"})
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = reg.New("wait", Params{"ticks": -1})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestSleepLeaf(t *testing.T) {
	leaf, err := newSleep(Params{"for": "1s"})
	require.NoError(t, err)
	s := leaf.(*sleepLeaf)

	now := time.Unix(100, 0)
	s.now = func() time.Time { return now }
	tc := newTickContext()
	s.Initialize(tc)

	assert.Equal(t, bt.StatusRunning, s.Tick(tc))
	now = now.Add(time.Second)
	assert.Equal(t, bt.StatusSuccess, s.Tick(tc))

	_, err = newSleep(Params{"for": "soon"})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestBlackboardLeaves(t *testing.T) {
	reg := NewDefaultRegistry()
	tc := newTickContext()

	isSet, err := reg.New("is_set", Params{"key": "door"})
	require.NoError(t, err)
	isTrue, err := reg.New("is_true", Params{"key": "door"})
	require.NoError(t, err)
	set, err := reg.New("set", Params{"key": "door", "value": true})
	require.NoError(t, err)
	inc, err := reg.New("increment", Params{"key": "opened", "by": 2})
	require.NoError(t, err)

	assert.Equal(t, bt.StatusFailure, isSet.Tick(tc))
	assert.Equal(t, bt.StatusSuccess, set.Tick(tc))
	assert.Equal(t, bt.StatusSuccess, isSet.Tick(tc))
	assert.Equal(t, bt.StatusSuccess, isTrue.Tick(tc))

	inc.Tick(tc)
	inc.Tick(tc)
	opened, _ := tc.BB.GetInt("opened")
	assert.Equal(t, 4, opened)

	_, err = reg.New("set", Params{"key": "door"})
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = reg.New("set", Params{"key": 3, "value": 1})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Names())

	reg.RegisterCondition("always", func(*bt.TickContext) bool { return true })
	reg.RegisterFunc("noop", func(*bt.TickContext) bt.Status { return bt.StatusSuccess })
	assert.Equal(t, []string{"always", "noop"}, reg.Names())
	assert.True(t, reg.Has("noop"))

	leaf, err := reg.New("always", nil)
	require.NoError(t, err)
	assert.Equal(t, bt.StatusSuccess, leaf.Tick(newTickContext()))

	_, err = reg.New("succeed", nil)
	assert.ErrorIs(t, err, ErrUnknownLeaf)
}

func TestParamsInt(t *testing.T) {
	p := Params{"yaml": 3, "json": float64(4), "frac": 1.5, "text": "5"}

	n, err := p.Int("yaml", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = p.Int("json", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = p.Int("absent", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = p.Int("frac", 0)
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = p.Int("text", 0)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestIncrementOnSharedBlackboard(t *testing.T) {
	def, err := LoadYAML(strings.NewReader(`
root: loop
nodes:
  loop:
    type: repeater
    times: 2000
    child: bump
  bump:
    type: action
    action: increment
    params:
      key: hits
`))
	require.NoError(t, err)

	const trees = 4
	bb := bt.NewBlackboard()
	reg := NewDefaultRegistry()
	statuses := make([]bt.Status, trees)
	errs := make([]error, trees)

	var wg sync.WaitGroup
	for i := range trees {
		tree, root, err := Build(def, reg, bt.WithBlackboard(bb))
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errs[i] = tree.Start(context.Background(), root); errs[i] != nil {
				return
			}
			statuses[i], errs[i] = tree.Run(context.Background())
		}()
	}
	wg.Wait()

	for i := range trees {
		require.NoError(t, errs[i])
		assert.Equal(t, bt.StatusSuccess, statuses[i])
	}
	hits, _ := bb.GetInt("hits")
	assert.Equal(t, trees*2000, hits)
}
