package loader

import (
	"fmt"
	"time"

	"github.com/zeusync/behave/internal/core/bt"
)

// RegisterBuiltins installs the leaves every host gets for free:
//
//	succeed                      Success on the first tick
//	fail                         Failure on the first tick
//	wait      ticks, result      Running for ticks ticks, then result
//	sleep     for, result        Running until the duration elapsed, then result
//	set       key, value         writes the blackboard and succeeds
//	increment key, by            adds by to an integer key and succeeds
//	is_true   key                Success if the blackboard holds true at key
//	is_set    key                Success if key is present
func RegisterBuiltins(r *Registry) {
	r.RegisterFunc("succeed", func(*bt.TickContext) bt.Status { return bt.StatusSuccess })
	r.RegisterFunc("fail", func(*bt.TickContext) bt.Status { return bt.StatusFailure })
	r.Register("wait", newWait)
	r.Register("sleep", newSleep)
	r.Register("set", newSet)
	r.Register("increment", newIncrement)
	r.Register("is_true", newIsTrue)
	r.Register("is_set", newIsSet)
}

type waitLeaf struct {
	ticks   int
	result  bt.Status
	elapsed int
}

func newWait(p Params) (bt.Leaf, error) {
	ticks, err := p.Int("ticks", 1)
	if err != nil {
		return nil, err
	}
	if ticks < 0 {
		return nil, fmt.Errorf("%w: ticks %d", ErrInvalidParam, ticks)
	}
	result, err := p.Status("result", bt.StatusSuccess)
	if err != nil {
		return nil, err
	}
	return &waitLeaf{ticks: ticks, result: result}, nil
}

func (w *waitLeaf) Initialize(*bt.TickContext) { w.elapsed = 0 }

func (w *waitLeaf) Tick(*bt.TickContext) bt.Status {
	if w.elapsed >= w.ticks {
		return w.result
	}
	w.elapsed++
	return bt.StatusRunning
}

type sleepLeaf struct {
	d        time.Duration
	result   bt.Status
	deadline time.Time
	now      func() time.Time
}

func newSleep(p Params) (bt.Leaf, error) {
	d, err := p.Duration("for", 0)
	if err != nil {
		return nil, err
	}
	result, err := p.Status("result", bt.StatusSuccess)
	if err != nil {
		return nil, err
	}
	return &sleepLeaf{d: d, result: result, now: time.Now}, nil
}

func (s *sleepLeaf) Initialize(*bt.TickContext) { s.deadline = s.now().Add(s.d) }

func (s *sleepLeaf) Tick(*bt.TickContext) bt.Status {
	if s.now().Before(s.deadline) {
		return bt.StatusRunning
	}
	return s.result
}

func newSet(p Params) (bt.Leaf, error) {
	key, err := p.RequireString("key")
	if err != nil {
		return nil, err
	}
	if !p.Has("value") {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidParam)
	}
	value := p["value"]
	return bt.ActionFunc(func(tc *bt.TickContext) bt.Status {
		tc.BB.Set(key, value)
		return bt.StatusSuccess
	}), nil
}

func newIncrement(p Params) (bt.Leaf, error) {
	key, err := p.RequireString("key")
	if err != nil {
		return nil, err
	}
	by, err := p.Int("by", 1)
	if err != nil {
		return nil, err
	}
	return bt.ActionFunc(func(tc *bt.TickContext) bt.Status {
		tc.BB.AddInt(key, by)
		return bt.StatusSuccess
	}), nil
}

func newIsTrue(p Params) (bt.Leaf, error) {
	key, err := p.RequireString("key")
	if err != nil {
		return nil, err
	}
	return bt.ConditionFunc(func(tc *bt.TickContext) bool {
		v, _ := tc.BB.GetBool(key)
		return v
	}), nil
}

func newIsSet(p Params) (bt.Leaf, error) {
	key, err := p.RequireString("key")
	if err != nil {
		return nil, err
	}
	return bt.ConditionFunc(func(tc *bt.TickContext) bool {
		return tc.BB.Has(key)
	}), nil
}
