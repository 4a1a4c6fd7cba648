package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/bt/loader"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
)

var ErrTickBudgetExceeded = errors.New("tick budget exceeded")

// Result summarizes what a Runner did.
type Result struct {
	Tree   string
	RunID  string
	Status bt.Status
	// Ticks of the last run.
	Ticks int
	// Runs counts started runs, restarts included.
	Runs  int
	Stats bt.Stats
	Err   error
}

type Option func(*options)

type options struct {
	logger log.Log
	bus    bus.EventBus
	bb     *bt.Blackboard
}

func WithLogger(logger log.Log) Option {
	return func(o *options) { o.logger = logger }
}

// WithBus publishes every node event of the tree on the bus.
func WithBus(b bus.EventBus) Option {
	return func(o *options) { o.bus = b }
}

func WithBlackboard(bb *bt.Blackboard) Option {
	return func(o *options) { o.bb = bb }
}

// Runner drives one tree by ticks. A Runner and its tree belong to the
// goroutine calling Run.
type Runner struct {
	name        string
	fingerprint string
	tree        *bt.Tree
	root        bt.NodeID
	cfg         config.Runner
	logger      log.Log
	events      *BusObserver
}

// New builds the tree described by def and wraps it in a Runner.
func New(def *loader.Definition, reg *loader.Registry, cfg config.Runner, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	name := def.Name
	if name == "" {
		name = def.Root
	}
	logger := o.logger.With(log.String("tree", name))

	observers := bt.Observers{bt.NewLogObserver(logger)}
	var events *BusObserver
	if o.bus != nil {
		events = NewBusObserver(o.bus, name, logger)
		observers = append(observers, events)
	}
	treeOpts := []bt.Option{bt.WithObserver(observers)}
	if o.bb != nil {
		treeOpts = append(treeOpts, bt.WithBlackboard(o.bb))
	}

	tree, root, err := loader.Build(def, reg, treeOpts...)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", name, err)
	}
	return &Runner{
		name:        name,
		fingerprint: def.FingerprintHex(),
		tree:        tree,
		root:        root,
		cfg:         cfg,
		logger:      logger,
		events:      events,
	}, nil
}

func (r *Runner) Name() string { return r.name }

func (r *Runner) Tree() *bt.Tree { return r.tree }

func (r *Runner) Blackboard() *bt.Blackboard { return r.tree.Blackboard() }

// Run executes the tree until it completes, restarting it while the config
// asks to loop. The error is non-nil when ctx is cancelled or a run exceeds
// max_ticks; the result is filled in either way.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{Tree: r.name}
	for {
		res.RunID = uuid.NewString()
		res.Runs++
		if r.events != nil {
			r.events.SetRun(res.RunID)
		}
		runLog := r.logger.With(log.String("run_id", res.RunID))
		runLog.Info("tree started", log.String("fingerprint", r.fingerprint), log.Int("run", res.Runs))

		if err := r.tree.Start(ctx, r.root); err != nil {
			res.Err = err
			return res, err
		}
		st, ticks, err := r.runOnce(ctx)
		res.Status, res.Ticks, res.Stats = st, ticks, r.tree.Stats()

		if err != nil {
			runLog.Warn("tree stopped",
				log.String("status", st.String()),
				log.Int("ticks", ticks),
				log.Error(err),
			)
			res.Err = err
			return res, err
		}
		runLog.Info("tree finished", log.String("status", st.String()), log.Int("ticks", ticks))

		if !r.cfg.Loop || (r.cfg.Restarts > 0 && res.Runs > r.cfg.Restarts) {
			return res, nil
		}
		runLog.Debug("tree restarting")
	}
}

func (r *Runner) runOnce(ctx context.Context) (bt.Status, int, error) {
	var tick <-chan time.Time
	if r.cfg.TickInterval > 0 {
		ticker := time.NewTicker(r.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	ticks := 0
	for {
		if err := ctx.Err(); err != nil {
			return r.stop(), ticks, err
		}
		ticks++
		if r.tick(ctx) {
			return r.tree.Status(r.root), ticks, nil
		}
		if r.cfg.MaxTicks > 0 && ticks >= r.cfg.MaxTicks {
			return r.stop(), ticks, fmt.Errorf("%w: %d ticks", ErrTickBudgetExceeded, ticks)
		}
		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
		case <-tick:
		}
	}
}

// tick runs one slice of the scheduler and reports whether the queue drained.
func (r *Runner) tick(ctx context.Context) bool {
	budget := r.cfg.StepsPerTick
	if budget == 0 {
		budget = r.tree.Pending()
	}
	for i := 0; i < budget; i++ {
		if !r.tree.Step(ctx) {
			break
		}
	}
	return r.tree.Pending() == 0
}

func (r *Runner) stop() bt.Status {
	_ = r.tree.Abort(r.root)
	for r.tree.Step(context.Background()) {
	}
	return r.tree.Status(r.root)
}
