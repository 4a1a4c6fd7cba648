package runner

import (
	"context"
	"errors"

	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/pkg/concurrent"
)

// Fleet runs independent runners side by side, each on its own goroutine.
type Fleet struct {
	runners []*Runner
	workers int
	logger  log.Log
}

// NewFleet returns a fleet running at most workers trees at once; 0 is
// unbounded.
func NewFleet(workers int, logger log.Log, runners ...*Runner) *Fleet {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Fleet{runners: runners, workers: workers, logger: logger}
}

func (f *Fleet) Add(r *Runner) { f.runners = append(f.runners, r) }

func (f *Fleet) Len() int { return len(f.runners) }

// Run blocks until every runner returned. Results keep the order runners
// were added in; the error joins the errors of the runners that failed.
// A failing runner does not stop the others.
func (f *Fleet) Run(ctx context.Context) ([]Result, error) {
	f.logger.Info("fleet started", log.Int("trees", len(f.runners)), log.Int("workers", f.workers))

	results, err := concurrent.Map(ctx, f.runners, f.workers, func(ctx context.Context, r *Runner) (Result, error) {
		res, _ := r.Run(ctx)
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	var errs []error
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			errs = append(errs, res.Err)
		}
	}
	f.logger.Info("fleet finished", log.Int("trees", len(results)), log.Int("failed", failed))
	return results, errors.Join(errs...)
}
