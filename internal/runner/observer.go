package runner

import (
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// Metadata keys attached to every published node event.
const (
	MetaTree  = "tree"
	MetaRunID = "run_id"
)

// EventType is the bus routing key for a node lifecycle transition.
func EventType(kind bt.EventKind) string { return "node." + kind.String() }

// BusObserver publishes node events on the bus topic of its tree. The
// payload is the bt.Event itself.
type BusObserver struct {
	bus    bus.EventBus
	tree   string
	runID  string
	logger log.Log
}

func NewBusObserver(b bus.EventBus, tree string, logger log.Log) *BusObserver {
	return &BusObserver{bus: b, tree: tree, logger: logger}
}

// SetRun tags subsequent events with runID.
func (o *BusObserver) SetRun(runID string) { o.runID = runID }

func (o *BusObserver) Observe(e bt.Event) {
	event := bus.NewEvent(EventType(e.Kind), o.tree, e, map[string]any{
		MetaTree:  o.tree,
		MetaRunID: o.runID,
	})
	if err := o.bus.PublishToTopic(o.tree, event); err != nil {
		o.logger.Warn("node event handler failed",
			log.String("tree", o.tree),
			log.String("event", event.Type()),
			log.Error(err),
		)
	}
}
