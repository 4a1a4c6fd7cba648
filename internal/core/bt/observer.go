package bt

import (
	"fmt"

	"github.com/zeusync/behave/internal/core/observability/log"
)

// EventKind identifies a node lifecycle transition.
type EventKind uint8

const (
	EventActivate EventKind = iota
	EventComplete
	EventAbort
	// EventDrop is emitted when the scheduler discards an aborted or stale
	// queue entry, or a completion addressed to an aborted parent.
	EventDrop
)

func (k EventKind) String() string {
	switch k {
	case EventActivate:
		return "activate"
	case EventComplete:
		return "complete"
	case EventAbort:
		return "abort"
	case EventDrop:
		return "drop"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(text []byte) error {
	for _, kind := range []EventKind{EventActivate, EventComplete, EventAbort, EventDrop} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event describes one lifecycle transition of a node.
type Event struct {
	Kind     EventKind `json:"event"`
	Node     NodeID    `json:"node"`
	Name     string    `json:"name"`
	NodeKind Kind      `json:"-"`
	Parent   NodeID    `json:"parent"`
	Status   Status    `json:"status"`
	Step     uint64    `json:"step"`
}

// Observer receives lifecycle events synchronously from the scheduler.
// Implementations must not call back into the Tree.
type Observer interface {
	Observe(e Event)
}

type ObserverFunc func(e Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to every member in order.
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		obs.Observe(e)
	}
}

// LogObserver writes every event as a debug record.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) Observe(e Event) {
	l.logger.Debug("node "+e.Kind.String(),
		log.Int("node", int(e.Node)),
		log.String("name", e.Name),
		log.Stringer("kind", e.NodeKind),
		log.Int("parent", int(e.Parent)),
		log.Stringer("status", e.Status),
		log.Uint64("step", e.Step),
	)
}
