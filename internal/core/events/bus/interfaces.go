package bus

import "time"

// Wildcards accepted by SubscribeTopic.
const (
	// AnyType subscribes to every event type of a topic.
	AnyType = "*"
	// AllTopics subscribes across every topic, the default one included.
	AllTopics = "*"
)

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() or AnyType.
// - Topics scope delivery; the default topic is "". Runners publish on a topic per run.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish.
//
// Handlers should be quick or offload heavy work, since they run on the publisher's goroutine.
type EventBus interface {
	// Publish delivers the event to the default topic.
	Publish(event Event) error
	// PublishToTopic delivers the event to subscribers of topic and to AllTopics subscribers.
	PublishToTopic(topic string, event Event) error
	// Subscribe registers a handler for eventType in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeTopic registers a handler for eventType within topic. Either may be a wildcard.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	// Topics returns a snapshot of the topics with at least one subscription.
	Topics() []TopicInfo
	// Metrics returns a snapshot of the delivery counters.
	Metrics() Metrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel stops delivery; it is safe to
// call more than once.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	Cancel() error
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
