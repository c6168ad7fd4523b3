package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus the simulation mirrors its
// frame events onto (drops, collisions, contact transitions).
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type().
// - Optional topics: handlers can subscribe within a topic for isolation.
// - Synchronous delivery in subscription order, in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
//
// Filters are evaluated before delivery. If any filter rejects an event, it is
// dropped without error. The default topic is "".
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type() in
	// the default topic.
	Publish(event Event) error
	// Subscribe registers a handler for an event type in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is a no-op.
	Unsubscribe(Subscription) error

	PublishWithFilters(event Event, filters ...EventFilter) error

	// CreateTopic declares a topic. Repeat declarations are idempotent.
	CreateTopic(name string, config TopicConfig) error
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	PublishToTopic(topic string, event Event) error

	// PublishBatch publishes events in order and joins every handler error.
	PublishBatch(events ...Event) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of counters. Counters only move while at
	// least one observer is registered.
	GetMetrics() EventBusMetrics
	// GetTopics returns topics sorted by name.
	GetTopics() []TopicInfo
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	// Frame is the simulation frame the event was produced in.
	Frame() uint64
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// TopicConfig describes topic-level settings.
type TopicConfig struct {
	// Description is shown by the inspector's topic listing.
	Description string
}

// EventBusObserver is notified about deliveries and errors. Observers should
// return quickly.
type EventBusObserver interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	EventTypes  int    `json:"event_types"`
	Subs        int    `json:"subscribers"`
}
