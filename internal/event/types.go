package event

import "context"

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for handlers that must observe an event first.
	PriorityCritical Priority = 0

	// PriorityHigh is for logging of matches.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for bookkeeping such as releasing one-shot codes.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// DeliveryMode specifies how events are delivered to handlers.
type DeliveryMode int

const (
	// DeliverySync runs the handler in the publisher's goroutine.
	DeliverySync DeliveryMode = iota

	// DeliveryAsync queues the event for a worker.
	DeliveryAsync
)

// String returns a human-readable delivery mode name.
func (m DeliveryMode) String() string {
	switch m {
	case DeliverySync:
		return "sync"
	case DeliveryAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event. The event is type-erased; handlers
	// type-assert to what they expect.
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// FilterFunc is a predicate for filtering events.
// Return true to allow the event.
type FilterFunc func(event any) bool

// PanicHandler is called when a handler panics.
type PanicHandler func(event any, sub *Subscription, recovered any, stack []byte)

// DropHandler is called for an async delivery that was not queued because
// the queue was full or the bus was stopping. The handler never runs for it.
type DropHandler func(event any, sub *Subscription)

// ErrorHandler is called when a handler returns an error.
type ErrorHandler func(event any, err *HandlerError)

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the number of events that had at least one subscriber.
	EventsPublished uint64

	// EventsDelivered is the number of successful handler executions.
	EventsDelivered uint64

	// EventsDropped is the number of async deliveries lost to a full queue.
	EventsDropped uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// ActiveSubscribers is the current number of subscriptions.
	ActiveSubscribers int

	// QueueDepth is the current async queue depth.
	QueueDepth int
}
