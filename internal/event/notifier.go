package event

import (
	"context"
	"time"
)

// DefaultMatchPrefix is the topic prefix for match notifications.
const DefaultMatchPrefix Topic = "code"

// Match is the payload published when a secret code is recognized.
type Match struct {
	// ID is the notification identifier of the matcher.
	ID string
	// At is when the final key arrived.
	At time.Time
}

// MatchTopic returns the topic a match for id is published on.
func MatchTopic(prefix Topic, id string) Topic {
	return prefix.Child(id)
}

// Notifier publishes match notifications on a bus. It satisfies the
// notifier interface of sequence matchers.
type Notifier struct {
	bus     Bus
	prefix  Topic
	source  string
	now     func() time.Time
	onError func(id string, err error)
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithPrefix sets the topic prefix. The default is DefaultMatchPrefix.
func WithPrefix(prefix Topic) NotifierOption {
	return func(n *Notifier) {
		n.prefix = prefix
	}
}

// WithSource sets the Metadata.Source of published envelopes.
func WithSource(source string) NotifierOption {
	return func(n *Notifier) {
		n.source = source
	}
}

// WithClock overrides the time stamped on matches.
func WithClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) {
		n.now = now
	}
}

// WithPublishErrorHandler sets the callback for failed publishes.
func WithPublishErrorHandler(fn func(id string, err error)) NotifierOption {
	return func(n *Notifier) {
		n.onError = fn
	}
}

// NewNotifier creates a notifier publishing on bus.
func NewNotifier(bus Bus, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		bus:    bus,
		prefix: DefaultMatchPrefix,
		source: "sequence",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify publishes a Match for id. Sync handlers have run when it returns.
func (n *Notifier) Notify(id string) {
	env := NewEnvelope(MatchTopic(n.prefix, id), Match{ID: id, At: n.now()}, n.source)
	if err := n.bus.Publish(context.Background(), env); err != nil && n.onError != nil {
		n.onError(id, err)
	}
}
