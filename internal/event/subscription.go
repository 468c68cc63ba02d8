package event

import "sync/atomic"

// SubscriptionConfig holds subscription options.
type SubscriptionConfig struct {
	Priority     Priority
	DeliveryMode DeliveryMode
	Filter       FilterFunc
	// Once removes the subscription when it receives its first event.
	Once bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithDeliveryMode sets sync or async delivery.
func WithDeliveryMode(m DeliveryMode) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.DeliveryMode = m
	}
}

// WithFilter restricts delivery to events accepted by fn.
func WithFilter(fn FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = fn
	}
}

// WithOnce makes the subscription one-shot.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// Subscription is a handler registered for a topic pattern.
type Subscription struct {
	id      string
	pattern Topic
	handler Handler
	config  SubscriptionConfig
	seq     uint64
	active  atomic.Bool
}

func newSubscription(id string, pattern Topic, h Handler, seq uint64, opts ...SubscriptionOption) *Subscription {
	cfg := SubscriptionConfig{
		Priority:     PriorityNormal,
		DeliveryMode: DeliverySync,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Subscription{
		id:      id,
		pattern: pattern,
		handler: h,
		config:  cfg,
		seq:     seq,
	}
	s.active.Store(true)
	return s
}

// ID returns the subscription ID.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() Topic { return s.pattern }

// Config returns the subscription options.
func (s *Subscription) Config() SubscriptionConfig { return s.config }

// IsActive reports whether the subscription still receives events.
func (s *Subscription) IsActive() bool { return s.active.Load() }

// cancel deactivates the subscription and reports whether it was active.
func (s *Subscription) cancel() bool {
	return s.active.Swap(false)
}

func (s *Subscription) shouldDeliver(ev any) bool {
	if !s.active.Load() {
		return false
	}
	return s.config.Filter == nil || s.config.Filter(ev)
}
