package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus is the central event bus interface.
type Bus interface {
	// Publish delivers event to every matching subscription. Sync handlers
	// have finished when it returns; async handlers are queued.
	Publish(ctx context.Context, event any) error

	Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error)
	SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error)
	Unsubscribe(sub *Subscription) error

	Start() error
	Stop(ctx context.Context) error
	IsRunning() bool

	Stats() Stats
}

type asyncWork struct {
	ctx   context.Context
	event any
	sub   *Subscription
}

// bus is the default Bus implementation.
type bus struct {
	config busConfig

	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	// lifeMu guards running and queue against a concurrent Stop.
	lifeMu  sync.RWMutex
	running atomic.Bool
	queue   chan asyncWork
	workers sync.WaitGroup

	eventsPublished  atomic.Uint64
	eventsDelivered  atomic.Uint64
	eventsDropped    atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &bus{config: config}
}

// Start starts the async workers.
func (b *bus) Start() error {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()

	if b.running.Load() {
		return ErrBusAlreadyRunning
	}

	b.queue = make(chan asyncWork, b.config.asyncQueueSize)
	for i := 0; i < b.config.asyncWorkerCount; i++ {
		b.workers.Add(1)
		go b.worker(b.queue)
	}
	b.running.Store(true)
	return nil
}

// Stop stops the bus and waits for queued async work to drain or for ctx
// to be done.
func (b *bus) Stop(ctx context.Context) error {
	b.lifeMu.Lock()
	if !b.running.Load() {
		b.lifeMu.Unlock()
		return ErrBusNotRunning
	}
	b.running.Store(false)
	close(b.queue)
	b.lifeMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns true if the bus is running.
func (b *bus) IsRunning() bool {
	return b.running.Load()
}

// Publish implements Bus.
func (b *bus) Publish(ctx context.Context, ev any) error {
	if !b.running.Load() {
		return ErrBusNotRunning
	}

	t := topicOf(ev)
	if t == "" {
		return ErrInvalidEvent
	}

	subs := b.match(t)
	if len(subs) == 0 {
		return nil
	}
	b.eventsPublished.Add(1)

	for _, sub := range subs {
		if !sub.shouldDeliver(ev) {
			continue
		}
		if sub.config.Once {
			if !sub.cancel() {
				continue
			}
			b.remove(sub.id)
		}

		if sub.config.DeliveryMode == DeliveryAsync {
			if err := b.enqueue(asyncWork{ctx: context.WithoutCancel(ctx), event: ev, sub: sub}); err != nil {
				b.eventsDropped.Add(1)
				if b.config.dropHandler != nil {
					b.config.dropHandler(ev, sub)
				}
			}
			continue
		}
		b.execute(ctx, ev, sub)
	}
	return nil
}

// Subscribe registers handler for pattern.
func (b *bus) Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub := newSubscription(uuid.NewString(), pattern, handler, b.seq, opts...)
	b.subs = append(b.subs, sub)
	sort.SliceStable(b.subs, func(i, j int) bool {
		if b.subs[i].config.Priority != b.subs[j].config.Priority {
			return b.subs[i].config.Priority < b.subs[j].config.Priority
		}
		return b.subs[i].seq < b.subs[j].seq
	})
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *bus) SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription.
func (b *bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.cancel()
	if !b.remove(sub.id) {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	b.lifeMu.RLock()
	depth := len(b.queue)
	b.lifeMu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsDelivered:   b.eventsDelivered.Load(),
		EventsDropped:     b.eventsDropped.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
		QueueDepth:        depth,
	}
}

func (b *bus) match(t Topic) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*Subscription
	for _, sub := range b.subs {
		if t.Matches(sub.pattern) {
			out = append(out, sub)
		}
	}
	return out
}

func (b *bus) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (b *bus) enqueue(w asyncWork) error {
	b.lifeMu.RLock()
	defer b.lifeMu.RUnlock()

	if !b.running.Load() {
		return ErrBusNotRunning
	}
	select {
	case b.queue <- w:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *bus) worker(queue <-chan asyncWork) {
	defer b.workers.Done()
	for w := range queue {
		ctx, cancel := context.WithTimeout(w.ctx, b.config.asyncTimeout)
		b.execute(ctx, w.event, w.sub)
		cancel()
	}
}

// execute runs one handler, recovering panics.
func (b *bus) execute(ctx context.Context, ev any, sub *Subscription) {
	b.handlersExecuted.Add(1)

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			if b.config.panicHandler != nil {
				b.config.panicHandler(ev, sub, r, debug.Stack())
			}
		}
	}()

	if err := sub.handler.Handle(ctx, ev); err != nil {
		b.handlerErrors.Add(1)
		if b.config.errorHandler != nil {
			b.config.errorHandler(ev, &HandlerError{
				SubscriptionID: sub.id,
				Topic:          sub.pattern,
				Err:            err,
			})
		}
		return
	}
	b.eventsDelivered.Add(1)
}
