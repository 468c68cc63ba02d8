// Package source provides key-code input sources for sequence matchers.
//
// Every source delivers codes one at a time, in arrival order, to all of its
// subscribers:
//
//   - Feed: in-process source driven by Press; the base of the others
//   - Reader: reads whitespace separated key specs from an io.Reader
//   - Terminal: reads key presses from a tcell screen
package source

import (
	"sync"

	"github.com/dshills/secretcode/internal/input/key"
)

type subscriber struct {
	id      uint64
	observe func(key.Code)
}

// Feed fans key codes out to subscribers.
//
// Deliveries are serialized, so an observer never runs concurrently with
// itself. Observers may unsubscribe, or subscribe others, from inside a
// delivery; the change takes effect with the next code.
type Feed struct {
	mu        sync.Mutex
	observers []subscriber
	nextID    uint64

	// deliverMu serializes deliveries without holding mu.
	deliverMu sync.Mutex
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Subscribe registers observe and returns a function that removes it.
// The returned function is idempotent.
func (f *Feed) Subscribe(observe func(key.Code)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.observers = append(f.observers, subscriber{id: id, observe: observe})

	return func() {
		f.unsubscribe(id)
	}
}

func (f *Feed) unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.observers {
		if s.id == id {
			f.observers = append(f.observers[:i:i], f.observers[i+1:]...)
			return
		}
	}
}

// Press delivers codes to all subscribers in order.
func (f *Feed) Press(codes ...key.Code) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	for _, code := range codes {
		for _, s := range f.snapshot() {
			s.observe(code)
		}
	}
}

// PressEvent delivers the code of ev. Events without a code are dropped
// and reported as false.
func (f *Feed) PressEvent(ev key.Event) bool {
	code := ev.Code()
	if code == key.CodeNone {
		return false
	}
	f.Press(code)
	return true
}

// Count returns the number of subscribers.
func (f *Feed) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}

func (f *Feed) snapshot() []subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]subscriber, len(f.observers))
	copy(out, f.observers)
	return out
}
