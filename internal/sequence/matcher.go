package sequence

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/schedule"
)

// Source delivers key codes to a subscribed observer, one at a time and in
// arrival order. The returned function removes the subscription.
type Source interface {
	Subscribe(observe func(key.Code)) (unsubscribe func())
}

// Notifier receives the success notification of a matcher.
type Notifier interface {
	Notify(id string)
}

// NotifyFunc adapts a function to the Notifier interface.
type NotifyFunc func(id string)

// Notify calls f(id).
func (f NotifyFunc) Notify(id string) {
	f(id)
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithScheduler sets the scheduler used for the idle deadline.
func WithScheduler(s schedule.Scheduler) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithMetrics sets the metrics tracker updated by the matcher.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Matcher) {
		m.metrics = metrics
	}
}

// Matcher recognizes one target sequence in a stream of key codes.
type Matcher struct {
	mu sync.Mutex

	// Immutable after New
	target    []key.Code
	targetStr string
	id        string
	timeout   time.Duration
	notifier  Notifier
	scheduler schedule.Scheduler
	metrics   *Metrics

	// Rolling input buffer, never longer than target after Observe returns
	buffer []key.Code

	// Pending idle deadline. gen invalidates deadlines that fire after
	// being superseded.
	deadline schedule.Timer
	gen      uint64

	unsubscribe func()
	released    bool
}

// New creates a matcher and subscribes it to src. The matcher is active
// immediately and stays active until Release.
func New(cfg Config, src Source, n Notifier, opts ...Option) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if n == nil {
		return nil, ErrNilNotifier
	}

	m := &Matcher{
		target:    slices.Clone(cfg.Target),
		targetStr: joinCodes(cfg.Target),
		id:        cfg.ResolvedID(),
		timeout:   cfg.IdleTimeout,
		notifier:  n,
		scheduler: schedule.Default,
		buffer:    make([]key.Code, 0, len(cfg.Target)+1),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.unsubscribe = src.Subscribe(m.Observe)
	return m, nil
}

// Observe processes one key code.
// Calls after Release are ignored.
func (m *Matcher) Observe(code key.Code) {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		m.metrics.recordIgnored()
		return
	}
	m.metrics.recordObserved()

	m.buffer = append(m.buffer, code)
	m.stopDeadline()

	if len(m.buffer) > len(m.target) {
		m.clearBuffer()
		m.mu.Unlock()
		m.metrics.recordOverflow()
		return
	}

	if !strings.Contains(m.targetStr, joinCodes(m.buffer)) {
		m.clearBuffer()
		m.mu.Unlock()
		m.metrics.recordMismatch()
		return
	}

	if slices.Equal(m.buffer, m.target) {
		m.clearBuffer()
		id, n := m.id, m.notifier
		m.mu.Unlock()
		m.metrics.recordMatch()
		n.Notify(id)
		return
	}

	m.startDeadline()
	m.mu.Unlock()
}

// Release stops observing input and cancels the pending deadline.
// It is safe to call more than once and from inside the Notifier.
func (m *Matcher) Release() {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return
	}
	m.released = true
	m.stopDeadline()
	m.clearBuffer()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// NotificationID returns the resolved notification ID.
func (m *Matcher) NotificationID() string {
	return m.id
}

// Target returns a copy of the target sequence.
func (m *Matcher) Target() []key.Code {
	return slices.Clone(m.target)
}

// IdleTimeout returns the idle timeout.
func (m *Matcher) IdleTimeout() time.Duration {
	return m.timeout
}

// Buffer returns a copy of the current input buffer.
func (m *Matcher) Buffer() []key.Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.buffer)
}

// IsReleased returns true after Release.
func (m *Matcher) IsReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// clearBuffer empties the buffer. Callers must hold m.mu.
func (m *Matcher) clearBuffer() {
	m.buffer = m.buffer[:0]
}

// startDeadline schedules the idle reset. Callers must hold m.mu.
func (m *Matcher) startDeadline() {
	m.gen++
	gen := m.gen
	m.deadline = m.scheduler.AfterFunc(m.timeout, func() {
		m.expire(gen)
	})
}

// stopDeadline cancels the pending idle reset. Callers must hold m.mu.
func (m *Matcher) stopDeadline() {
	m.gen++
	if m.deadline != nil {
		m.deadline.Stop()
		m.deadline = nil
	}
}

// expire clears the buffer when deadline gen is still the current one.
func (m *Matcher) expire(gen uint64) {
	m.mu.Lock()
	if m.released || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.deadline = nil
	m.clearBuffer()
	m.mu.Unlock()

	m.metrics.recordTimeout()
}

// joinCodes concatenates the decimal codes with no separator.
func joinCodes(codes []key.Code) string {
	var sb strings.Builder
	for _, c := range codes {
		sb.WriteString(strconv.Itoa(int(c)))
	}
	return sb.String()
}
