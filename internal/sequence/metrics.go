package sequence

import (
	"sync/atomic"
	"time"
)

// Metrics counts matcher outcomes. A single Metrics may be shared by
// several matchers. All methods are safe on a nil receiver.
type Metrics struct {
	observed   atomic.Uint64
	matches    atomic.Uint64
	overflows  atomic.Uint64
	mismatches atomic.Uint64
	timeouts   atomic.Uint64
	ignored    atomic.Uint64

	lastMatch atomic.Int64
	startTime atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.startTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) recordObserved() {
	if m != nil {
		m.observed.Add(1)
	}
}

func (m *Metrics) recordMatch() {
	if m != nil {
		m.matches.Add(1)
		m.lastMatch.Store(time.Now().UnixNano())
	}
}

func (m *Metrics) recordOverflow() {
	if m != nil {
		m.overflows.Add(1)
	}
}

func (m *Metrics) recordMismatch() {
	if m != nil {
		m.mismatches.Add(1)
	}
}

func (m *Metrics) recordTimeout() {
	if m != nil {
		m.timeouts.Add(1)
	}
}

func (m *Metrics) recordIgnored() {
	if m != nil {
		m.ignored.Add(1)
	}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Observed   uint64
	Matches    uint64
	Overflows  uint64
	Mismatches uint64
	Timeouts   uint64
	Ignored    uint64

	// LastMatch is zero when nothing matched yet.
	LastMatch time.Time
	Uptime    time.Duration
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}

	s := MetricsSnapshot{
		Observed:   m.observed.Load(),
		Matches:    m.matches.Load(),
		Overflows:  m.overflows.Load(),
		Mismatches: m.mismatches.Load(),
		Timeouts:   m.timeouts.Load(),
		Ignored:    m.ignored.Load(),
		Uptime:     time.Since(time.Unix(0, m.startTime.Load())),
	}
	if ns := m.lastMatch.Load(); ns != 0 {
		s.LastMatch = time.Unix(0, ns)
	}
	return s
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.observed.Store(0)
	m.matches.Store(0)
	m.overflows.Store(0)
	m.mismatches.Store(0)
	m.timeouts.Store(0)
	m.ignored.Store(0)
	m.lastMatch.Store(0)
	m.startTime.Store(time.Now().UnixNano())
}
