package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/secretcode/internal/event"
	"github.com/dshills/secretcode/internal/sequence"
)

// Metrics tracks application-level counters. Matcher counters live in
// sequence.Metrics and bus counters in event.Stats.
type Metrics struct {
	matches      atomic.Uint64
	scriptRuns   atomic.Uint64
	scriptErrors atomic.Uint64
	reloads      atomic.Uint64
	reloadErrors atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) recordMatch() {
	m.matches.Add(1)
}

func (m *Metrics) recordScript(err error) {
	m.scriptRuns.Add(1)
	if err != nil {
		m.scriptErrors.Add(1)
	}
}

func (m *Metrics) recordReload() {
	m.reloads.Add(1)
}

func (m *Metrics) recordReloadError() {
	m.reloadErrors.Add(1)
}

// StatsSnapshot combines the counters of every layer.
type StatsSnapshot struct {
	// Matches counts match events delivered to code actions.
	Matches      uint64
	ScriptRuns   uint64
	ScriptErrors uint64
	Reloads      uint64
	ReloadErrors uint64
	Uptime       time.Duration

	// Sequence aggregates all matchers, so Observed counts one key once
	// per active code.
	Sequence sequence.MetricsSnapshot
	Bus      event.Stats
}

// Stats returns a snapshot of all counters.
func (app *Application) Stats() StatsSnapshot {
	return StatsSnapshot{
		Matches:      app.stats.matches.Load(),
		ScriptRuns:   app.stats.scriptRuns.Load(),
		ScriptErrors: app.stats.scriptErrors.Load(),
		Reloads:      app.stats.reloads.Load(),
		ReloadErrors: app.stats.reloadErrors.Load(),
		Uptime:       time.Since(app.stats.startTime),
		Sequence:     app.metrics.Snapshot(),
		Bus:          app.bus.Stats(),
	}
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
