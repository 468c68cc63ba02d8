package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestManualFiresAtDeadline(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired int

	m.AfterFunc(100*time.Millisecond, func() { fired++ })

	m.Advance(99 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}

	m.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected 1 fire at deadline, got %d", fired)
	}

	m.Advance(time.Second)
	if fired != 1 {
		t.Errorf("action fired more than once: %d", fired)
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired bool

	timer := m.AfterFunc(10*time.Millisecond, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("Stop on pending timer should return true")
	}
	if timer.Stop() {
		t.Error("second Stop should return false")
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}

	m.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestManualStopAfterFire(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	timer := m.AfterFunc(time.Millisecond, func() {})
	m.Advance(time.Millisecond)

	if timer.Stop() {
		t.Error("Stop after fire should return false")
	}
}

func TestManualOrdering(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string

	m.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(time.Second)

	if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestManualNestedSchedule(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var at []time.Duration
	start := m.Now()

	m.AfterFunc(10*time.Millisecond, func() {
		at = append(at, m.Now().Sub(start))
		m.AfterFunc(10*time.Millisecond, func() {
			at = append(at, m.Now().Sub(start))
		})
	})

	m.Advance(25 * time.Millisecond)

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if diff := cmp.Diff(want, at); diff != "" {
		t.Errorf("fire times mismatch (-want +got):\n%s", diff)
	}
	if got := m.Now().Sub(start); got != 25*time.Millisecond {
		t.Errorf("Now advanced by %v, want 25ms", got)
	}
}

func TestTimerScheduler(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})

	Default.AfterFunc(5*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if !fired.Load() {
		t.Error("expected fired")
	}

	stopped := Default.AfterFunc(time.Hour, func() {})
	if !stopped.Stop() {
		t.Error("Stop on pending runtime timer should return true")
	}
}
