// Package schedule provides cancellable scheduled actions.
//
// A Scheduler runs a function once after a delay and hands back a Timer that
// can cancel it. TimerScheduler is backed by the runtime timers; Manual is a
// virtual clock that only fires when the test advances it.
package schedule

import "time"

// Timer is a handle to a pending scheduled action.
type Timer interface {
	// Stop cancels the action. It returns false if the action already
	// ran or was already stopped.
	Stop() bool
}

// Scheduler schedules a function to run once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// TimerScheduler schedules actions with time.AfterFunc.
// Callbacks run on their own goroutine.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Default is the wall-clock scheduler.
var Default Scheduler = TimerScheduler{}
