// Package sequence recognizes a fixed key-code sequence in a stream of key
// presses.
//
// A Matcher keeps a short rolling buffer of the most recent key codes. Each
// observed code is appended to the buffer and the buffer is then checked
// against the target:
//
//   - longer than the target: the buffer is cleared (overflow)
//   - not found inside the target: the buffer is cleared (mismatch)
//   - equal to the target: the buffer is cleared and the Notifier is called
//   - otherwise: an idle deadline is (re)scheduled that clears the buffer
//     when no further input arrives in time
//
// # Compatibility Check
//
// The mismatch test is intentionally loose. The buffer's decimal codes are
// concatenated without a separator and looked up as a substring of the
// target's codes concatenated the same way. A buffer can therefore survive
// without being a real prefix of the target, for example [1] against
// [2,1,3], or [1,2] against [12,3]. Such buffers are flushed later by the
// overflow check or the idle deadline, and the exact match test always
// compares codes position by position, so they never produce a false match.
//
// # Basic Usage
//
//	cfg := sequence.DefaultConfig()
//	cfg.Target = []key.Code{38, 38, 40, 40, 37, 39, 37, 39, 66, 65}
//	cfg.NotificationID = "konami"
//
//	m, err := sequence.New(cfg, src, sequence.NotifyFunc(func(id string) {
//	    fmt.Println("matched", id)
//	}))
//	if err != nil {
//	    return err
//	}
//	defer m.Release()
//
// # Thread Safety
//
// Observe expects its callers to deliver codes one at a time in arrival
// order. The matcher still locks its own state because the idle deadline
// fires on a timer goroutine. The Notifier is called without the lock held,
// so it may call Release.
package sequence
