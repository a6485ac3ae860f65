// Package debounce coalesces rapid-fire triggers into a single deferred call.
//
// A Debouncer holds at most one scheduled invocation. Every Exec cancels the
// pending one and restarts the quiet period with the new function, so only the
// last function of a burst runs, once the burst has been quiet for the delay.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules a callback after a period of inactivity.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64 // generation of the pending timer; stale timers compare against it
}

// New creates a Debouncer with the given default delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the default delay.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Exec schedules fn to run after the default delay of inactivity.
func (d *Debouncer) Exec(fn func()) {
	d.ExecAfter(fn, d.delay)
}

// ExecAfter schedules fn to run after delay, replacing any pending call.
func (d *Debouncer) ExecAfter(fn func(), delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	gen := d.seq
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.seq != gen || d.timer == nil {
			// Superseded after the timer had already fired.
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a call is scheduled and has not run yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
