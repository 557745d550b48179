package autocomplete

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer runs an action once its input has been quiet for a fixed
// interval. Each Trigger supersedes the previous one. Cancel and Stop are
// unconditional: a superseded action never runs, even if its timer already
// fired and is waiting on the lock.
type Debouncer struct {
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(clock clockwork.Clock, interval time.Duration) *Debouncer {
	return &Debouncer{clock: clock, interval: interval}
}

// Trigger schedules fn to run after the quiet interval, cancelling any
// pending action. fn runs on a timer goroutine. Trigger after Stop is a
// no-op.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.cancelLocked()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.interval, func() {
		d.mu.Lock()
		current := gen == d.gen && !d.stopped
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending action, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels the pending action and disables the debouncer for good.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether an action is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
