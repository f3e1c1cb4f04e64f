package crm

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one callback after a quiet
// period. A sustained burst cannot postpone the callback past MaxDelay:
// without that cap a learner answering steadily would never push at all.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	max     time.Duration
	fn      func()
	timer   *time.Timer
	firstAt time.Time
}

// NewDebouncer creates a Debouncer firing fn after delay of quiet, or at
// the latest max after the first trigger of a burst.
func NewDebouncer(delay, max time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, max: max, fn: fn}
}

// Trigger schedules (or reschedules) the callback.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if d.timer == nil {
		d.firstAt = now
	} else {
		d.timer.Stop()
		if d.max > 0 && now.Sub(d.firstAt) >= d.max {
			// Burst has gone on long enough: fire now instead of
			// postponing again.
			d.timer = nil
			go d.fn()
			return
		}
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
