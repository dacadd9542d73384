package docsync

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events per key into a single deferred
// action. Scheduling a key that already has a live timer cancels the
// old timer first, so the last call within a burst wins and at most one
// action per key is ever pending.
type Debouncer struct {
	interval time.Duration
	timers   map[string]*time.Timer
	mu       sync.Mutex
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		timers:   make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms) the timer for key. When it fires
// uncancelled, fn runs once on its own goroutine.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		// the key may have been re-armed between this timer firing and
		// the lock being acquired; only forget our own handle
		if d.timers[key] == timer {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = timer
}

// Cancel drops any pending timer for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
}

// StopAll cancels every pending timer. Actions already fired keep
// running to completion.
func (d *Debouncer) StopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Pending returns the number of keys with a live timer.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
