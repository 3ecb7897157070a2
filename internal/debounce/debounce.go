// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package debounce delays an action until its trigger has been quiet for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs only the most recently triggered function, once no new
// trigger has arrived for Delay.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// New returns a Debouncer. A zero delay runs each trigger on its own
// goroutine right away, still cancelling anything pending.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the configured quiet interval.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger cancels any pending function and schedules fn to run after the
// delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A newer Trigger or Stop happened after this timer was already
		// committed to firing.
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Stop cancels the pending function, if any. It reports whether something
// was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// Pending reports whether a function is scheduled and has not run yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
