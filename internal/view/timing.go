// Package view renders the console screens and owns every cosmetic delay.
// Nothing here mutates controller state; intents are handed to callbacks.
package view

import (
	"sync"
	"time"
)

// Cosmetic delays.
const (
	EditDelay   = 300 * time.Millisecond
	DeleteDelay = 400 * time.Millisecond
	RefreshHold = 1000 * time.Millisecond
)

// Scheduler runs fn after d.
type Scheduler func(d time.Duration, fn func())

// AfterFunc is the default Scheduler.
func AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// RefreshIndicator keeps the refresh label up for at least RefreshHold so a
// fast reload is still visible.
type RefreshIndicator struct {
	mu       sync.Mutex
	hold     time.Duration
	now      func() time.Time
	schedule Scheduler
	active   bool
	started  time.Time
	gen      int
}

// NewRefreshIndicator creates an indicator. Nil arguments select the defaults.
func NewRefreshIndicator(now func() time.Time, schedule Scheduler) *RefreshIndicator {
	if now == nil {
		now = time.Now
	}
	if schedule == nil {
		schedule = AfterFunc
	}
	return &RefreshIndicator{hold: RefreshHold, now: now, schedule: schedule}
}

// Observe follows the controller's refreshing flag.
func (r *RefreshIndicator) Observe(refreshing bool) {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()

	switch {
	case refreshing && !active:
		r.Start()
	case !refreshing && active:
		r.Stop()
	}
}

// Start shows the indicator.
func (r *RefreshIndicator) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	r.started = r.now()
	r.gen++
}

// Stop hides the indicator once the hold time has passed.
func (r *RefreshIndicator) Stop() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	remaining := r.hold - r.now().Sub(r.started)
	if remaining <= 0 {
		r.active = false
		r.mu.Unlock()
		return
	}
	gen := r.gen
	r.mu.Unlock()

	r.schedule(remaining, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen == gen {
			r.active = false
		}
	})
}

// Active reports whether the indicator is shown.
func (r *RefreshIndicator) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Label is the refresh button text.
func (r *RefreshIndicator) Label() string {
	if r.Active() {
		return "Refreshing..."
	}
	return "Refresh"
}
