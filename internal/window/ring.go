// Package window implements the trailing-window admission gate: a line
// is admitted when fewer than a fixed number of admissions fall inside
// the window ending now. Admitted timestamps live in a fixed-capacity
// ring; stale entries are evicted ahead of each admission test, so the
// gate never allocates after construction.
package window

import "time"

// Ring records admission timestamps for a trailing window.
type Ring struct {
	buf    []time.Time
	head   int // oldest entry
	count  int
	window time.Duration
}

// New builds a gate admitting at most capacity entries per window.
func New(capacity int, window time.Duration) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		buf:    make([]time.Time, capacity),
		window: window,
	}
}

// Admit evicts entries older than now minus the window, then admits and
// records now if capacity remains. Returns whether the entry was
// admitted.
func (r *Ring) Admit(now time.Time) bool {
	cutoff := now.Add(-r.window)
	for r.count > 0 && !r.buf[r.head].After(cutoff) {
		r.head = (r.head + 1) % len(r.buf)
		r.count--
	}
	if r.count == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.count)%len(r.buf)] = now
	r.count++
	return true
}

// NextFree reports how long until the oldest entry leaves the window.
// Zero means an admission would succeed right now.
func (r *Ring) NextFree(now time.Time) time.Duration {
	if r.count < len(r.buf) {
		return 0
	}
	d := r.buf[r.head].Add(r.window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Len returns the number of live entries (stale ones included until the
// next Admit evicts them).
func (r *Ring) Len() int { return r.count }
