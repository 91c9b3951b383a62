// Package ratelimit provides the advisory per-session counter gating calls
// into the generative advisor.  It is process-local and non-blocking: a
// denial is reported to the caller with the remaining wait so the user can be
// told to retry, nothing is ever queued.
package ratelimit

import "time"

// Limiter is a fixed-window counter.  The window anchor is set when the
// first grant of a fresh window happens and is left alone until the window
// expires: a granted call inside a live window does not move the anchor, so
// a sustained burst cannot extend the window indefinitely.
type Limiter struct {
	window      time.Duration
	budget      int
	windowStart time.Time
	count       int
	now         func() time.Time
}

// New creates a limiter allowing budget grants per window.
func New(window time.Duration, budget int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if budget <= 0 {
		budget = 10
	}
	return &Limiter{window: window, budget: budget, now: time.Now}
}

// TryAcquire reports whether a call may proceed.  On denial the returned
// duration is how long the caller must wait for the window to roll over.
func (l *Limiter) TryAcquire() (bool, time.Duration) {
	now := l.now()
	if now.Sub(l.windowStart) > l.window {
		l.windowStart = now
		l.count = 0
	}
	if l.count >= l.budget {
		return false, l.window - now.Sub(l.windowStart)
	}
	l.count++
	return true, 0
}
