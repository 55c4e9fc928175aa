package discord

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-user sliding window: at most maxMessages
// accepted per window.
type RateLimiter struct {
	mu          sync.Mutex
	maxMessages int
	window      time.Duration
	now         func() time.Time
	timestamps  map[string][]time.Time
	lastSweep   time.Time
}

// NewRateLimiter creates a limiter allowing maxMessages per window.
func NewRateLimiter(maxMessages int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxMessages: maxMessages,
		window:      window,
		now:         time.Now,
		timestamps:  make(map[string][]time.Time),
	}
}

// Allow records an attempt and reports whether the user is within their
// budget. A denied attempt is not recorded.
func (r *RateLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	if now.Sub(r.lastSweep) >= r.window {
		r.sweep(cutoff)
		r.lastSweep = now
	}

	kept := r.timestamps[userID][:0]
	for _, ts := range r.timestamps[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= r.maxMessages {
		r.timestamps[userID] = kept
		return false
	}

	r.timestamps[userID] = append(kept, now)
	return true
}

// sweep evicts users whose every timestamp has aged out, so one-shot senders
// don't accumulate in the map for the process lifetime.
func (r *RateLimiter) sweep(cutoff time.Time) {
	for id, ts := range r.timestamps {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(r.timestamps, id)
		}
	}
}
