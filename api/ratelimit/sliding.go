package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow allows at most limit requests per key within any window.
// Rejected requests are not recorded, so a client that keeps retrying
// regains access as soon as its oldest accepted request ages out.
type SlidingWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string][]time.Time
	now      func() time.Time
	janitor  *janitor
}

// NewSlidingWindow creates an in-memory limiter and starts the goroutine that
// evicts idle keys. Call Close to stop it.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	sw := &SlidingWindow{
		limit:    limit,
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
	sw.janitor = startJanitor(window, sw.cleanup)
	return sw
}

// Allow prunes the key's timestamps older than the window and records the
// request if fewer than limit remain.
func (sw *SlidingWindow) Allow(_ context.Context, key string) (Decision, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	valid := prune(sw.requests[key], now.Add(-sw.window))

	if len(valid) >= sw.limit {
		sw.requests[key] = valid
		retry := sw.window
		if len(valid) > 0 {
			retry = valid[0].Add(sw.window).Sub(now)
		}
		return Decision{
			Limit:      sw.limit,
			RetryAfter: retry,
		}, nil
	}

	sw.requests[key] = append(valid, now)
	return Decision{
		Allowed:   true,
		Limit:     sw.limit,
		Remaining: sw.limit - len(valid) - 1,
	}, nil
}

// Reset forgets every key
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.requests = make(map[string][]time.Time)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (sw *SlidingWindow) Close() {
	sw.janitor.close()
}

// Len is the number of keys currently tracked
func (sw *SlidingWindow) Len() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return len(sw.requests)
}

func (sw *SlidingWindow) cleanup() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := sw.now().Add(-sw.window)
	for key, timestamps := range sw.requests {
		valid := prune(timestamps, cutoff)
		if len(valid) == 0 {
			delete(sw.requests, key)
		} else {
			sw.requests[key] = valid
		}
	}
}

// prune keeps the timestamps strictly after cutoff, reusing the backing array
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}
