package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedTokenBucket gives every key its own token bucket refilled at r with
// the given burst. Buckets idle for longer than ttl are evicted.
type KeyedTokenBucket struct {
	mu      sync.Mutex
	r       rate.Limit
	burst   int
	ttl     time.Duration
	buckets map[string]*bucket
	now     func() time.Time
	janitor *janitor
}

// NewKeyedTokenBucket creates the limiter and starts its eviction goroutine
func NewKeyedTokenBucket(r rate.Limit, burst int, ttl time.Duration) *KeyedTokenBucket {
	tb := &KeyedTokenBucket{
		r:       r,
		burst:   burst,
		ttl:     ttl,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	tb.janitor = startJanitor(ttl, tb.cleanup)
	return tb
}

// PerMinute converts a per minute allowance to a rate.Limit
func PerMinute(n float64) rate.Limit {
	return rate.Limit(n / 60)
}

// Allow takes a token from key's bucket if one is available
func (tb *KeyedTokenBucket) Allow(_ context.Context, key string) (Decision, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(tb.r, tb.burst)}
		tb.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return Decision{Allowed: true, Limit: tb.burst, Remaining: int(b.limiter.TokensAt(now))}, nil
	}

	r := b.limiter.ReserveN(now, 1)
	retry := r.DelayFrom(now)
	r.CancelAt(now)
	return Decision{Limit: tb.burst, RetryAfter: retry}, nil
}

// Close stops the eviction goroutine
func (tb *KeyedTokenBucket) Close() {
	tb.janitor.close()
}

func (tb *KeyedTokenBucket) cleanup() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	cutoff := tb.now().Add(-tb.ttl)
	for key, b := range tb.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
}
