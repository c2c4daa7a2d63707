// Package ratelimit holds the per-client request limiters used by the API.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a single Allow call
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// janitor runs sweep on an interval until stopped
type janitor struct {
	stop chan struct{}
	once sync.Once
}

func startJanitor(interval time.Duration, sweep func()) *janitor {
	j := &janitor{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep()
			case <-j.stop:
				return
			}
		}
	}()
	return j
}

func (j *janitor) close() {
	j.once.Do(func() { close(j.stop) })
}
