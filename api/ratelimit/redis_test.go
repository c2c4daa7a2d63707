package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisWindow(t *testing.T, limit int, window time.Duration) (*RedisSlidingWindow, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rw := NewRedisSlidingWindow(client, "ratelimit:", limit, window)
	clock := newFakeClock()
	rw.now = clock.Now
	return rw, mr, clock
}

func TestRedisSlidingWindowRejectsThirtyFirstRequest(t *testing.T) {
	rw, mr, clock := newRedisWindow(t, 30, time.Minute)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		d, err := rw.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i+1)
		clock.Advance(time.Second)
	}

	d, err := rw.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	other, err := rw.Allow(ctx, "198.51.100.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	members, err := mr.ZMembers("ratelimit:203.0.113.7")
	require.NoError(t, err)
	assert.Len(t, members, 30)
}

func TestRedisSlidingWindowSlides(t *testing.T) {
	rw, _, clock := newRedisWindow(t, 2, time.Minute)
	ctx := context.Background()

	_, _ = rw.Allow(ctx, "k")
	clock.Advance(10 * time.Second)
	_, _ = rw.Allow(ctx, "k")

	d, _ := rw.Allow(ctx, "k")
	assert.False(t, d.Allowed)

	clock.Advance(50 * time.Second)
	d, err := rw.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestRedisSlidingWindowBackendError(t *testing.T) {
	rw, mr, _ := newRedisWindow(t, 2, time.Minute)
	mr.Close()

	_, err := rw.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestRedisSlidingWindowJoinsPrefixWithColon(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	for _, prefix := range []string{"paxdeiclans:ratelimit:listing", "paxdeiclans:ratelimit:listing:"} {
		mr.FlushAll()
		rw := NewRedisSlidingWindow(client, prefix, 5, time.Minute)
		_, err := rw.Allow(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, mr.Exists("paxdeiclans:ratelimit:listing:1.2.3.4"), prefix)
	}
}
