package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted set per key scored by request time in
// milliseconds. It returns {allowed, count, oldest}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', tostring(now - window))
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, '0', '0', 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, ARGV[2])
return {1, count + 1, 0}
`)

// RedisSlidingWindow is a SlidingWindow shared by every instance through redis
type RedisSlidingWindow struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisSlidingWindow creates a limiter storing its windows under prefix.
// Keys are joined to the prefix with a colon.
func NewRedisSlidingWindow(client redis.Scripter, prefix string, limit int, window time.Duration) *RedisSlidingWindow {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisSlidingWindow{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow evaluates the window atomically in redis
func (rw *RedisSlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := rw.now().UnixMilli()
	windowMs := rw.window.Milliseconds()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, rw.client, []string{rw.prefix + key}, now, windowMs, rw.limit, member).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}

	if res[0] == 0 {
		return Decision{
			Limit:      rw.limit,
			RetryAfter: time.Duration(res[2]+windowMs-now) * time.Millisecond,
		}, nil
	}
	return Decision{
		Allowed:   true,
		Limit:     rw.limit,
		Remaining: rw.limit - int(res[1]),
	}, nil
}
