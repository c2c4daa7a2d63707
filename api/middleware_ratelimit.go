package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api/ratelimit"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/models"
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimit rejects clients that exceed Limiter, keyed by client address
type RateLimit struct {
	Name    string
	Limiter ratelimit.Limiter
	Message string
}

// Middleware answers 429 with Retry-After once the client is over the limit.
// Limiter errors are logged and the request is let through.
func (rl RateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientIPFromContext(r.Context())
		d, err := rl.Limiter.Allow(r.Context(), key)
		if err != nil {
			zap.S().Warnw("rate limiter unavailable, allowing request",
				"limiter", rl.Name,
				"error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		if !d.Allowed {
			GetMetrics().RecordRateLimited(rl.Name)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d)))
			msg := rl.Message
			if msg == "" {
				msg = "Too many requests. Please try again later."
			}
			config.ErrorStatus(models.ReasonRateLimited, msg, http.StatusTooManyRequests, w, errRateLimited)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d ratelimit.Decision) int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
