package api

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error":{"reason":"timeout","message":"The request took too long to process"}}`

// TimeoutMiddleware cancels the request context after timeout and answers 503
// with a JSON error if the handler has not written a response by then
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}
