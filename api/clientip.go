package api

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP keys every request whose address cannot be determined
const UnknownIP = "unknown"

// ClientIP resolves the caller's address. Forwarding headers are only read
// when trustProxy is set, since anyone can send them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			// the left-most entry is the original client
			if ip := validIP(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
		if ip := validIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := validIP(host); ip != "" {
		return ip
	}
	return UnknownIP
}

func validIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// ClientIPMiddleware resolves the client address once and stores it in the context
func ClientIPMiddleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ClientIP(r, trustProxy))))
		})
	}
}
