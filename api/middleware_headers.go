package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/models"
)

const (
	corsAllowMethods    = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowHeaders    = "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, Authorization"
	listingCacheControl = "public, max-age=60, stale-while-revalidate=30"
)

var (
	errOriginMismatch  = errors.New("origin does not match site url")
	errRefererMismatch = errors.New("referer does not match site url")
)

// Headers applies CORS, security headers and the listing origin checks
type Headers struct {
	SiteURL    string
	Production bool
}

// SecurityMiddleware sets security and CORS headers on every response and
// answers preflight requests directly
func (h Headers) SecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("X-XSS-Protection", "1; mode=block")
		hdr.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		hdr.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.setCORS(hdr)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) setCORS(hdr http.Header) {
	hdr.Set("Access-Control-Allow-Credentials", "true")
	hdr.Set("Access-Control-Allow-Origin", h.SiteURL)
	hdr.Set("Access-Control-Allow-Methods", corsAllowMethods)
	hdr.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	hdr.Add("Vary", "Origin")
}

// ListingMiddleware guards the clan routes. In production a foreign Origin is
// rejected; writes must come from a page of the site when SiteURL is set.
// GET responses are marked cacheable.
func (h Headers) ListingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Production {
			if origin := r.Header.Get("Origin"); origin != "" && strings.TrimRight(origin, "/") != h.SiteURL {
				config.ErrorStatus(models.ReasonUnauthorizedOrigin, "Unauthorized request", http.StatusUnauthorized, w, errOriginMismatch)
				return
			}
		}
		if r.Method != http.MethodGet && h.SiteURL != "" && !strings.Contains(r.Header.Get("Referer"), h.SiteURL) {
			config.ErrorStatus(models.ReasonUnauthorizedOrigin, "Unauthorized request", http.StatusUnauthorized, w, errRefererMismatch)
			return
		}
		if r.Method == http.MethodGet {
			w.Header().Set("Cache-Control", listingCacheControl)
		}
		next.ServeHTTP(w, r)
	})
}
