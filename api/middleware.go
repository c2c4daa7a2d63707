package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/models"
)

// tokenCacheTTL bounds how long a verified session stays cached, and so how
// long an expired token can outlive its exp claim
const tokenCacheTTL = 5 * time.Minute

// Auth authenticates requests carrying a session bearer token
type Auth struct {
	Sessions      *Sessions
	authenticator auth.Authenticator
}

// NewAuth sets up the go-guardian bearer strategy backed by session tokens
func NewAuth(sessions *Sessions) *Auth {
	a := &Auth{Sessions: sessions}
	a.SetupGoGuardian(context.Background())
	return a
}

// SetupGoGuardian sets up the go-guardian authenticator
func (a *Auth) SetupGoGuardian(ctx context.Context) {
	a.authenticator = auth.New()
	cache := store.NewFIFO(ctx, tokenCacheTTL)
	tokenStrategy := bearer.New(a.ValidateToken, cache)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateToken verifies the session JWT and maps its claims to a go-guardian user
func (a *Auth) ValidateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := a.Sessions.Verify(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(claims.Name, claims.Subject, nil, nil), nil
}

// Middleware rejects requests without a valid session and stores the caller in the context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := a.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized",
				"url", r.URL.Path,
				"error", err)
			config.ErrorStatus(models.ReasonUnauthorized, "You must be signed in", http.StatusUnauthorized, w, err)
			return
		}
		zap.S().Debugf("User %s Authenticated", info.ID())
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), CurrentUser{ID: info.ID(), Name: info.UserName()})))
	})
}
