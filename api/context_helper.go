package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type (
	userCtxKey     struct{}
	clientIPCtxKey struct{}
)

// CurrentUser is the authenticated caller
type CurrentUser struct {
	ID   string
	Name string
}

// WithUser stores the authenticated caller in the context
func WithUser(ctx context.Context, u CurrentUser) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated caller, if any
func UserFromContext(ctx context.Context) (CurrentUser, bool) {
	u, ok := ctx.Value(userCtxKey{}).(CurrentUser)
	return u, ok && u.ID != ""
}

// WithClientIP stores the resolved client address in the context
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPCtxKey{}, ip)
}

// ClientIPFromContext returns the client address, or UnknownIP
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPCtxKey{}).(string); ok && ip != "" {
		return ip
	}
	return UnknownIP
}
