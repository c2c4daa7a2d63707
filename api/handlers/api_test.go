package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/juddisjudd/paxdeiclans/api/ratelimit"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/databases/mocks"
)

func newTestApp(t *testing.T, conf *config.Config) (*App, *mocks.CollectionHelper) {
	t.Helper()
	dbHelper := &mocks.DatabaseHelper{}
	clans := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "clans").Return(clans)

	a := &App{Config: *conf, dbHelper: dbHelper}
	a.Router = a.New()
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, clans
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)
	return rr
}

func expectListing(clans *mocks.CollectionHelper) {
	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil)
	clans.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	clans.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
}

func TestUnknownRoute(t *testing.T) {
	a, _ := newTestApp(t, config.Defaults())
	response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/asdf", nil))

	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a, _ := newTestApp(t, config.Defaults())
	response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "alive")
	assert.Equal(t, "nosniff", response.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", response.Header().Get("X-Frame-Options"))
}

func TestPreflightRoute(t *testing.T) {
	conf := config.Defaults()
	conf.SiteURL = "https://clans.example"
	a, _ := newTestApp(t, conf)
	response := executeRequest(a, httptest.NewRequest(http.MethodOptions, "/api/clans/123/bump", nil))

	assert.Equal(t, http.StatusNoContent, response.Code)
	assert.Equal(t, "https://clans.example", response.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptionsRoute(t *testing.T) {
	a, _ := newTestApp(t, config.Defaults())
	response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	require.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "Multilingual")
	assert.Contains(t, response.Body.String(), "Europe/Africa")
}

func TestListClansRoute(t *testing.T) {
	a, clans := newTestApp(t, config.Defaults())
	expectListing(clans)

	response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/api/clans?page=1", nil))

	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=30", response.Header().Get("Cache-Control"))
	assert.NotEmpty(t, response.Header().Get("X-Request-ID"))
}

func TestListClansRouteRateLimited(t *testing.T) {
	conf := config.Defaults()
	dbHelper := &mocks.DatabaseHelper{}
	clans := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "clans").Return(clans)
	expectListing(clans)

	limiter := ratelimit.NewSlidingWindow(2, time.Minute)
	defer limiter.Close()
	a := &App{Config: *conf, dbHelper: dbHelper, Limiter: limiter}
	a.Router = a.New()
	defer a.Close(context.Background())

	for i := 0; i < 2; i++ {
		response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/api/clans", nil))
		require.Equal(t, http.StatusOK, response.Code)
	}
	response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/api/clans", nil))

	assert.Equal(t, http.StatusTooManyRequests, response.Code)
	assert.NotEmpty(t, response.Header().Get("Retry-After"))
	assert.Contains(t, response.Body.String(), "rate_limited")
}

func TestCreateClanRouteRequiresSession(t *testing.T) {
	conf := config.Defaults()
	conf.SessionSecret = "session-secret"
	a, _ := newTestApp(t, conf)

	req := httptest.NewRequest(http.MethodPost, "/api/clans", strings.NewReader(`{}`))
	response := executeRequest(a, req)
	assert.Equal(t, http.StatusUnauthorized, response.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/clans", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	response = executeRequest(a, req)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "unauthorized")
}

func TestListingRouteRejectsForeignOriginInProduction(t *testing.T) {
	conf := config.Defaults()
	conf.Environment = "production"
	conf.SiteURL = "https://clans.example"
	a, _ := newTestApp(t, conf)

	req := httptest.NewRequest(http.MethodGet, "/api/clans", nil)
	req.Header.Set("Origin", "https://evil.example")
	response := executeRequest(a, req)

	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "unauthorized_origin")
}

func TestBumpRouteRequiresSiteReferer(t *testing.T) {
	conf := config.Defaults()
	conf.SiteURL = "https://clans.example"
	a, _ := newTestApp(t, conf)

	req := httptest.NewRequest(http.MethodPost, "/api/clans/65f2a0c1e4b0a1b2c3d4e5f6/bump", nil)
	req.Header.Set("Referer", "https://elsewhere.example/")
	response := executeRequest(a, req)

	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestCronRouteWithoutSecret(t *testing.T) {
	a, _ := newTestApp(t, config.Defaults())
	req := httptest.NewRequest(http.MethodGet, "/api/cron/discord-updates", nil)
	req.Header.Set("Authorization", "Bearer ")
	response := executeRequest(a, req)

	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestInitializeRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	conf := config.Defaults()
	conf.RateLimitBackend = "redis"
	conf.RedisAddr = mr.Addr()

	a := &App{Config: *conf}
	defer a.Close(context.Background())
	require.NoError(t, a.initializeLimiter(context.Background()))

	d, err := a.Limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, mr.Exists("paxdeiclans:ratelimit:listing:1.2.3.4"))
}

func TestInitializeUnknownLimiterBackend(t *testing.T) {
	conf := config.Defaults()
	conf.RateLimitBackend = "memcached"

	a := &App{Config: *conf}
	assert.Error(t, a.initializeLimiter(context.Background()))
}

func TestRejectedOriginsCountTowardRateLimit(t *testing.T) {
	conf := config.Defaults()
	conf.Environment = "production"
	conf.SiteURL = "https://clans.example"
	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "clans").Return(&mocks.CollectionHelper{})

	limiter := ratelimit.NewSlidingWindow(2, time.Minute)
	defer limiter.Close()
	a := &App{Config: *conf, dbHelper: dbHelper, Limiter: limiter}
	a.Router = a.New()
	defer a.Close(context.Background())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/clans", nil)
		req.Header.Set("Origin", "https://evil.example")
		response := executeRequest(a, req)
		require.Equal(t, http.StatusUnauthorized, response.Code)
	}

	response := executeRequest(a, httptest.NewRequest(http.MethodGet, "/api/clans", nil))
	assert.Equal(t, http.StatusTooManyRequests, response.Code)
}
