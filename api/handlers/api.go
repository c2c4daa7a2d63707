package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api"
	"github.com/juddisjudd/paxdeiclans/api/ratelimit"
	"github.com/juddisjudd/paxdeiclans/api/scheduler"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/databases"
	"github.com/juddisjudd/paxdeiclans/discord"
)

const (
	rateLimitPrefix   = "paxdeiclans:ratelimit:listing:"
	bumpThrottleTTL   = 10 * time.Minute
	redisPingTimeout  = 5 * time.Second
	listingLimitedMsg = "Too many requests, please try again later"
	bumpLimitedMsg    = "Too many bump attempts, please slow down"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router *mux.Router
	// Handler is Router wrapped in the headers every response carries
	Handler  http.Handler
	Config   config.Config
	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper

	Verifier    discord.InviteVerifier
	Users       discord.UserFetcher
	Limiter     ratelimit.Limiter
	BumpLimiter ratelimit.Limiter
	Sync        scheduler.Syncer

	closers []func() error
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	a.setDefaults()

	cdb := databases.NewClanDatabase(a.dbHelper)
	udb := databases.NewUserDatabase(a.dbHelper)
	sessions := api.NewSessions(a.Config.SessionSecret, a.Config.SessionTTL)
	auth := api.NewAuth(sessions)
	headers := api.Headers{SiteURL: a.Config.SiteURL, Production: a.Config.IsProduction()}

	if a.Sync == nil {
		a.Sync = scheduler.NewStatsSync(cdb, a.Verifier, a.Config.SyncConcurrency, a.Config.SyncItemTimeout)
	}

	c := Clan{DB: cdb, Verifier: a.Verifier}
	au := Auth{
		UDB:      udb,
		OAuth:    discord.NewOAuthConfig(a.Config.DiscordClientID, a.Config.DiscordClientSecret, a.Config.DiscordRedirectURL),
		Users:    a.Users,
		Sessions: sessions,
		Secure:   a.Config.IsProduction(),
	}
	cron := Cron{Sync: a.Sync, Secret: a.Config.CronSecret, RunTimeout: a.Config.SyncRunTimeout}
	listing := api.RateLimit{Name: "listing", Limiter: a.Limiter, Message: listingLimitedMsg}
	bump := api.RateLimit{Name: "bump", Limiter: a.BumpLimiter, Message: bumpLimitedMsg}

	r := api.New()
	r.Use(api.ClientIPMiddleware(a.Config.TrustProxy), api.MetricsMiddleware)

	r.HandleFunc("/api/options", OptionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/cron/discord-updates", cron.DiscordUpdatesHandler).Methods(http.MethodGet)

	// rate limits run before the origin checks
	limited := func(rl api.RateLimit, h http.Handler) http.Handler {
		return rl.Middleware(headers.ListingMiddleware(h))
	}
	clans := r.PathPrefix("/api/clans").Subrouter()
	clans.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))
	clans.Handle("", limited(listing, http.HandlerFunc(c.ListClansHandler))).Methods(http.MethodGet)
	clans.Handle("", limited(listing, auth.Middleware(http.HandlerFunc(c.CreateClanHandler)))).Methods(http.MethodPost)
	clans.Handle("/{clan_id}", limited(listing, http.HandlerFunc(c.ClanByIDHandler))).Methods(http.MethodGet)
	clans.Handle("/{clan_id}", limited(listing, auth.Middleware(http.HandlerFunc(c.UpdateClanHandler)))).Methods(http.MethodPut, http.MethodPatch)
	clans.Handle("/{clan_id}/bump", limited(bump, http.HandlerFunc(c.BumpClanHandler))).Methods(http.MethodPost)

	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/discord/login", au.LoginHandler).Methods(http.MethodGet)
	authRoutes.HandleFunc("/discord/callback", au.CallbackHandler).Methods(http.MethodGet)
	authRoutes.Handle("/session", auth.Middleware(http.HandlerFunc(au.SessionHandler))).Methods(http.MethodGet)

	// SecurityMiddleware answers preflight requests before routing
	a.Handler = headers.SecurityMiddleware(r)
	return r
}

// setDefaults fills in in-memory limiters when Initialize did not configure any
func (a *App) setDefaults() {
	if a.Limiter == nil {
		sw := ratelimit.NewSlidingWindow(a.Config.RateLimitRequests, a.Config.RateLimitWindow)
		a.Limiter = sw
		a.closers = append(a.closers, func() error { sw.Close(); return nil })
	}
	if a.BumpLimiter == nil {
		tb := ratelimit.NewKeyedTokenBucket(ratelimit.PerMinute(a.Config.BumpThrottlePerMinute), a.Config.BumpThrottleBurst, bumpThrottleTTL)
		a.BumpLimiter = tb
		a.closers = append(a.closers, func() error { tb.Close(); return nil })
	}
}

// Initialize is used to initialize the database, external clients and router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		zap.S().With(err).Error("failed to ping database")
		return err
	}
	zap.S().Info("paxdeiclans has connected to the database")

	if err := databases.NewClanDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		zap.S().Warnw("failed to ensure clan indexes", "error", err)
	}

	dc, err := discord.NewClient(&http.Client{Timeout: a.Config.DiscordHTTPTimeout})
	if err != nil {
		return err
	}
	a.Verifier = dc
	a.Users = dc

	if err := a.initializeLimiter(ctx); err != nil {
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeLimiter(ctx context.Context) error {
	switch a.Config.RateLimitBackend {
	case "", "memory":
		return nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", a.Config.RedisAddr, err)
		}
		a.Limiter = ratelimit.NewRedisSlidingWindow(rdb, rateLimitPrefix, a.Config.RateLimitRequests, a.Config.RateLimitWindow)
		a.closers = append(a.closers, rdb.Close)
		zap.S().Infow("using redis rate limiter", "addr", a.Config.RedisAddr)
		return nil
	default:
		return fmt.Errorf("unknown rate limit backend %q", a.Config.RateLimitBackend)
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// NewScheduler builds the in-process cron for the stats sync, locked through mongo
func (a *App) NewScheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.Sync, databases.NewSchedulerLockDatabase(a.dbHelper), a.Config.SyncSchedule, a.Config.SyncRunTimeout)
}

// ClanDatabase exposes the clan collection to the CLI commands
func (a *App) ClanDatabase() databases.ClanDatabase {
	return databases.NewClanDatabase(a.dbHelper)
}

// Close releases the limiters and the database connection
func (a *App) Close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(); err != nil {
			zap.S().Warnw("failed to close resource", "error", err)
		}
	}
	a.closers = nil
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}
