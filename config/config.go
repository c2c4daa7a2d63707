package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/logging"
	"github.com/juddisjudd/paxdeiclans/models"
)

// Config holds the project config values
type Config struct {
	URL          string `env:"DB_URI" envDefault:"mongodb://127.0.0.1:27017"`
	DatabaseName string `env:"DB_NAME" envDefault:"paxdeiclans"`
	BaseURL      string `env:"BASE_URL"`
	Port         string `env:"PORT" envDefault:"8080"`
	Environment  string `env:"APP_ENV" envDefault:"development"`

	// SiteURL is the frontend origin allowed by CORS and the origin checks
	SiteURL    string `env:"SITE_URL"`
	CronSecret string `env:"CRON_SECRET_KEY"`

	SessionSecret       string        `env:"SESSION_SECRET"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	DiscordClientID     string        `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string        `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL  string        `env:"DISCORD_REDIRECT_URL"`
	DiscordHTTPTimeout  time.Duration `env:"DISCORD_HTTP_TIMEOUT" envDefault:"10s"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitBackend  string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`

	BumpThrottlePerMinute float64 `env:"BUMP_THROTTLE_PER_MINUTE" envDefault:"6"`
	BumpThrottleBurst     int     `env:"BUMP_THROTTLE_BURST" envDefault:"3"`

	SyncSchedule    string        `env:"SYNC_SCHEDULE" envDefault:"0 4 * * *"`
	SyncConcurrency int           `env:"SYNC_CONCURRENCY" envDefault:"8"`
	SyncItemTimeout time.Duration `env:"SYNC_ITEM_TIMEOUT" envDefault:"10s"`
	SyncRunTimeout  time.Duration `env:"SYNC_RUN_TIMEOUT" envDefault:"10m"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	// TrustProxy reads the client address from X-Forwarded-For
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

// New sets up all config related services. A malformed environment is an error.
func New() (*Config, error) {
	conf, err := Load()
	if err != nil {
		return nil, err
	}

	//setup zap logger and replace default logger
	logger, err := logging.New(conf.Environment)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return conf, nil
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	conf := &Config{}
	if err := env.Parse(conf); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	conf.SiteURL = strings.TrimRight(conf.SiteURL, "/")
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.RateLimitRequests < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow))
	}
	if c.BumpThrottlePerMinute <= 0 {
		errs = append(errs, fmt.Errorf("BUMP_THROTTLE_PER_MINUTE must be positive, got %v", c.BumpThrottlePerMinute))
	}
	if c.BumpThrottleBurst < 1 {
		errs = append(errs, fmt.Errorf("BUMP_THROTTLE_BURST must be positive, got %d", c.BumpThrottleBurst))
	}
	if c.SyncConcurrency < 1 {
		errs = append(errs, fmt.Errorf("SYNC_CONCURRENCY must be positive, got %d", c.SyncConcurrency))
	}
	return errors.Join(errs...)
}

// Defaults returns a Config holding only the envDefault values
func Defaults() *Config {
	conf := &Config{}
	_ = env.ParseWithOptions(conf, env.Options{Environment: map[string]string{}})
	return conf
}

// IsProduction reports whether APP_ENV is production
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// given reason, message, status code and err. Only validation details reach the caller.
func ErrorStatus(reason, message string, httpStatusCode int, w http.ResponseWriter, err error) {
	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().Errorw(message, "reason", reason, "status", httpStatusCode, "error", err)
	} else {
		zap.S().Debugw(message, "reason", reason, "status", httpStatusCode, "error", err)
	}
	resp := models.ErrorMessageResponse{Error: models.MessageError{Reason: reason, Message: message}}
	var verr models.ValidationError
	if err != nil && errors.As(err, &verr) {
		resp.Error.Details = verr
	}
	WriteJSON(w, httpStatusCode, resp)
}

// WriteJSON writes v with the given status code
func WriteJSON(w http.ResponseWriter, httpStatusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("failed to encode response", "error", err)
	}
}
