package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api/scheduler"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/models"
)

var errBadCronSecret = errors.New("missing or invalid cron secret")

// Cron exposes the scheduled jobs to an external scheduler
type Cron struct {
	Sync       scheduler.Syncer
	Secret     string
	RunTimeout time.Duration
}

// DiscordUpdatesHandler refreshes the cached Discord stats of every clan.
// Callers authenticate with the cron secret as a bearer token.
func (c Cron) DiscordUpdatesHandler(w http.ResponseWriter, r *http.Request) {
	if !c.authorized(r) {
		config.ErrorStatus(models.ReasonUnauthorized, "Unauthorized", http.StatusUnauthorized, w, errBadCronSecret)
		return
	}

	// the run outlives a client that hangs up
	ctx := context.WithoutCancel(r.Context())
	if c.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RunTimeout)
		defer cancel()
	}

	summary, err := c.Sync.Run(ctx)
	if err != nil {
		config.ErrorStatus(models.ReasonInternal, "Failed to update Discord stats", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("discord stats updated from cron endpoint",
		"total", summary.Total,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	config.WriteJSON(w, http.StatusOK, models.SyncResponse{Success: true, Summary: summary})
}

func (c Cron) authorized(r *http.Request) bool {
	if c.Secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.Secret)) == 1
}
