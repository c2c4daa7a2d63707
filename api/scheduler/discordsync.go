package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api"
	"github.com/juddisjudd/paxdeiclans/databases"
	"github.com/juddisjudd/paxdeiclans/discord"
	"github.com/juddisjudd/paxdeiclans/models"
)

const (
	defaultSyncConcurrency = 8
	defaultItemTimeout     = 10 * time.Second
)

// StatsSync refreshes the cached Discord member and online counts of every clan
type StatsSync struct {
	CDB         databases.ClanDatabase
	Verifier    discord.InviteVerifier
	Concurrency int
	ItemTimeout time.Duration
	now         func() time.Time
}

// NewStatsSync creates a sync job. Non positive limits fall back to defaults.
func NewStatsSync(cdb databases.ClanDatabase, verifier discord.InviteVerifier, concurrency int, itemTimeout time.Duration) *StatsSync {
	if concurrency < 1 {
		concurrency = defaultSyncConcurrency
	}
	if itemTimeout <= 0 {
		itemTimeout = defaultItemTimeout
	}
	return &StatsSync{
		CDB:         cdb,
		Verifier:    verifier,
		Concurrency: concurrency,
		ItemTimeout: itemTimeout,
		now:         time.Now,
	}
}

// Run checks every clan once and waits for all of them. A failing clan never
// affects the others; only failing to load the clans fails the run.
func (s *StatsSync) Run(ctx context.Context) (models.SyncSummary, error) {
	start := time.Now()

	cursor, err := s.CDB.Find(ctx, bson.M{}, databases.SyncTargetOptions())
	if err != nil {
		return models.SyncSummary{}, fmt.Errorf("failed to load clans: %w", err)
	}
	var targets []models.ClanSyncTarget
	if err := cursor.Decode(&targets); err != nil {
		return models.SyncSummary{}, fmt.Errorf("failed to decode clans: %w", err)
	}

	p := pool.NewWithResults[models.SyncResult]().WithMaxGoroutines(s.Concurrency)
	for _, t := range targets {
		p.Go(func() models.SyncResult {
			res := s.syncOne(ctx, t)
			api.GetMetrics().RecordSyncItem(res.Status)
			return res
		})
	}
	results := p.Wait()

	summary := models.Summarize(results, s.now())
	api.GetMetrics().RecordSyncRun(time.Since(start))
	zap.S().Infow("discord stats sync finished",
		"total", summary.Total,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", time.Since(start))
	return summary, nil
}

func (s *StatsSync) syncOne(ctx context.Context, t models.ClanSyncTarget) (res models.SyncResult) {
	res = models.SyncResult{ID: t.ID}
	defer func() {
		if r := recover(); r != nil {
			res.Status = models.SyncFailed
			res.Reason = "internal error"
			zap.S().Errorw("discord stats sync panicked", "clanId", t.ID.Hex(), "panic", r)
		}
	}()

	now := s.now()
	if !t.DueForSync(now) {
		res.Status = models.SyncSkipped
		res.Reason = "updated within the last 24 hours"
		return res
	}

	itemCtx, cancel := context.WithTimeout(ctx, s.ItemTimeout)
	defer cancel()

	info, err := s.Verifier.Verify(itemCtx, t.DiscordURL)
	if err != nil {
		res.Status = models.SyncFailed
		res.Reason = discord.InvalidReason(err)
		if errors.Is(err, context.DeadlineExceeded) {
			res.Reason = "timed out"
		}
		zap.S().Warnw("discord stats sync failed",
			"clanId", t.ID.Hex(),
			"reason", res.Reason,
			"error", err)
		return res
	}

	stats := info.Stats()
	if _, err := s.CDB.UpdateOne(ctx, bson.M{"_id": t.ID}, databases.DiscordStatsUpdate(stats, now)); err != nil {
		res.Status = models.SyncFailed
		res.Reason = "failed to save stats"
		zap.S().Errorw("failed to save discord stats", "clanId", t.ID.Hex(), "error", err)
		return res
	}

	res.Status = models.SyncSuccess
	res.Members = &stats.Members
	res.Online = &stats.Online
	return res
}
