package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/databases"
	"github.com/juddisjudd/paxdeiclans/models"
)

const discordSyncJob = "discord_stats_sync"

// Syncer runs the Discord stats sync once
type Syncer interface {
	Run(ctx context.Context) (models.SyncSummary, error)
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	Sync       Syncer
	LockDB     databases.SchedulerLockDatabase
	schedule   string
	runTimeout time.Duration
	instanceID string
}

// NewScheduler creates a new scheduler instance running sync on schedule
func NewScheduler(sync Syncer, lockDB databases.SchedulerLockDatabase, schedule string, runTimeout time.Duration) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = "instance-" + uuid.NewString()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Sync:       sync,
		LockDB:     lockDB,
		schedule:   schedule,
		runTimeout: runTimeout,
		instanceID: instanceID,
	}
}

// Start registers the jobs and starts the cron loop. An empty schedule
// disables the in-process sync.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		zap.S().Info("Discord stats sync schedule disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runDiscordSync); err != nil {
		return fmt.Errorf("failed to register discord sync job: %w", err)
	}

	s.cron.Start()
	zap.S().Infow("Scheduler started", "schedule", s.schedule, "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Scheduler stopped")
}

// runDiscordSync runs the sync under a distributed lock so only one instance does the work
func (s *Scheduler) runDiscordSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, discordSyncJob, s.instanceID, s.runTimeout+5*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for discord sync job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Discord sync job already running on another instance, skipping")
		return
	}
	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer releaseCancel()
		if err := s.LockDB.ReleaseLock(releaseCtx, discordSyncJob, s.instanceID); err != nil {
			zap.S().Warnw("failed to release discord sync lock", "error", err)
		}
	}()

	zap.S().Infow("Running discord stats sync job", "instance", s.instanceID)
	if _, err := s.Sync.Run(ctx); err != nil {
		zap.S().Errorw("discord stats sync job failed", "error", err)
	}
}
