package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

const (
	digestJob     = "pending_digest_job"
	digestTimeout = 5 * time.Minute
	digestLockTTL = 10 * time.Minute
)

// DigestSender sends the pending report digest to every admin
type DigestSender interface {
	SendPendingDigests(ctx context.Context) (reporting.DigestSummary, error)
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	Digests    DigestSender
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a scheduler that sends digests on the cron spec
func NewScheduler(spec string, digests DigestSender, lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		spec:       spec,
		Digests:    digests,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start registers the jobs and begins running them
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sendDigests); err != nil {
		return fmt.Errorf("failed to register digest job %q: %w", s.spec, err)
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "digestCron", s.spec, "instance", s.instanceID)
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// sendDigests runs the digest on whichever instance holds the lease
func (s *Scheduler) sendDigests() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, digestJob, s.instanceID, digestLockTTL)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for digest job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("digest job already running on another instance, skipping")
		return
	}
	defer func() {
		if err := s.LockDB.ReleaseLock(context.Background(), digestJob, s.instanceID); err != nil {
			zap.S().Warnw("failed to release digest lock", "error", err)
		}
	}()

	sum, err := s.Digests.SendPendingDigests(ctx)
	if err != nil {
		zap.S().Errorw("digest job failed", "error", err, "sent", sum.Sent)
		return
	}
	zap.S().Infow("digest job finished", "instance", s.instanceID, "admins", sum.Admins, "sent", sum.Sent, "failed", sum.Failed)
}
