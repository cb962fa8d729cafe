package persistence

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SnapshotFunc takes a position/P&L snapshot and persists it.
type SnapshotFunc func(ctx context.Context) error

// CleanupFunc removes records older than the configured retention.
type CleanupFunc func(ctx context.Context) error

// Scheduler drives periodic snapshot and cleanup passes against a
// Repository on robfig/cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

// NewScheduler registers snapshot and cleanup as cron jobs on the given
// expressions. Either expression may be empty to skip registering that
// job.
func NewScheduler(snapshotCron, cleanupCron string, snapshot SnapshotFunc, cleanup CleanupFunc) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  logrus.WithField("component", "persistence.scheduler"),
	}

	if snapshotCron != "" {
		if _, err := s.cron.AddFunc(snapshotCron, func() {
			if err := snapshot(context.Background()); err != nil {
				s.log.WithError(err).Warn("snapshot job failed")
			}
		}); err != nil {
			return nil, err
		}
	}
	if cleanupCron != "" {
		if _, err := s.cron.AddFunc(cleanupCron, func() {
			if err := cleanup(context.Background()); err != nil {
				s.log.WithError(err).Warn("cleanup job failed")
			}
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start runs the scheduler's jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
