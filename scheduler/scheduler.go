// Package scheduler runs the periodic maintenance jobs: the weekly
// leaderboard capture and the daily ledger prune.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"goatedbot/service"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// Config holds scheduler configuration
type Config struct {
	// Timezone for the weekly capture, e.g. "America/Chicago"
	Timezone string
}

// Scheduler owns the cron jobs and their lifecycle.
type Scheduler struct {
	cron     gocron.Scheduler
	stats    service.WagerStatsService
	snapshot service.SnapshotService
}

// New creates a scheduler with the weekly snapshot and daily prune jobs
// registered. Jobs do not run until Start is called.
func New(cfg Config, stats service.WagerStatsService, snapshot service.SnapshotService) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		cron:     cron,
		stats:    stats,
		snapshot: snapshot,
	}

	// Sunday 19:00 local, end of the leaderboard week.
	_, err = cron.NewJob(
		gocron.WeeklyJob(1,
			gocron.NewWeekdays(time.Sunday),
			gocron.NewAtTimes(gocron.NewAtTime(19, 0, 0)),
		),
		gocron.NewTask(s.captureWeeklySnapshot),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register weekly snapshot job: %w", err)
	}

	_, err = cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 30, 0))),
		gocron.NewTask(s.pruneLedger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register ledger prune job: %w", err)
	}

	return s, nil
}

// Start begins executing jobs on schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("Scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

func (s *Scheduler) captureWeeklySnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := s.snapshot.CaptureWeekly(ctx)
	if err != nil {
		log.WithError(err).Error("Weekly leaderboard capture failed")
		return
	}

	log.WithFields(log.Fields{
		"snapshotDate": snapshot.SnapshotDate.Format("2006-01-02"),
		"entries":      len(snapshot.Entries),
	}).Info("Weekly leaderboard capture completed")
}

func (s *Scheduler) pruneLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	deleted, err := s.stats.PruneLedger(ctx)
	if err != nil {
		log.WithError(err).Error("Ledger prune failed")
		return
	}

	log.WithField("deleted", deleted).Debug("Ledger prune completed")
}
