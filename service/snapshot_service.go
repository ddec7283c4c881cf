package service

import (
	"context"
	"fmt"
	"time"

	"goatedbot/events"
	"goatedbot/models"

	log "github.com/sirupsen/logrus"
)

// DefaultSnapshotSize is how many top players a weekly capture keeps.
const DefaultSnapshotSize = 10

// snapshotService implements the SnapshotService interface
type snapshotService struct {
	uowFactory UnitOfWorkFactory
	goated     GoatedClient
	size       int
	loc        *time.Location
	now        func() time.Time
}

// NewSnapshotService creates a new leaderboard snapshot service. loc is the
// timezone whose calendar decides which date a capture belongs to; it should
// match the scheduler's location so a Sunday-evening run files under Sunday.
func NewSnapshotService(uowFactory UnitOfWorkFactory, goated GoatedClient, size int, loc *time.Location) SnapshotService {
	if size <= 0 {
		size = DefaultSnapshotSize
	}
	if loc == nil {
		loc = time.UTC
	}
	return &snapshotService{
		uowFactory: uowFactory,
		goated:     goated,
		size:       size,
		loc:        loc,
		now:        time.Now,
	}
}

// CaptureWeekly fetches the current top players across all affiliate networks
// and stores them under today's date. Re-running on the same date replaces
// the earlier capture rather than duplicating it.
func (s *snapshotService) CaptureWeekly(ctx context.Context) (*models.LeaderboardSnapshot, error) {
	players, err := s.goated.TopPlayers(ctx, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top players: %w", err)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("no players available for snapshot")
	}

	capturedAt := s.now()
	// The date is the calendar day in the configured location, not UTC.
	y, m, d := capturedAt.In(s.loc).Date()
	snapshotDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	entries := make([]*models.LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:           i + 1,
			Username:       p.Name,
			AffiliateID:    p.AffiliateID,
			DailyWager:     p.Wagered.Today,
			WeeklyWager:    p.Wagered.ThisWeek,
			Last7DaysWager: p.Wagered.ThisWeek,
			MonthlyWager:   p.Wagered.ThisMonth,
			AllTimeWager:   p.Wagered.AllTime,
			TotalPlayers:   len(players),
		})
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Registered players get their ledger-derived rolling figure in place of
	// the calendar-week bucket; unregistered ones keep the API number.
	ledger := uow.WagerLedgerRepository()
	for _, e := range entries {
		rolling, err := ledger.RollingSum(ctx, e.Username, RollingWindowDays, capturedAt)
		if err == nil && rolling > 0 {
			e.Last7DaysWager = rolling
		}
	}

	if err := uow.LeaderboardSnapshotRepository().Store(ctx, snapshotDate, entries); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	uow.EventBus().Publish(events.SnapshotCapturedEvent{
		SnapshotDate: snapshotDate.Format("2006-01-02"),
		EntryCount:   len(entries),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	log.WithFields(log.Fields{
		"snapshotDate": snapshotDate.Format("2006-01-02"),
		"entries":      len(entries),
	}).Info("Captured weekly leaderboard snapshot")

	return &models.LeaderboardSnapshot{
		SnapshotDate: snapshotDate,
		CapturedAt:   capturedAt,
		Entries:      entries,
	}, nil
}

// Recent returns the most recent snapshots, newest first.
func (s *snapshotService) Recent(ctx context.Context, limit int) ([]*models.LeaderboardSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	snapshots, err := uow.LeaderboardSnapshotRepository().GetRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return snapshots, nil
}
