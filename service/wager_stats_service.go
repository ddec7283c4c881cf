package service

import (
	"context"
	"fmt"
	"time"

	"goatedbot/models"

	log "github.com/sirupsen/logrus"
)

// Default TTL for memoized external-API snapshots.
const DefaultCacheTTL = 5 * time.Minute

// Default retention horizon for daily ledger rows. Pruning below this never
// affects rolling sums for windows up to the retention length.
const DefaultLedgerRetentionDays = 30

// RollingWindowDays is the trailing window the ledger answers for.
const RollingWindowDays = 7

// wagerStatsService implements the WagerStatsService interface
type wagerStatsService struct {
	uowFactory    UnitOfWorkFactory
	goated        GoatedClient
	cacheTTL      time.Duration
	retentionDays int
	now           func() time.Time
}

// NewWagerStatsService creates a new wager stats service
func NewWagerStatsService(uowFactory UnitOfWorkFactory, goated GoatedClient, cacheTTL time.Duration, retentionDays int) WagerStatsService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if retentionDays <= 0 {
		retentionDays = DefaultLedgerRetentionDays
	}
	return &wagerStatsService{
		uowFactory:    uowFactory,
		goated:        goated,
		cacheTTL:      cacheTTL,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// GetWagerStats returns the player's wager snapshot. Fresh cache rows are
// served as-is; on a miss the external fetch runs outside any transaction,
// then today's ledger row and the cache are updated. Ledger and cache write
// failures are logged and never fail the caller.
func (s *wagerStatsService) GetWagerStats(ctx context.Context, username string) (*models.WagerStats, error) {
	if cached := s.cachedStats(ctx, username); cached != nil {
		return cached, nil
	}

	player, err := s.goated.FindPlayer(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wager data: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	today := s.now()
	stats := &models.WagerStats{
		Username:     player.Name,
		DailyWager:   player.Wagered.Today,
		WeeklyWager:  player.Wagered.ThisWeek,
		MonthlyWager: player.Wagered.ThisMonth,
		TotalWager:   player.Wagered.AllTime,
		CachedAt:     today,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		// Storage trouble degrades to API-only data; the external buckets
		// are still correct, only the rolling figure falls back to weekly.
		log.WithError(err).Warn("Ledger unavailable, serving API data without rolling sum")
		stats.Last7DaysWager = stats.WeeklyWager
		return stats, nil
	}
	defer uow.Rollback()

	ledger := uow.WagerLedgerRepository()
	if err := ledger.Record(ctx, player.Name, today, player.Wagered.Today, player.Wagered.AllTime); err != nil {
		log.WithField("username", player.Name).WithError(err).Warn("Failed to record daily wager")
	}

	rolling, err := ledger.RollingSum(ctx, player.Name, RollingWindowDays, today)
	if err != nil {
		log.WithField("username", player.Name).WithError(err).Warn("Failed to compute rolling 7-day wager")
		rolling = 0
	}
	stats.Last7DaysWager = rolling

	if err := uow.WagerCacheRepository().PutStats(ctx, stats, s.cacheTTL); err != nil {
		log.WithField("username", player.Name).WithError(err).Warn("Failed to cache wager stats")
	}

	s.touchLastChecked(ctx, uow, player.Name, today)

	if err := uow.Commit(); err != nil {
		log.WithField("username", player.Name).WithError(err).Warn("Failed to commit wager stats bookkeeping")
	}

	return stats, nil
}

// cachedStats returns a fresh cached snapshot or nil. Cache read errors are
// treated as misses.
func (s *wagerStatsService) cachedStats(ctx context.Context, username string) *models.WagerStats {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Debug("Cache lookup unavailable")
		return nil
	}
	defer uow.Rollback()

	cached, err := uow.WagerCacheRepository().GetStats(ctx, username)
	if err != nil {
		log.WithField("username", username).WithError(err).Debug("Cache lookup failed")
		return nil
	}
	if err := uow.Commit(); err != nil {
		return nil
	}
	return cached
}

func (s *wagerStatsService) touchLastChecked(ctx context.Context, uow UnitOfWork, username string, at time.Time) {
	user, err := uow.UserRepository().GetByGoatedUsername(ctx, username)
	if err != nil || user == nil {
		return
	}
	checked := at
	if err := uow.UserRepository().Update(ctx, user.ID, models.UserUpdate{LastWagerCheck: &checked}); err != nil {
		log.WithField("username", username).WithError(err).Debug("Failed to update last wager check")
	}
}

// GetLeaderboardPosition returns the player's ranks within their affiliate
// network, served from cache when fresh. The player's rolling 7-day figure
// replaces the API's weekly bucket since the buckets are calendar-aligned.
func (s *wagerStatsService) GetLeaderboardPosition(ctx context.Context, username string) (*models.LeaderboardPosition, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err == nil {
		cached, err := uow.WagerCacheRepository().GetLeaderboard(ctx, username)
		if cErr := uow.Commit(); cErr == nil && err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			log.WithField("username", username).WithError(err).Debug("Leaderboard cache lookup failed")
		}
	} else {
		uow.Rollback()
	}

	apiPos, err := s.goated.PlayerPosition(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard position: %w", err)
	}
	if apiPos == nil {
		return nil, ErrPlayerNotFound
	}

	pos := &models.LeaderboardPosition{
		Username:        apiPos.Username,
		DailyRank:       apiPos.DailyRank,
		WeeklyRank:      apiPos.WeeklyRank,
		Last7DaysRank:   apiPos.WeeklyRank,
		MonthlyRank:     apiPos.MonthlyRank,
		AllTimeRank:     apiPos.AllTimeRank,
		TotalPlayers:    apiPos.TotalPlayers,
		PlayerDaily:     apiPos.Player.Today,
		PlayerWeekly:    apiPos.Player.ThisWeek,
		PlayerLast7Days: apiPos.Player.ThisWeek,
		PlayerMonthly:   apiPos.Player.ThisMonth,
		PlayerAllTime:   apiPos.Player.AllTime,
		CachedAt:        s.now(),
	}

	uow = s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Warn("Ledger unavailable for leaderboard bookkeeping")
		return pos, nil
	}
	defer uow.Rollback()

	rolling, err := uow.WagerLedgerRepository().RollingSum(ctx, apiPos.Username, RollingWindowDays, s.now())
	if err == nil && rolling > 0 {
		pos.PlayerLast7Days = rolling
	}

	if err := uow.WagerCacheRepository().PutLeaderboard(ctx, pos, s.cacheTTL); err != nil {
		log.WithField("username", apiPos.Username).WithError(err).Warn("Failed to cache leaderboard position")
	}

	if err := uow.Commit(); err != nil {
		log.WithField("username", apiPos.Username).WithError(err).Warn("Failed to commit leaderboard bookkeeping")
	}

	return pos, nil
}

// RollingSevenDay returns the ledger-derived trailing 7-day wager sum. A
// user observed for the first time today sums to just that day's amount.
func (s *wagerStatsService) RollingSevenDay(ctx context.Context, username string) (float64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sum, err := uow.WagerLedgerRepository().RollingSum(ctx, username, RollingWindowDays, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to compute rolling sum: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return sum, nil
}

// PruneLedger deletes ledger rows past the retention horizon.
func (s *wagerStatsService) PruneLedger(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deleted, err := uow.WagerLedgerRepository().Prune(ctx, s.retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}

	if deleted > 0 {
		log.WithField("deleted", deleted).Info("Pruned old daily wager records")
	}

	return deleted, nil
}
