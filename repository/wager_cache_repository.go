package repository

import (
	"context"
	"fmt"
	"time"

	"goatedbot/database"
	"goatedbot/models"

	"github.com/jackc/pgx/v5"
)

// WagerCacheRepository implements the WagerCacheRepository interface. Rows
// carry an absolute expiry; reads filter on it so an expired row behaves
// exactly like a missing one and writes simply overwrite whatever is there.
type WagerCacheRepository struct {
	q queryable
}

// NewWagerCacheRepository creates a new wager cache repository
func NewWagerCacheRepository(db *database.DB) *WagerCacheRepository {
	return &WagerCacheRepository{q: db.Pool}
}

// newWagerCacheRepositoryWithTx creates a new wager cache repository with a transaction
func newWagerCacheRepositoryWithTx(tx queryable) *WagerCacheRepository {
	return &WagerCacheRepository{q: tx}
}

// GetStats returns the cached wager snapshot, or nil past expiry
func (r *WagerCacheRepository) GetStats(ctx context.Context, username string) (*models.WagerStats, error) {
	query := `
		SELECT username, daily_wager, weekly_wager, last_7_days_wager, monthly_wager, total_wager, cached_at
		FROM wager_cache
		WHERE LOWER(username) = LOWER($1) AND expires_at > NOW()
	`

	var stats models.WagerStats
	err := r.q.QueryRow(ctx, query, username).Scan(
		&stats.Username,
		&stats.DailyWager,
		&stats.WeeklyWager,
		&stats.Last7DaysWager,
		&stats.MonthlyWager,
		&stats.TotalWager,
		&stats.CachedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached stats for %s: %w", username, err)
	}

	return &stats, nil
}

// PutStats stores a snapshot with expiry now+ttl, replacing any prior row
func (r *WagerCacheRepository) PutStats(ctx context.Context, stats *models.WagerStats, ttl time.Duration) error {
	query := `
		INSERT INTO wager_cache (username, daily_wager, weekly_wager, last_7_days_wager, monthly_wager, total_wager, cached_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW() + $7)
		ON CONFLICT (username) DO UPDATE SET
			daily_wager = EXCLUDED.daily_wager,
			weekly_wager = EXCLUDED.weekly_wager,
			last_7_days_wager = EXCLUDED.last_7_days_wager,
			monthly_wager = EXCLUDED.monthly_wager,
			total_wager = EXCLUDED.total_wager,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.q.Exec(ctx, query,
		stats.Username,
		stats.DailyWager,
		stats.WeeklyWager,
		stats.Last7DaysWager,
		stats.MonthlyWager,
		stats.TotalWager,
		ttl,
	)
	if err != nil {
		return fmt.Errorf("failed to cache stats for %s: %w", stats.Username, err)
	}

	return nil
}

// GetLeaderboard returns the cached leaderboard position, or nil past expiry
func (r *WagerCacheRepository) GetLeaderboard(ctx context.Context, username string) (*models.LeaderboardPosition, error) {
	query := `
		SELECT username, daily_rank, weekly_rank, last_7_days_rank, monthly_rank, all_time_rank,
		       total_players, player_daily, player_weekly, player_last_7_days, player_monthly, player_all_time, cached_at
		FROM leaderboard_cache
		WHERE LOWER(username) = LOWER($1) AND expires_at > NOW()
	`

	var pos models.LeaderboardPosition
	err := r.q.QueryRow(ctx, query, username).Scan(
		&pos.Username,
		&pos.DailyRank,
		&pos.WeeklyRank,
		&pos.Last7DaysRank,
		&pos.MonthlyRank,
		&pos.AllTimeRank,
		&pos.TotalPlayers,
		&pos.PlayerDaily,
		&pos.PlayerWeekly,
		&pos.PlayerLast7Days,
		&pos.PlayerMonthly,
		&pos.PlayerAllTime,
		&pos.CachedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached leaderboard position for %s: %w", username, err)
	}

	return &pos, nil
}

// PutLeaderboard stores a position snapshot with expiry now+ttl
func (r *WagerCacheRepository) PutLeaderboard(ctx context.Context, pos *models.LeaderboardPosition, ttl time.Duration) error {
	query := `
		INSERT INTO leaderboard_cache (username, daily_rank, weekly_rank, last_7_days_rank, monthly_rank, all_time_rank,
			total_players, player_daily, player_weekly, player_last_7_days, player_monthly, player_all_time, cached_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW() + $13)
		ON CONFLICT (username) DO UPDATE SET
			daily_rank = EXCLUDED.daily_rank,
			weekly_rank = EXCLUDED.weekly_rank,
			last_7_days_rank = EXCLUDED.last_7_days_rank,
			monthly_rank = EXCLUDED.monthly_rank,
			all_time_rank = EXCLUDED.all_time_rank,
			total_players = EXCLUDED.total_players,
			player_daily = EXCLUDED.player_daily,
			player_weekly = EXCLUDED.player_weekly,
			player_last_7_days = EXCLUDED.player_last_7_days,
			player_monthly = EXCLUDED.player_monthly,
			player_all_time = EXCLUDED.player_all_time,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.q.Exec(ctx, query,
		pos.Username,
		pos.DailyRank,
		pos.WeeklyRank,
		pos.Last7DaysRank,
		pos.MonthlyRank,
		pos.AllTimeRank,
		pos.TotalPlayers,
		pos.PlayerDaily,
		pos.PlayerWeekly,
		pos.PlayerLast7Days,
		pos.PlayerMonthly,
		pos.PlayerAllTime,
		ttl,
	)
	if err != nil {
		return fmt.Errorf("failed to cache leaderboard position for %s: %w", pos.Username, err)
	}

	return nil
}

// DeleteForUser removes both cache rows for the username
func (r *WagerCacheRepository) DeleteForUser(ctx context.Context, username string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM wager_cache WHERE LOWER(username) = LOWER($1)`, username); err != nil {
		return fmt.Errorf("failed to delete wager cache for %s: %w", username, err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM leaderboard_cache WHERE LOWER(username) = LOWER($1)`, username); err != nil {
		return fmt.Errorf("failed to delete leaderboard cache for %s: %w", username, err)
	}
	return nil
}
