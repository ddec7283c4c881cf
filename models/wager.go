package models

import (
	"time"
)

// WagerStats is a snapshot of a player's wager amounts as reported by the
// Goated API, plus the ledger-derived rolling 7-day figure. Cached rows are
// never served past their expiry.
type WagerStats struct {
	Username      string    `db:"username"`
	DailyWager    float64   `db:"daily_wager"`
	WeeklyWager   float64   `db:"weekly_wager"`
	Last7DaysWager float64  `db:"last_7_days_wager"`
	MonthlyWager  float64   `db:"monthly_wager"`
	TotalWager    float64   `db:"total_wager"`
	CachedAt      time.Time `db:"cached_at"`
}

// LeaderboardPosition is a snapshot of a player's ranks within their
// affiliate network for each time bucket.
type LeaderboardPosition struct {
	Username       string    `db:"username"`
	DailyRank      *int      `db:"daily_rank"`
	WeeklyRank     *int      `db:"weekly_rank"`
	Last7DaysRank  *int      `db:"last_7_days_rank"`
	MonthlyRank    *int      `db:"monthly_rank"`
	AllTimeRank    *int      `db:"all_time_rank"`
	TotalPlayers   int       `db:"total_players"`
	PlayerDaily    float64   `db:"player_daily"`
	PlayerWeekly   float64   `db:"player_weekly"`
	PlayerLast7Days float64  `db:"player_last_7_days"`
	PlayerMonthly  float64   `db:"player_monthly"`
	PlayerAllTime  float64   `db:"player_all_time"`
	CachedAt       time.Time `db:"cached_at"`
}

// DailyWagerRecord is one ledger row per (username, calendar date). A later
// write for the same date replaces the earlier one.
type DailyWagerRecord struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	Date       time.Time `db:"date"`
	DailyWager float64   `db:"daily_wager"`
	TotalWager float64   `db:"total_wager"`
	RecordedAt time.Time `db:"recorded_at"`
}

// LeaderboardEntry is one ranked row in a weekly leaderboard snapshot.
type LeaderboardEntry struct {
	Rank           int     `db:"rank_position"`
	Username       string  `db:"username"`
	AffiliateID    string  `db:"affiliate_id"`
	DailyWager     float64 `db:"daily_wager"`
	WeeklyWager    float64 `db:"weekly_wager"`
	Last7DaysWager float64 `db:"last_7_days_wager"`
	MonthlyWager   float64 `db:"monthly_wager"`
	AllTimeWager   float64 `db:"all_time_wager"`
	TotalPlayers   int     `db:"total_players"`
}

// LeaderboardSnapshot is the top-N capture for one date.
type LeaderboardSnapshot struct {
	SnapshotDate time.Time
	CapturedAt   time.Time
	Entries      []*LeaderboardEntry
}
