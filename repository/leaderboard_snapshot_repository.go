package repository

import (
	"context"
	"fmt"
	"time"

	"goatedbot/database"
	"goatedbot/models"
)

// LeaderboardSnapshotRepository implements the LeaderboardSnapshotRepository
// interface. Snapshots are stored one row per ranked entry, keyed by
// (snapshot_date, rank_position); storing for a date replaces the whole set.
type LeaderboardSnapshotRepository struct {
	q queryable
}

// NewLeaderboardSnapshotRepository creates a new leaderboard snapshot repository
func NewLeaderboardSnapshotRepository(db *database.DB) *LeaderboardSnapshotRepository {
	return &LeaderboardSnapshotRepository{q: db.Pool}
}

// newLeaderboardSnapshotRepositoryWithTx creates a new leaderboard snapshot repository with a transaction
func newLeaderboardSnapshotRepositoryWithTx(tx queryable) *LeaderboardSnapshotRepository {
	return &LeaderboardSnapshotRepository{q: tx}
}

// Store replaces the snapshot for the date with the given entries
func (r *LeaderboardSnapshotRepository) Store(ctx context.Context, snapshotDate time.Time, entries []*models.LeaderboardEntry) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM weekly_leaderboard_snapshots WHERE snapshot_date = $1::date`, snapshotDate); err != nil {
		return fmt.Errorf("failed to clear snapshot for %s: %w", snapshotDate.Format("2006-01-02"), err)
	}

	query := `
		INSERT INTO weekly_leaderboard_snapshots
			(snapshot_date, rank_position, username, affiliate_id, daily_wager, weekly_wager,
			 last_7_days_wager, monthly_wager, all_time_wager, total_players)
		VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, e := range entries {
		_, err := r.q.Exec(ctx, query,
			snapshotDate,
			e.Rank,
			e.Username,
			e.AffiliateID,
			e.DailyWager,
			e.WeeklyWager,
			e.Last7DaysWager,
			e.MonthlyWager,
			e.AllTimeWager,
			e.TotalPlayers,
		)
		if err != nil {
			return fmt.Errorf("failed to store snapshot entry %d for %s: %w", e.Rank, e.Username, err)
		}
	}

	return nil
}

// GetByDate returns the snapshot for a date, or nil when absent
func (r *LeaderboardSnapshotRepository) GetByDate(ctx context.Context, snapshotDate time.Time) (*models.LeaderboardSnapshot, error) {
	query := `
		SELECT snapshot_date, rank_position, username, affiliate_id, daily_wager, weekly_wager,
		       last_7_days_wager, monthly_wager, all_time_wager, total_players, captured_at
		FROM weekly_leaderboard_snapshots
		WHERE snapshot_date = $1::date
		ORDER BY rank_position
	`

	rows, err := r.q.Query(ctx, query, snapshotDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", snapshotDate.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var snapshot *models.LeaderboardSnapshot
	for rows.Next() {
		var e models.LeaderboardEntry
		var date, capturedAt time.Time
		err := rows.Scan(
			&date,
			&e.Rank,
			&e.Username,
			&e.AffiliateID,
			&e.DailyWager,
			&e.WeeklyWager,
			&e.Last7DaysWager,
			&e.MonthlyWager,
			&e.AllTimeWager,
			&e.TotalPlayers,
			&capturedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		if snapshot == nil {
			snapshot = &models.LeaderboardSnapshot{
				SnapshotDate: date,
				CapturedAt:   capturedAt,
			}
		}
		snapshot.Entries = append(snapshot.Entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot entries: %w", err)
	}

	return snapshot, nil
}

// GetRecent returns the most recent snapshots, newest first
func (r *LeaderboardSnapshotRepository) GetRecent(ctx context.Context, limit int) ([]*models.LeaderboardSnapshot, error) {
	datesQuery := `
		SELECT DISTINCT snapshot_date
		FROM weekly_leaderboard_snapshots
		ORDER BY snapshot_date DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, datesQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot dates: %w", err)
	}

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		dates = append(dates, d)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot dates: %w", err)
	}

	var snapshots []*models.LeaderboardSnapshot
	for _, d := range dates {
		snapshot, err := r.GetByDate(ctx, d)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			snapshots = append(snapshots, snapshot)
		}
	}

	return snapshots, nil
}
